package cam

import (
	"context"
	"fmt"
	"math"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/depth"
	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/medial"
	"github.com/kerfcam/kerf/pkg/offset"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// defaultClearanceDepth caps the carve floor when a clearance tool is
// configured without an explicit max depth.
const defaultClearanceDepth = 1.0

// generateOne runs the full pipeline for a single operation on
// immutable snapshot data. It holds no locks and reads no document
// state; everything it needs rode in on the snapshot.
func generateOne(ctx context.Context, snap snapshot) result {
	res := result{id: snap.op.ID, hash: snap.hash, gen: snap.gen}

	regions, err := resolveRegions(snap)
	if err != nil {
		res.err = err
		return res
	}

	b := toolpath.NewBuilder(string(snap.op.ID))
	switch p := snap.op.Params.(type) {
	case ProfileParams:
		err = generateProfile(ctx, b, snap, p, regions)
	case PocketParams:
		err = generatePocket(ctx, b, snap, p, regions)
	case VCarveParams:
		res.skeletons, res.carves, err = generateVCarve(ctx, b, snap, p, regions)
	default:
		err = configErrorf("operation %q: unsupported parameter type %T", snap.op.Name, snap.op.Params)
	}
	if err != nil {
		res.err = err
		return res
	}

	tp := b.Toolpath()
	tp.Warnings = toolpath.DedupeWarnings(tp.Warnings)
	res.tp = &tp
	Logger().Debug("toolpath generated",
		"operation", snap.op.Name, "passes", len(tp.Passes), "warnings", len(tp.Warnings))
	return res
}

// resolveRegions flattens every referenced shape into a canonical
// region at the configured tolerance.
func resolveRegions(snap snapshot) ([]geom.Region, error) {
	regions := make([]geom.Region, 0, len(snap.shapes))
	for i := range snap.shapes {
		ss := &snap.shapes[i]
		holes := make([]*geom.Curve, len(ss.holes))
		for j := range ss.holes {
			holes[j] = &ss.holes[j]
		}
		region, err := geom.BoundaryPolygons(&ss.outer, holes, snap.config.FlattenTolerance)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", snap.op.Name, err)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func offsetOptions(cfg Config) offset.Options {
	return offset.Options{Tolerance: cfg.FlattenTolerance, MinLoopArea: cfg.MinFeatureArea}
}

func generateProfile(ctx context.Context, b *toolpath.Builder, snap snapshot, p ProfileParams, regions []geom.Region) error {
	if p.TargetDepth <= 0 {
		return configErrorf("profile %q: target depth %v must be positive", snap.op.Name, p.TargetDepth)
	}
	levels, err := depth.Plan(p.TargetDepth, snap.tool.PassDepth)
	if err != nil {
		return configErrorf("profile %q: %v", snap.op.Name, err)
	}

	var dist float64
	switch p.Side {
	case Outside:
		dist = snap.tool.Radius()
	case Inside:
		dist = -snap.tool.Radius()
	case OnLine:
		dist = 0
	default:
		return configErrorf("profile %q: unknown cut side %d", snap.op.Name, p.Side)
	}

	opts := offsetOptions(snap.config)
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}
		off, err := offset.Offset(region, dist, opts)
		if err != nil {
			return fmt.Errorf("profile %q: %w", snap.op.Name, err)
		}
		b.Warn(off.Warnings...)
		if off.Empty() {
			b.Warn(toolpath.Warningf(toolpath.WarnMinFeatureSize,
				"inside profile vanished; feature narrower than the %.3g tool allows", snap.tool.Diameter))
			continue
		}
		for _, z := range levels {
			for _, loop := range off.Loops() {
				b.AddLoopPass(string(snap.tool.ID), toolpath.PassFinish, loop, -z)
			}
		}
	}
	warnStockDepth(b, snap, p.TargetDepth)
	return nil
}

func generatePocket(ctx context.Context, b *toolpath.Builder, snap snapshot, p PocketParams, regions []geom.Region) error {
	if p.TargetDepth <= 0 {
		return configErrorf("pocket %q: target depth %v must be positive", snap.op.Name, p.TargetDepth)
	}
	levels, err := depth.Plan(p.TargetDepth, snap.tool.PassDepth)
	if err != nil {
		return configErrorf("pocket %q: %v", snap.op.Name, err)
	}

	step := snap.tool.Stepover * snap.tool.Diameter
	opts := offsetOptions(snap.config)
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}
		pr, err := offset.Pocket(region, step, opts)
		if err != nil {
			return fmt.Errorf("pocket %q: %w", snap.op.Name, err)
		}
		b.Warn(pr.Warnings...)
		b.Warn(toolpath.CheckRingGaps(pr.Rings, step, snap.config.GapTolerance)...)
		for _, z := range levels {
			for _, loop := range pr.Loops() {
				b.AddLoopPass(string(snap.tool.ID), toolpath.PassFinish, loop, -z)
			}
		}
	}
	warnStockDepth(b, snap, p.TargetDepth)
	return nil
}

func generateVCarve(ctx context.Context, b *toolpath.Builder, snap snapshot, p VCarveParams, regions []geom.Region) ([]*medial.Skeleton, []medial.CarveResult, error) {
	if snap.tool.Kind != VBit {
		return nil, nil, fmt.Errorf("v-carve %q needs a v-bit, tool %q is a %s: %w",
			snap.op.Name, snap.tool.Name, snap.tool.Kind, ErrToolMismatch)
	}
	if p.MaxDepth < 0 {
		return nil, nil, configErrorf("v-carve %q: max depth %v must not be negative", snap.op.Name, p.MaxDepth)
	}

	effMax := p.MaxDepth
	if snap.clear != nil && effMax == 0 {
		effMax = defaultClearanceDepth
		b.Warn(toolpath.Warningf(toolpath.WarnClearanceDepthDefaulted,
			"clearance tool set without a max depth; carve floor defaults to %.3g", effMax))
	}

	half := snap.tool.HalfAngle()
	tanA := math.Tan(half)
	mopts := medial.Options{SampleSpacing: snap.config.SampleSpacing, PruneAngle: snap.config.PruneAngle}
	oopts := offsetOptions(snap.config)

	var (
		skeletons []*medial.Skeleton
		carves    []medial.CarveResult
		deepest   float64
	)
	for _, region := range regions {
		sk, err := medial.Compute(ctx, region, mopts)
		if err != nil {
			return nil, nil, fmt.Errorf("v-carve %q: %w", snap.op.Name, err)
		}
		cr, err := medial.Carve(sk, half, effMax, oopts)
		if err != nil {
			return nil, nil, fmt.Errorf("v-carve %q: %w", snap.op.Name, err)
		}
		skeletons = append(skeletons, sk)
		carves = append(carves, cr)

		if d := sk.MaxR() / tanA; d > deepest {
			deepest = d
		}

		for _, path := range cr.Paths {
			switch path.Kind {
			case medial.PathCrease:
				b.AddContinuousPass(string(snap.tool.ID), toolpath.PassFinish, path.Points)
			case medial.PathPocketBoundary:
				b.AddLoopPass(string(snap.tool.ID), toolpath.PassFinish, flatLoop(path.Points), -effMax)
			}
		}

		if cr.Clamped && snap.clear == nil {
			b.Warn(toolpath.Warningf(toolpath.WarnUnclearedFlatArea,
				"carve floor at %.3g deep has flat areas and no clearance tool is set", effMax))
		}
		if snap.clear != nil && len(cr.FlatRegions) > 0 {
			if err := clearFlats(ctx, b, snap, cr.FlatRegions, effMax, oopts); err != nil {
				return nil, nil, err
			}
		}
	}

	if effMax > 0 && deepest > effMax {
		deepest = effMax
	}
	warnStockDepth(b, snap, deepest)
	return skeletons, carves, nil
}

// clearFlats pockets every flat floor region with the clearance tool,
// stepping down to the carve floor in the clearance tool's bites.
func clearFlats(ctx context.Context, b *toolpath.Builder, snap snapshot, flats []geom.Region, floorDepth float64, opts offset.Options) error {
	ct := snap.clear
	levels, err := depth.Plan(floorDepth, ct.PassDepth)
	if err != nil {
		return configErrorf("v-carve %q clearance: %v", snap.op.Name, err)
	}
	step := ct.Stepover * ct.Diameter
	for _, flat := range flats {
		if err := ctx.Err(); err != nil {
			return err
		}
		pr, err := offset.Pocket(flat, step, opts)
		if err != nil {
			return fmt.Errorf("v-carve %q clearance: %w", snap.op.Name, err)
		}
		b.Warn(pr.Warnings...)
		b.Warn(toolpath.CheckRingGaps(pr.Rings, step, snap.config.GapTolerance)...)
		for _, z := range levels {
			for _, loop := range pr.Loops() {
				b.AddLoopPass(string(ct.ID), toolpath.PassClearance, loop, -z)
			}
		}
	}
	return nil
}

// flatLoop converts a closed carve path back to a flat polygon,
// dropping the repeated closing point.
func flatLoop(pts []toolpath.Point3) geom.Polygon {
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	loop := make(geom.Polygon, len(pts))
	for i, p := range pts {
		loop[i] = curve.Point{X: p.X, Y: p.Y}
	}
	return loop
}

// warnStockDepth flags cuts that would break through the stock. Zero
// stock thickness means no stock has been set up; nothing to check.
func warnStockDepth(b *toolpath.Builder, snap snapshot, deepest float64) {
	if snap.stock.Thickness > 0 && deepest > snap.stock.Thickness+1e-9 {
		b.Warn(toolpath.Warningf(toolpath.WarnStockExceeded,
			"cut reaches %.3g below the surface of %.3g thick stock", deepest, snap.stock.Thickness))
	}
}
