package medial

import (
	"fmt"
	"math"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/offset"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// PathKind separates spine traces from flat-floor contours.
type PathKind int

const (
	// PathCrease follows the skeleton with the tip depth tracking the
	// clearance radius.
	PathCrease PathKind = iota
	// PathPocketBoundary outlines a region where the carve hit the
	// depth limit, traced flat at the limit.
	PathPocketBoundary
)

func (k PathKind) String() string {
	switch k {
	case PathCrease:
		return "crease"
	case PathPocketBoundary:
		return "pocket-boundary"
	default:
		return "unknown"
	}
}

// Path is one V-carve tool motion with per-point depth.
type Path struct {
	Kind   PathKind
	Points []toolpath.Point3
	Closed bool
}

// CarveResult is the 3D carving geometry derived from a skeleton.
// FlatRegions hold the floor areas a clearance tool can pocket out.
type CarveResult struct {
	Paths       []Path
	Clamped     bool
	FlatRegions []geom.Region
}

// Carve converts the skeleton into V-carve motions for a bit with the
// given half angle (radians between flank and spindle axis). The tip
// rides at z = -r/tan(halfAngle), putting the cutting edges exactly on
// both walls. A positive maxDepth clamps the tip: spine runs wider
// than limit = maxDepth*tan(halfAngle) are cut off at the crossing,
// and the uncut floor comes back as pocket boundaries plus flat
// regions. maxDepth zero means unlimited.
func Carve(sk *Skeleton, halfAngle, maxDepth float64, opts offset.Options) (CarveResult, error) {
	if halfAngle <= 0 || halfAngle >= math.Pi/2 {
		return CarveResult{}, fmt.Errorf("medial: half angle %v outside (0, pi/2)", halfAngle)
	}
	if maxDepth < 0 {
		return CarveResult{}, fmt.Errorf("medial: max depth %v must not be negative", maxDepth)
	}

	tanA := math.Tan(halfAngle)
	limit := math.Inf(1)
	var res CarveResult

	if maxDepth > 0 {
		limit = maxDepth * tanA
		off, err := offset.Offset(sk.src, -limit, opts)
		if err != nil {
			return CarveResult{}, err
		}
		for _, loop := range off.Loops() {
			closed := loop.Closed()
			pts := make([]toolpath.Point3, len(closed))
			for i, p := range closed {
				pts[i] = toolpath.Point3{X: p.X, Y: p.Y, Z: -maxDepth}
			}
			res.Paths = append(res.Paths, Path{Kind: PathPocketBoundary, Points: pts, Closed: true})
		}
		res.FlatRegions = off.Regions
		res.Clamped = len(off.Regions) > 0
	}

	flush := func(pts []toolpath.Point3, closed bool) {
		if len(pts) >= 2 {
			res.Paths = append(res.Paths, Path{Kind: PathCrease, Points: pts, Closed: closed})
		}
	}

	for _, chain := range sk.Chains() {
		var cur []toolpath.Point3
		broken := false
		for i := 1; i < len(chain); i++ {
			v1, v2 := sk.Vertices[chain[i-1]], sk.Vertices[chain[i]]
			shallow1, shallow2 := v1.R <= limit, v2.R <= limit
			switch {
			case shallow1 && shallow2:
				if len(cur) == 0 {
					cur = append(cur, carvePoint(v1.Pos, v1.R, tanA))
				}
				cur = append(cur, carvePoint(v2.Pos, v2.R, tanA))

			case shallow1 && !shallow2:
				x := crossAt(v1, v2, limit)
				if len(cur) == 0 {
					cur = append(cur, carvePoint(v1.Pos, v1.R, tanA))
				}
				cur = append(cur, toolpath.Point3{X: x.X, Y: x.Y, Z: -maxDepth})
				res.Clamped = true
				broken = true
				flush(cur, false)
				cur = nil

			case !shallow1 && shallow2:
				x := crossAt(v1, v2, limit)
				cur = []toolpath.Point3{{X: x.X, Y: x.Y, Z: -maxDepth}}
				cur = append(cur, carvePoint(v2.Pos, v2.R, tanA))
				res.Clamped = true
				broken = true

			default:
				// Both beyond the limit: the floor pass covers it.
				res.Clamped = true
				broken = true
			}
		}
		cycle := len(chain) > 2 && chain[0] == chain[len(chain)-1]
		flush(cur, cycle && !broken)
	}
	return res, nil
}

func carvePoint(p curve.Point, r, tanA float64) toolpath.Point3 {
	return toolpath.Point3{X: p.X, Y: p.Y, Z: -r / tanA}
}

// crossAt interpolates the position where the clearance radius passes
// the limit between two skeleton vertices.
func crossAt(v1, v2 Vertex, limit float64) curve.Point {
	if math.Abs(v2.R-v1.R) < 1e-12 {
		return v1.Pos
	}
	t := (limit - v1.R) / (v2.R - v1.R)
	return v1.Pos.Lerp(v2.Pos, t)
}
