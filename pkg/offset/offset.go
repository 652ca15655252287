// Package offset computes signed-distance offsets of polygon regions
// and the iterative ring erosion used for pocketing.
//
// The approach mirrors contour-offset CAM kernels: every boundary edge
// is shifted perpendicular to travel, convex corners on the offset
// side are bridged with tessellated arcs, and the raw result is then
// resolved globally: all self- and cross-intersections are split and
// every piece closer to the source boundary than the offset distance
// is discarded. Relinking the survivors yields the true offset loops;
// splits, merges, and vanishing features fall out of the filter
// without an explicit boolean stage.
package offset

import (
	"fmt"
	"math"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// Options tune the geometric resolution of offsetting.
type Options struct {
	// Tolerance bounds the sagitta of tessellated join arcs and scales
	// the validity epsilon of the resolution filter.
	Tolerance float64
	// MinLoopArea discards resolved loops enclosing less area than
	// this; such slivers are reported as thin features.
	MinLoopArea float64
}

// DefaultOptions returns the tolerances used when the caller has no
// configuration of its own.
func DefaultOptions() Options {
	return Options{Tolerance: 0.25, MinLoopArea: 1e-4}
}

// Result holds the outcome of one offset operation with its topology
// intact: canonical regions for further processing plus the flat loop
// view in machining direction.
type Result struct {
	Regions  []geom.Region
	Warnings []toolpath.Warning
}

// Empty reports whether the offset consumed the whole region.
func (r Result) Empty() bool {
	return len(r.Regions) == 0
}

// Loops returns every boundary loop in conventional-milling direction:
// material on the right of travel.
func (r Result) Loops() []geom.Polygon {
	var out []geom.Polygon
	for _, reg := range r.Regions {
		for _, loop := range reg.Loops() {
			out = append(out, loop.Reversed())
		}
	}
	return out
}

// Offset shifts the region boundary by the signed distance: positive
// dilates the material, negative erodes it. Distance zero returns the
// region unchanged (the on-line cut).
func Offset(region geom.Region, distance float64, opts Options) (Result, error) {
	if len(region.Outer) < 3 {
		return Result{}, fmt.Errorf("offset: region outer has %d points", len(region.Outer))
	}
	if opts.Tolerance <= 0 {
		return Result{}, fmt.Errorf("offset: tolerance %v must be positive", opts.Tolerance)
	}
	if distance == 0 {
		return Result{Regions: []geom.Region{region}}, nil
	}

	raw := make([]geom.Polygon, 0, 1+len(region.Holes))
	for _, loop := range region.Loops() {
		if r := rawOffsetLoop(loop, distance, opts.Tolerance); len(r) >= 3 {
			raw = append(raw, r)
		}
	}

	loops, thin := resolve(raw, region, distance, opts)
	res := Result{Regions: groupRegions(loops)}
	if thin > 0 {
		res.Warnings = append(res.Warnings, toolpath.Warningf(toolpath.WarnMinFeatureSize,
			"%d offset loop(s) thinner than the resolution threshold were discarded", thin))
	}
	return res, nil
}

// rawOffsetLoop shifts one loop perpendicular to travel by d. Material
// lies on the left of every canonical loop, so positive d moves the
// boundary right, away from material. Corners turning onto the offset
// side receive an arc; all other corners are bridged and left to the
// resolution filter.
func rawOffsetLoop(loop geom.Polygon, d, tol float64) geom.Polygon {
	pts := dedupe(loop)
	n := len(pts)
	if n < 3 {
		return nil
	}
	out := make(geom.Polygon, 0, 2*n)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		u := cur.Sub(prev).Normalize()
		v := next.Sub(cur).Normalize()
		a := cur.Translate(rightNormal(u).Mul(d))
		b := cur.Translate(rightNormal(v).Mul(d))
		out = append(out, a)
		if u.Cross(v)*d > 1e-12 {
			out = append(out, arcPoints(cur, a, b, math.Abs(d), tol)...)
		}
		out = append(out, b)
	}
	return dedupe(out)
}

// arcPoints tessellates the short arc from a to b around center c,
// keeping the chord sagitta within tol. The returned points exclude
// both endpoints.
func arcPoints(c, a, b curve.Point, radius, tol float64) []curve.Point {
	if tol >= radius {
		return nil
	}
	va := a.Sub(c)
	vb := b.Sub(c)
	sweep := math.Atan2(va.Cross(vb), va.Dot(vb))
	step := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(math.Abs(sweep) / step))
	if n < 2 {
		return nil
	}
	start := math.Atan2(va.Y, va.X)
	pts := make([]curve.Point, 0, n-1)
	for k := 1; k < n; k++ {
		th := start + sweep*float64(k)/float64(n)
		pts = append(pts, curve.Pt(c.X+radius*math.Cos(th), c.Y+radius*math.Sin(th)))
	}
	return pts
}

func rightNormal(v curve.Vec2) curve.Vec2 {
	return curve.Vec2{X: v.Y, Y: -v.X}
}

func dedupe(pts geom.Polygon) geom.Polygon {
	const epsSq = 1e-18
	out := make(geom.Polygon, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].DistanceSquared(p) < epsSq {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].DistanceSquared(out[len(out)-1]) < epsSq {
		out = out[:len(out)-1]
	}
	return out
}

// groupRegions sorts resolved loops into regions by winding: counter-
// clockwise loops bound material, clockwise loops are holes attached
// to the smallest enclosing outer.
func groupRegions(loops []geom.Polygon) []geom.Region {
	var outers, holes []geom.Polygon
	for _, l := range loops {
		if l.IsCCW() {
			outers = append(outers, l)
		} else {
			holes = append(holes, l)
		}
	}
	regions := make([]geom.Region, len(outers))
	for i, o := range outers {
		regions[i] = geom.Region{Outer: o}
	}
	for _, h := range holes {
		best := -1
		bestArea := math.Inf(1)
		for i, o := range outers {
			if o.Contains(h[0]) && o.Area() < bestArea {
				best, bestArea = i, o.Area()
			}
		}
		if best >= 0 {
			regions[best].Holes = append(regions[best].Holes, h)
		}
	}
	return regions
}
