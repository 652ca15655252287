package geom

import (
	"math"

	"honnef.co/go/curve"
)

// Polygon is an implicitly closed loop of vertices: the segment from
// the last point back to the first is part of the boundary and the
// first point is never duplicated at the end.
type Polygon []curve.Point

// SignedArea returns the shoelace area, positive for counter-clockwise
// winding.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// IsCCW reports counter-clockwise winding.
func (p Polygon) IsCCW() bool {
	return p.SignedArea() > 0
}

// Reversed returns the loop traversed in the opposite direction.
func (p Polygon) Reversed() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Perimeter returns the total boundary length.
func (p Polygon) Perimeter() float64 {
	if len(p) < 2 {
		return 0
	}
	sum := 0.0
	for i := range p {
		sum += p[i].Distance(p[(i+1)%len(p)])
	}
	return sum
}

// Segment returns boundary segment i, from vertex i to vertex i+1
// (wrapping).
func (p Polygon) Segment(i int) curve.Line {
	return curve.Line{P0: p[i], P1: p[(i+1)%len(p)]}
}

// BoundingBox returns the axis-aligned bounds of the loop.
func (p Polygon) BoundingBox() curve.Rect {
	if len(p) == 0 {
		return curve.Rect{}
	}
	r := curve.Rect{X0: p[0].X, Y0: p[0].Y, X1: p[0].X, Y1: p[0].Y}
	for _, pt := range p[1:] {
		r = r.UnionPoint(pt)
	}
	return r
}

// Contains reports even-odd containment of pt.
func (p Polygon) Contains(pt curve.Point) bool {
	inside := false
	for i, a := range p {
		b := p[(i+1)%len(p)]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Distance returns the distance from pt to the nearest point on the
// boundary.
func (p Polygon) Distance(pt curve.Point) float64 {
	if len(p) == 0 {
		return math.Inf(1)
	}
	if len(p) == 1 {
		return pt.Distance(p[0])
	}
	best := math.Inf(1)
	for i := range p {
		distSq, _ := p.Segment(i).Nearest(pt, 1e-9)
		if distSq < best {
			best = distSq
		}
	}
	return math.Sqrt(best)
}

// Closed returns a copy with the first vertex appended, the form
// toolpath consumers expect.
func (p Polygon) Closed() Polygon {
	if len(p) == 0 {
		return nil
	}
	out := make(Polygon, len(p), len(p)+1)
	copy(out, p)
	return append(out, p[0])
}

// SimplifyCollinear removes vertices that are collinear with their
// neighbors within an area tolerance. Spikes (collinear but reversing
// direction) are kept.
func (p Polygon) SimplifyCollinear(tol float64) Polygon {
	if len(p) < 3 {
		return p
	}
	out := make(Polygon, 0, len(p))
	for _, pt := range p {
		out = append(out, pt)
		for len(out) >= 3 && collinear(out[len(out)-3], out[len(out)-2], out[len(out)-1], tol) {
			out[len(out)-2] = out[len(out)-1]
			out = out[:len(out)-1]
		}
	}
	for len(out) >= 3 && collinear(out[len(out)-2], out[len(out)-1], out[0], tol) {
		out = out[:len(out)-1]
	}
	for len(out) >= 3 && collinear(out[len(out)-1], out[0], out[1], tol) {
		out = out[1:]
	}
	return out
}

func collinear(a, b, c curve.Point, tol float64) bool {
	area := math.Abs(b.Sub(a).Cross(c.Sub(a))) / 2
	if area > tol {
		return false
	}
	return b.Sub(a).Dot(c.Sub(b)) > 0
}
