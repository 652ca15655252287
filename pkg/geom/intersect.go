package geom

import (
	"math"
	"sort"

	"honnef.co/go/curve"
)

// SegmentIntersection returns the parameters (t on a, u on b) of the
// proper crossing between two segments, or ok=false when they are
// parallel or miss each other. Crossings at shared endpoints are not
// reported.
func SegmentIntersection(a, b curve.Line) (t, u float64, ok bool) {
	const eps = 1e-12
	d1 := a.P1.Sub(a.P0)
	d2 := b.P1.Sub(b.P0)
	denom := d1.Cross(d2)
	if math.Abs(denom) < eps {
		return 0, 0, false
	}
	w := b.P0.Sub(a.P0)
	t = w.Cross(d2) / denom
	u = w.Cross(d1) / denom
	if t < eps || t > 1-eps || u < eps || u > 1-eps {
		return 0, 0, false
	}
	return t, u, true
}

// segmentsTouch reports whether two segments share any point,
// endpoints included.
func segmentsTouch(p1, p2, q1, q2 curve.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func orient(a, b, c curve.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, c curve.Point) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// IsSimple reports whether the loop is free of self-intersections.
// Segments are swept in min-x order so only overlapping spans are
// compared; non-adjacent segments touching at a single point (a pinch)
// count as an intersection.
func (p Polygon) IsSimple() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	type span struct {
		i          int
		minX, maxX float64
	}
	spans := make([]span, n)
	for i := range p {
		a, b := p[i], p[(i+1)%n]
		spans[i] = span{i, math.Min(a.X, b.X), math.Max(a.X, b.X)}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].minX < spans[j].minX })

	for si, s := range spans {
		for sj := si + 1; sj < n; sj++ {
			o := spans[sj]
			if o.minX > s.maxX {
				break
			}
			if adjacentSegments(s.i, o.i, n) {
				continue
			}
			a1, a2 := p[s.i], p[(s.i+1)%n]
			b1, b2 := p[o.i], p[(o.i+1)%n]
			if segmentsTouch(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

func adjacentSegments(i, j, n int) bool {
	if i == j {
		return true
	}
	d := i - j
	if d < 0 {
		d = -d
	}
	return d == 1 || d == n-1
}
