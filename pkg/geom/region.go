package geom

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"honnef.co/go/curve"
)

// ShapeID uniquely identifies a shape.
type ShapeID string

// NewShapeID returns a fresh random shape id.
func NewShapeID() ShapeID {
	return ShapeID(uuid.NewString())
}

// Shape groups one outer curve with zero or more hole curves under
// even-odd containment.
type Shape struct {
	ID      ShapeID   `json:"id"`
	Outer   CurveID   `json:"outer"`
	Holes   []CurveID `json:"holes,omitempty"`
	Version uint64    `json:"version"`
}

// NewShape builds a shape over the given curves.
func NewShape(outer CurveID, holes ...CurveID) *Shape {
	return &Shape{
		ID:      NewShapeID(),
		Outer:   outer,
		Holes:   holes,
		Version: 1,
	}
}

// Region is a resolved polygon-with-holes boundary in canonical
// winding: outer counter-clockwise, holes clockwise. Material lies to
// the left of every loop's direction of travel.
type Region struct {
	Outer Polygon
	Holes []Polygon
}

// Loops returns the outer loop followed by the hole loops.
func (r Region) Loops() []Polygon {
	out := make([]Polygon, 0, 1+len(r.Holes))
	out = append(out, r.Outer)
	return append(out, r.Holes...)
}

// Contains reports whether pt lies in the material: inside the outer
// loop and outside every hole.
func (r Region) Contains(pt curve.Point) bool {
	if !r.Outer.Contains(pt) {
		return false
	}
	for _, h := range r.Holes {
		if h.Contains(pt) {
			return false
		}
	}
	return true
}

// Distance returns the distance from pt to the nearest boundary loop.
func (r Region) Distance(pt curve.Point) float64 {
	d := r.Outer.Distance(pt)
	for _, h := range r.Holes {
		if hd := h.Distance(pt); hd < d {
			d = hd
		}
	}
	return d
}

// Area returns the material area: outer minus holes.
func (r Region) Area() float64 {
	a := r.Outer.Area()
	for _, h := range r.Holes {
		a -= h.Area()
	}
	return a
}

// BoundingBox returns the outer loop's bounds.
func (r Region) BoundingBox() curve.Rect {
	return r.Outer.BoundingBox()
}

// InvalidGeometryError reports a boundary that cannot be machined:
// self-intersecting, degenerate, open, or inconsistently nested.
// Geometry is never repaired silently; the offending curve is named so
// the import layer can surface it.
type InvalidGeometryError struct {
	Curve  CurveID
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry on curve %s: %s", e.Curve, e.Reason)
}

const (
	// simplifyTolerance is the collinearity area below which a vertex
	// is merged into its neighbors before downstream computation.
	simplifyTolerance = 0.001
	// minBoundaryArea rejects boundaries that enclose effectively no
	// material.
	minBoundaryArea = 1e-6
)

// BoundaryPolygons flattens a shape's curves into a canonical Region.
// The outer loop must be closed, simple, and of positive area; holes
// must additionally lie inside the outer loop. Violations return an
// InvalidGeometryError naming the offending curve.
func BoundaryPolygons(outer *Curve, holes []*Curve, tolerance float64) (Region, error) {
	outerPoly, err := boundaryLoop(outer, tolerance)
	if err != nil {
		return Region{}, err
	}
	if !outerPoly.IsCCW() {
		outerPoly = outerPoly.Reversed()
	}

	region := Region{Outer: outerPoly}
	for _, hc := range holes {
		holePoly, err := boundaryLoop(hc, tolerance)
		if err != nil {
			return Region{}, err
		}
		if !outerPoly.Contains(holePoly[0]) {
			return Region{}, &InvalidGeometryError{Curve: hc.ID, Reason: "hole lies outside the outer boundary"}
		}
		if holePoly.IsCCW() {
			holePoly = holePoly.Reversed()
		}
		region.Holes = append(region.Holes, holePoly)
	}
	return region, nil
}

func boundaryLoop(c *Curve, tolerance float64) (Polygon, error) {
	if !c.Closed {
		return nil, &InvalidGeometryError{Curve: c.ID, Reason: "curve is not closed"}
	}
	pts := c.Points(tolerance).SimplifyCollinear(simplifyTolerance)
	if len(pts) < 3 {
		return nil, &InvalidGeometryError{Curve: c.ID, Reason: "fewer than three boundary points"}
	}
	if !pts.IsSimple() {
		return nil, &InvalidGeometryError{Curve: c.ID, Reason: "self-intersecting boundary"}
	}
	if math.Abs(pts.SignedArea()) < minBoundaryArea {
		return nil, &InvalidGeometryError{Curve: c.ID, Reason: "near-zero enclosed area"}
	}
	return pts, nil
}
