package geom

import (
	"github.com/google/uuid"
	"honnef.co/go/curve"
)

// CurveID uniquely identifies an imported curve.
type CurveID string

// NewCurveID returns a fresh random curve id.
func NewCurveID() CurveID {
	return CurveID(uuid.NewString())
}

// Curve is a closed 2D outline owned by the import layer. The path is
// stored untransformed; Transform carries the placement assigned at
// import time. Version increments on every mutation so dependents can
// detect staleness.
type Curve struct {
	ID        CurveID       `json:"id"`
	Path      curve.BezPath `json:"path"`
	Transform curve.Affine  `json:"transform"`
	Closed    bool          `json:"closed"`
	Version   uint64        `json:"version"`
}

// NewCurve wraps a path as a closed curve with identity placement.
func NewCurve(path curve.BezPath) *Curve {
	return &Curve{
		ID:        NewCurveID(),
		Path:      path,
		Transform: curve.Identity,
		Closed:    true,
		Version:   1,
	}
}

// Points flattens the placed curve to a polygon at the given
// tolerance. Only the first subpath is taken; a trailing point
// coincident with the start is dropped so the polygon is implicitly
// closed.
func (c *Curve) Points(tolerance float64) Polygon {
	path := c.Path
	if c.Transform != curve.Identity {
		path = path.Transform(c.Transform)
	}

	var pts Polygon
	started := false
	for el := range path.Flatten(tolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			if started {
				return dropClosingPoint(pts)
			}
			started = true
			pts = append(pts, el.P0)
		case curve.LineToKind:
			pts = append(pts, el.P0)
		case curve.ClosePathKind:
			return dropClosingPoint(pts)
		}
	}
	return dropClosingPoint(pts)
}

// BoundingBox returns the placed curve's bounds.
func (c *Curve) BoundingBox() curve.Rect {
	path := c.Path
	if c.Transform != curve.Identity {
		path = path.Transform(c.Transform)
	}
	return path.BoundingBox()
}

func dropClosingPoint(pts Polygon) Polygon {
	if len(pts) >= 2 && nearlyEqual(pts[0], pts[len(pts)-1]) {
		return pts[:len(pts)-1]
	}
	return pts
}

func nearlyEqual(a, b curve.Point) bool {
	return a.DistanceSquared(b) < 1e-18
}
