package geom

import (
	"errors"
	"math"
	"testing"

	"honnef.co/go/curve"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// rectCurve builds a closed rectangular curve with the given origin and
// size, wound counter-clockwise.
func rectCurve(x, y, w, h float64) *Curve {
	var p curve.BezPath
	p.MoveTo(curve.Pt(x, y))
	p.LineTo(curve.Pt(x+w, y))
	p.LineTo(curve.Pt(x+w, y+h))
	p.LineTo(curve.Pt(x, y+h))
	p.ClosePath()
	return NewCurve(p)
}

// bowtieCurve builds a self-intersecting closed curve.
func bowtieCurve() *Curve {
	var p curve.BezPath
	p.MoveTo(curve.Pt(0, 0))
	p.LineTo(curve.Pt(10, 10))
	p.LineTo(curve.Pt(10, 0))
	p.LineTo(curve.Pt(0, 10))
	p.ClosePath()
	return NewCurve(p)
}

func mustRegion(t *testing.T, outer *Curve, holes []*Curve) Region {
	t.Helper()
	r, err := BoundaryPolygons(outer, holes, 0.25)
	if err != nil {
		t.Fatalf("BoundaryPolygons() error: %v", err)
	}
	return r
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestBoundaryPolygonsCanonicalWinding(t *testing.T) {
	outer := rectCurve(0, 0, 100, 100)
	// Drawn counter-clockwise; holes must come out clockwise no matter
	// how they were drawn.
	hole := rectCurve(30, 30, 40, 40)

	r := mustRegion(t, outer, []*Curve{hole})

	if !r.Outer.IsCCW() {
		t.Error("outer loop not counter-clockwise")
	}
	if len(r.Holes) != 1 {
		t.Fatalf("got %d holes, want 1", len(r.Holes))
	}
	if r.Holes[0].IsCCW() {
		t.Error("hole loop not clockwise")
	}
	if got := r.Area(); math.Abs(got-(100*100-40*40)) > 1e-6 {
		t.Errorf("Area() = %v, want %v", got, 100*100-40*40)
	}
}

func TestBoundaryPolygonsNormalizesClockwiseOuter(t *testing.T) {
	outer := rectCurve(0, 0, 50, 50)
	outer.Path = outer.Path.ReverseSubpaths()

	r := mustRegion(t, outer, nil)
	if !r.Outer.IsCCW() {
		t.Error("clockwise-drawn outer not normalized to counter-clockwise")
	}
}

func TestBoundaryPolygonsRejectsSelfIntersection(t *testing.T) {
	outer := bowtieCurve()
	_, err := BoundaryPolygons(outer, nil, 0.25)
	if err == nil {
		t.Fatal("self-intersecting boundary accepted")
	}
	var geomErr *InvalidGeometryError
	if !errors.As(err, &geomErr) {
		t.Fatalf("error type = %T, want *InvalidGeometryError", err)
	}
	if geomErr.Curve != outer.ID {
		t.Errorf("error names curve %s, want %s", geomErr.Curve, outer.ID)
	}
}

func TestBoundaryPolygonsRejectsOpenCurve(t *testing.T) {
	outer := rectCurve(0, 0, 10, 10)
	outer.Closed = false
	if _, err := BoundaryPolygons(outer, nil, 0.25); err == nil {
		t.Fatal("open curve accepted")
	}
}

func TestBoundaryPolygonsRejectsDegenerateArea(t *testing.T) {
	var p curve.BezPath
	p.MoveTo(curve.Pt(0, 0))
	p.LineTo(curve.Pt(10, 0))
	p.LineTo(curve.Pt(20, 0))
	p.ClosePath()
	_, err := BoundaryPolygons(NewCurve(p), nil, 0.25)
	if err == nil {
		t.Fatal("zero-area boundary accepted")
	}
}

func TestBoundaryPolygonsRejectsHoleOutsideOuter(t *testing.T) {
	outer := rectCurve(0, 0, 20, 20)
	hole := rectCurve(100, 100, 5, 5)
	_, err := BoundaryPolygons(outer, []*Curve{hole}, 0.25)
	if err == nil {
		t.Fatal("hole outside outer accepted")
	}
	var geomErr *InvalidGeometryError
	if !errors.As(err, &geomErr) || geomErr.Curve != hole.ID {
		t.Errorf("error should name the hole curve, got %v", err)
	}
}

func TestRegionContains(t *testing.T) {
	r := mustRegion(t, rectCurve(0, 0, 100, 100), []*Curve{rectCurve(40, 40, 20, 20)})
	tests := []struct {
		name string
		pt   curve.Point
		want bool
	}{
		{"material", curve.Pt(10, 10), true},
		{"inside hole", curve.Pt(50, 50), false},
		{"outside", curve.Pt(200, 50), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.pt); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestRegionDistance(t *testing.T) {
	r := mustRegion(t, rectCurve(0, 0, 100, 100), []*Curve{rectCurve(40, 40, 20, 20)})
	// Point between outer wall and hole wall: hole wall is nearer.
	if got := r.Distance(curve.Pt(35, 50)); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance() = %v, want 5", got)
	}
}
