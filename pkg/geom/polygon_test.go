package geom

import (
	"math"
	"testing"

	"honnef.co/go/curve"
)

func square(size float64) Polygon {
	return Polygon{
		curve.Pt(0, 0),
		curve.Pt(size, 0),
		curve.Pt(size, size),
		curve.Pt(0, size),
	}
}

func TestSignedArea(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want float64
	}{
		{"ccw square", square(10), 100},
		{"cw square", square(10).Reversed(), -100},
		{"triangle", Polygon{curve.Pt(0, 0), curve.Pt(4, 0), curve.Pt(0, 3)}, 6},
		{"degenerate", Polygon{curve.Pt(0, 0), curve.Pt(1, 1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.poly.SignedArea(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SignedArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	p := square(10)
	tests := []struct {
		name string
		pt   curve.Point
		want bool
	}{
		{"center", curve.Pt(5, 5), true},
		{"outside right", curve.Pt(15, 5), false},
		{"outside above", curve.Pt(5, 15), false},
		{"near corner inside", curve.Pt(0.01, 0.01), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Contains(tt.pt); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	p := square(10)
	tests := []struct {
		name string
		pt   curve.Point
		want float64
	}{
		{"center", curve.Pt(5, 5), 5},
		{"outside right", curve.Pt(14, 5), 4},
		{"on boundary", curve.Pt(10, 5), 0},
		{"beyond corner", curve.Pt(13, 14), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Distance(tt.pt); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestIsSimple(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want bool
	}{
		{"square", square(10), true},
		{"triangle", Polygon{curve.Pt(0, 0), curve.Pt(4, 0), curve.Pt(2, 3)}, true},
		{"bowtie", Polygon{curve.Pt(0, 0), curve.Pt(10, 10), curve.Pt(10, 0), curve.Pt(0, 10)}, false},
		{"pinched", Polygon{
			curve.Pt(0, 0), curve.Pt(10, 0), curve.Pt(5, 5),
			curve.Pt(10, 10), curve.Pt(0, 10), curve.Pt(5, 5),
		}, false},
		{"too few points", Polygon{curve.Pt(0, 0), curve.Pt(1, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.poly.IsSimple(); got != tt.want {
				t.Errorf("IsSimple() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplifyCollinear(t *testing.T) {
	withMidpoints := Polygon{
		curve.Pt(0, 0), curve.Pt(5, 0), curve.Pt(10, 0),
		curve.Pt(10, 10), curve.Pt(5, 10), curve.Pt(0, 10),
	}
	got := withMidpoints.SimplifyCollinear(0.001)
	if len(got) != 4 {
		t.Fatalf("SimplifyCollinear() kept %d points, want 4: %v", len(got), got)
	}
	if math.Abs(got.Area()-100) > 1e-9 {
		t.Errorf("area changed by simplification: %v", got.Area())
	}

	// A reversal spike is not collinear-removable.
	spike := Polygon{
		curve.Pt(0, 0), curve.Pt(10, 0), curve.Pt(6, 0.0000001),
		curve.Pt(10, 10), curve.Pt(0, 10),
	}
	if got := spike.SimplifyCollinear(0.001); len(got) != len(spike) {
		t.Errorf("spike vertex removed: %v", got)
	}
}

func TestClosedAppendsFirstPoint(t *testing.T) {
	p := square(10)
	closed := p.Closed()
	if len(closed) != len(p)+1 {
		t.Fatalf("Closed() length = %d, want %d", len(closed), len(p)+1)
	}
	if closed[len(closed)-1] != p[0] {
		t.Errorf("Closed() last point = %v, want %v", closed[len(closed)-1], p[0])
	}
	// Original must be untouched.
	if len(p) != 4 {
		t.Errorf("source polygon mutated: %v", p)
	}
}

func TestSegmentIntersection(t *testing.T) {
	a := curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(10, 10)}
	b := curve.Line{P0: curve.Pt(0, 10), P1: curve.Pt(10, 0)}
	t1, u1, ok := SegmentIntersection(a, b)
	if !ok {
		t.Fatal("crossing diagonals not detected")
	}
	if math.Abs(t1-0.5) > 1e-9 || math.Abs(u1-0.5) > 1e-9 {
		t.Errorf("intersection params = %v, %v, want 0.5, 0.5", t1, u1)
	}

	c := curve.Line{P0: curve.Pt(0, 1), P1: curve.Pt(10, 11)}
	if _, _, ok := SegmentIntersection(a, c); ok {
		t.Error("parallel segments reported as crossing")
	}

	d := curve.Line{P0: curve.Pt(10, 10), P1: curve.Pt(20, 0)}
	if _, _, ok := SegmentIntersection(a, d); ok {
		t.Error("shared endpoint reported as crossing")
	}
}
