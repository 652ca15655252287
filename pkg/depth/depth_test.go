package depth

import (
	"math"
	"testing"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		step   float64
		want   []float64
	}{
		{"partial last pass", 5, 2, []float64{2, 4, 5}},
		{"exact multiple", 6, 2, []float64{2, 4, 6}},
		{"single full pass", 5, 5, []float64{5}},
		{"step deeper than target", 3, 7, []float64{3}},
		{"fractional steps", 0.9, 0.3, []float64{0.3, 0.6, 0.9}},
		{"shallow engrave", 0.5, 2, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.target, tt.step)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Plan(%v, %v) = %v, want %v", tt.target, tt.step, got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("Plan(%v, %v)[%d] = %v, want %v", tt.target, tt.step, i, got[i], tt.want[i])
				}
			}
			if got[len(got)-1] != tt.target {
				t.Fatalf("last pass %v, want exactly %v", got[len(got)-1], tt.target)
			}
		})
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	if _, err := Plan(0, 1); err == nil {
		t.Fatal("zero target accepted")
	}
	if _, err := Plan(-2, 1); err == nil {
		t.Fatal("negative target accepted")
	}
	if _, err := Plan(5, 0); err == nil {
		t.Fatal("zero step accepted")
	}
}
