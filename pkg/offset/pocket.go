package offset

import (
	"fmt"

	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// maxPocketRings bounds the erosion loop against non-shrinking input.
const maxPocketRings = 10000

// PocketResult holds concentric clearing rings ordered boundary
// inward. Ring k sits (k+1) stepovers inside the source boundary, and
// every loop runs in machining direction.
type PocketResult struct {
	Rings    [][]geom.Polygon
	Warnings []toolpath.Warning
}

// Empty reports whether no ring survived the first erosion.
func (p PocketResult) Empty() bool {
	return len(p.Rings) == 0
}

// Loops flattens the rings into a single boundary-inward sequence.
func (p PocketResult) Loops() []geom.Polygon {
	var out []geom.Polygon
	for _, ring := range p.Rings {
		out = append(out, ring...)
	}
	return out
}

// Pocket clears a region by repeated erosion with the given stepover
// distance. The region may split as it shrinks; each fragment keeps
// eroding until nothing is left. Islands are respected throughout
// because holes erode along with their outer.
func Pocket(region geom.Region, stepover float64, opts Options) (PocketResult, error) {
	if stepover <= 0 {
		return PocketResult{}, fmt.Errorf("pocket: stepover %v must be positive", stepover)
	}

	var res PocketResult
	current := []geom.Region{region}
	for len(current) > 0 {
		if len(res.Rings) >= maxPocketRings {
			return PocketResult{}, fmt.Errorf("pocket: not converged after %d rings", maxPocketRings)
		}
		var ring []geom.Polygon
		var next []geom.Region
		for _, reg := range current {
			off, err := Offset(reg, -stepover, opts)
			if err != nil {
				return PocketResult{}, err
			}
			res.Warnings = append(res.Warnings, off.Warnings...)
			ring = append(ring, off.Loops()...)
			next = append(next, off.Regions...)
		}
		if len(ring) > 0 {
			res.Rings = append(res.Rings, ring)
		}
		current = next
	}

	if res.Empty() {
		res.Warnings = append(res.Warnings, toolpath.Warningf(toolpath.WarnMinFeatureSize,
			"pocket vanished on the first %.3g step; feature narrower than the tool allows", stepover))
	}
	res.Warnings = toolpath.DedupeWarnings(res.Warnings)
	return res, nil
}
