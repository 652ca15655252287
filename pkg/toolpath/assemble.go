package toolpath

import (
	"math"
	"sort"
	"time"

	"github.com/kerfcam/kerf/pkg/geom"
)

// Builder accumulates passes for one operation and assembles them into
// a Toolpath: clearance passes ahead of finish passes, shallow cuts
// ahead of deep ones, loops emitted closed, color and id stable per
// operation.
type Builder struct {
	id       string
	passes   []Pass
	warnings []Warning
}

// NewBuilder starts a toolpath for the given operation id.
func NewBuilder(id string) *Builder {
	return &Builder{id: id}
}

// AddLoopPass appends a constant-depth pass tracing the loop at z. The
// loop is emitted closed (last point returns to the first).
func (b *Builder) AddLoopPass(tool string, kind PassKind, loop geom.Polygon, z float64) {
	if len(loop) == 0 {
		return
	}
	closed := loop.Closed()
	pts := make([]Point3, len(closed))
	for i, p := range closed {
		pts[i] = Point3{X: p.X, Y: p.Y, Z: z}
	}
	b.passes = append(b.passes, Pass{
		Tool:   tool,
		Kind:   kind,
		Points: pts,
		Level:  z,
	})
}

// AddContinuousPass appends a variable-depth pass from ready 3D points.
func (b *Builder) AddContinuousPass(tool string, kind PassKind, pts []Point3) {
	if len(pts) < 2 {
		return
	}
	level := 0.0
	for _, p := range pts {
		if p.Z < level {
			level = p.Z
		}
	}
	b.passes = append(b.passes, Pass{
		Tool:       tool,
		Kind:       kind,
		Points:     pts,
		Level:      level,
		Continuous: true,
	})
}

// Warn attaches findings to the toolpath under construction.
func (b *Builder) Warn(warnings ...Warning) {
	b.warnings = append(b.warnings, warnings...)
}

// Empty reports whether no passes have been added.
func (b *Builder) Empty() bool {
	return len(b.passes) == 0
}

// Toolpath orders the accumulated passes and stamps the artifact.
func (b *Builder) Toolpath() Toolpath {
	passes := make([]Pass, len(b.passes))
	copy(passes, b.passes)
	sort.SliceStable(passes, func(i, j int) bool {
		if passes[i].Kind != passes[j].Kind {
			return passes[i].Kind < passes[j].Kind
		}
		return passes[i].Level > passes[j].Level
	})
	return Toolpath{
		ID:          b.id,
		Color:       ColorFor(b.id),
		Passes:      passes,
		GeneratedAt: time.Now().UnixMilli(),
		Warnings:    b.warnings,
	}
}

// CheckRingGaps validates that every loop of each pocket ring stays
// within want+tol of the preceding ring, so no ridge of material
// survives between passes. Returns one warning per offending ring.
func CheckRingGaps(rings [][]geom.Polygon, want, tol float64) []Warning {
	var warnings []Warning
	for k := 1; k < len(rings); k++ {
		prev, cur := rings[k-1], rings[k]
		if len(prev) == 0 || len(cur) == 0 {
			continue
		}
		worst := 0.0
		for _, loop := range cur {
			for _, pt := range loop {
				d := math.Inf(1)
				for _, pl := range prev {
					if pd := pl.Distance(pt); pd < d {
						d = pd
					}
				}
				if d > worst {
					worst = d
				}
			}
		}
		if worst > want+tol {
			warnings = append(warnings, Warningf(WarnToolpathGapExceeded,
				"ring %d is %.3fmm from the previous ring, stepover allows %.3fmm", k, worst, want))
		}
	}
	return warnings
}
