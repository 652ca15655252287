// Package toolpath defines the toolpath records produced by generation
// and the assembler that orders depth-tagged cut paths into them.
package toolpath

import "fmt"

// Point3 is a single tool position in stock coordinates, Z negative
// below the stock surface.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PassKind distinguishes roughing from finishing cuts.
type PassKind int

const (
	PassClearance PassKind = iota // flat roughing with the clearance tool
	PassFinish                    // finishing with the operation's primary tool
)

func (k PassKind) String() string {
	switch k {
	case PassClearance:
		return "clearance"
	case PassFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Pass is one contiguous cut: an ordered polyline one tool follows,
// with Tool holding that tool's id. Constant-depth passes hold every
// point at Level; continuous passes carry a per-point depth profile
// and Level records the deepest point reached.
type Pass struct {
	Tool       string   `json:"tool"`
	Kind       PassKind `json:"kind"`
	Points     []Point3 `json:"points"`
	Level      float64  `json:"level"`
	Continuous bool     `json:"continuous,omitempty"`
}

// Toolpath is the finished artifact of one operation.
type Toolpath struct {
	ID          string    `json:"id"`
	Color       Color     `json:"color"`
	Passes      []Pass    `json:"passes"`
	GeneratedAt int64     `json:"generated_at_ms"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// PointCount returns the total number of positions across all passes.
func (t Toolpath) PointCount() int {
	n := 0
	for _, p := range t.Passes {
		n += len(p.Points)
	}
	return n
}

// WarningKind classifies non-fatal generation findings.
type WarningKind int

const (
	WarnMinFeatureSize          WarningKind = iota // feature narrower than the tool
	WarnToolpathGapExceeded                        // pocket rings farther apart than the stepover allows
	WarnUnclearedFlatArea                          // clamped carve region with no clearance tool
	WarnClearanceDepthDefaulted                    // clearance tool set without a max depth
	WarnStockExceeded                              // cut deeper than the stock is thick
)

func (k WarningKind) String() string {
	switch k {
	case WarnMinFeatureSize:
		return "min-feature-size"
	case WarnToolpathGapExceeded:
		return "toolpath-gap-exceeded"
	case WarnUnclearedFlatArea:
		return "uncleared-flat-area"
	case WarnClearanceDepthDefaulted:
		return "clearance-depth-defaulted"
	case WarnStockExceeded:
		return "stock-exceeded"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal finding attached to a toolpath. Warnings never
// abort generation.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Warningf builds a warning with a formatted message.
func Warningf(kind WarningKind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// HasWarning reports whether any warning of the given kind is present.
func HasWarning(warnings []Warning, kind WarningKind) bool {
	for _, w := range warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// DedupeWarnings keeps the first warning of each kind, preserving
// order. Iterative passes tend to repeat the same finding.
func DedupeWarnings(warnings []Warning) []Warning {
	seen := make(map[WarningKind]bool, len(warnings))
	var out []Warning
	for _, w := range warnings {
		if seen[w.Kind] {
			continue
		}
		seen[w.Kind] = true
		out = append(out, w)
	}
	return out
}
