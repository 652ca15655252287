package cam

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
)

// ToolID uniquely identifies a tool record.
type ToolID string

// OperationID uniquely identifies an operation.
type OperationID string

// NewToolID returns a fresh random tool id.
func NewToolID() ToolID { return ToolID(uuid.NewString()) }

// NewOperationID returns a fresh random operation id.
func NewOperationID() OperationID { return OperationID(uuid.NewString()) }

// ToolKind is the cutter geometry class.
type ToolKind int

const (
	Endmill ToolKind = iota
	VBit
	Ballnose
)

func (k ToolKind) String() string {
	switch k {
	case Endmill:
		return "endmill"
	case VBit:
		return "v-bit"
	case Ballnose:
		return "ballnose"
	default:
		return "unknown"
	}
}

// Tool is a cutter definition. IncludedAngle is the full tip angle in
// degrees and only meaningful for V-bits; Stepover is the fraction of
// the diameter advanced between pocket rings.
type Tool struct {
	ID            ToolID   `json:"id"`
	Name          string   `json:"name"`
	Kind          ToolKind `json:"kind"`
	Diameter      float64  `json:"diameter_mm"`
	IncludedAngle float64  `json:"included_angle_deg,omitempty"`
	Stepover      float64  `json:"stepover"`
	PassDepth     float64  `json:"pass_depth_mm"`
	Version       uint64   `json:"version"`
}

// Validate checks the tool parameters against their domains.
func (t Tool) Validate() error {
	if t.Diameter <= 0 {
		return fmt.Errorf("tool %q: diameter %v must be positive", t.Name, t.Diameter)
	}
	if t.Stepover <= 0 || t.Stepover > 1 {
		return fmt.Errorf("tool %q: stepover %v outside (0, 1]", t.Name, t.Stepover)
	}
	if t.PassDepth <= 0 {
		return fmt.Errorf("tool %q: pass depth %v must be positive", t.Name, t.PassDepth)
	}
	if t.Kind == VBit && (t.IncludedAngle <= 0 || t.IncludedAngle >= 180) {
		return fmt.Errorf("tool %q: included angle %v outside (0, 180)", t.Name, t.IncludedAngle)
	}
	return nil
}

// HalfAngle returns the V-bit half angle in radians, measured from the
// spindle axis.
func (t Tool) HalfAngle() float64 {
	return t.IncludedAngle / 2 * math.Pi / 180
}

// Radius returns the cutting radius.
func (t Tool) Radius() float64 { return t.Diameter / 2 }

// CutSide selects which side of the boundary a profile cut runs on.
type CutSide int

const (
	Outside CutSide = iota // tool outside the shape, dilate by the radius
	Inside                 // tool inside the shape, erode by the radius
	OnLine                 // tool centered on the boundary
)

func (s CutSide) String() string {
	switch s {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	case OnLine:
		return "on-line"
	default:
		return "unknown"
	}
}

// Stock is the material blank operations cut into. Origin is the
// bottom-left corner in toolpath coordinates.
type Stock struct {
	Width     float64     `json:"width_mm"`
	Height    float64     `json:"height_mm"`
	Thickness float64     `json:"thickness_mm"`
	Material  string      `json:"material,omitempty"`
	Origin    curve.Point `json:"origin"`
}

// OperationKind selects the toolpath strategy.
type OperationKind int

const (
	Profile OperationKind = iota
	Pocket
	VCarve
)

func (k OperationKind) String() string {
	switch k {
	case Profile:
		return "profile"
	case Pocket:
		return "pocket"
	case VCarve:
		return "v-carve"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of an operation's toolpath.
type Status int

const (
	StatusDirty Status = iota // inputs changed since the last generation
	StatusReady
	StatusReadyWarnings
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusDirty:
		return "dirty"
	case StatusReady:
		return "ready"
	case StatusReadyWarnings:
		return "ready-with-warnings"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Params is the kind-specific parameter payload of an operation.
type Params interface{ opParams() }

// ProfileParams configures a profile cut along the shape boundary.
type ProfileParams struct {
	Side        CutSide `json:"side"`
	TargetDepth float64 `json:"target_depth_mm"`
}

func (ProfileParams) opParams() {}

// PocketParams configures clearing the shape interior.
type PocketParams struct {
	TargetDepth float64 `json:"target_depth_mm"`
}

func (PocketParams) opParams() {}

// VCarveParams configures a V-carve. MaxDepth zero means unlimited;
// ClearanceTool, when set, pockets out clamped flat floors.
type VCarveParams struct {
	MaxDepth      float64 `json:"max_depth_mm,omitempty"`
	ClearanceTool ToolID  `json:"clearance_tool,omitempty"`
}

func (VCarveParams) opParams() {}

// Operation binds shapes, a tool, and parameters under one kind.
type Operation struct {
	ID      OperationID    `json:"id"`
	Name    string         `json:"name"`
	Kind    OperationKind  `json:"kind"`
	Shapes  []geom.ShapeID `json:"shapes"`
	Tool    ToolID         `json:"tool"`
	Params  Params         `json:"params"`
	Version uint64         `json:"version"`
}

// clearanceTool returns the configured clearance tool id, empty when
// the operation kind has none.
func (o Operation) clearanceTool() ToolID {
	if p, ok := o.Params.(VCarveParams); ok {
		return p.ClearanceTool
	}
	return ""
}
