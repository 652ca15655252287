package cam

import (
	"errors"
	"fmt"

	"github.com/kerfcam/kerf/pkg/geom"
)

// Sentinel causes for operation failures. Pipeline code wraps these
// with context; Classify maps any failure back to its kind.
var (
	ErrToolMismatch  = errors.New("tool kind does not fit the operation")
	ErrConfigInvalid = errors.New("operation configuration invalid")
)

// FailureKind classifies why an operation went Invalid.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureGeometry
	FailureToolMismatch
	FailureConfig
	FailureCompute
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureGeometry:
		return "geometry-invalid"
	case FailureToolMismatch:
		return "tool-mismatch"
	case FailureConfig:
		return "config-invalid"
	case FailureCompute:
		return "compute-failure"
	default:
		return "unknown"
	}
}

// Classify maps a generation error to its failure kind. Unrecognized
// errors count as compute failures.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var geomErr *geom.InvalidGeometryError
	switch {
	case errors.As(err, &geomErr):
		return FailureGeometry
	case errors.Is(err, ErrToolMismatch):
		return FailureToolMismatch
	case errors.Is(err, ErrConfigInvalid):
		return FailureConfig
	default:
		return FailureCompute
	}
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfigInvalid)...)
}
