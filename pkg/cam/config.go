package cam

import (
	"fmt"
	"runtime"
)

// Config carries the numeric tuning shared by every pipeline stage.
type Config struct {
	// FlattenTolerance is the curve-flattening and arc-tessellation
	// tolerance in mm.
	FlattenTolerance float64 `json:"flatten_tolerance"`
	// SampleSpacing is the boundary sample spacing for medial-axis
	// extraction, mm.
	SampleSpacing float64 `json:"sample_spacing"`
	// PruneAngle is the corner turning angle in radians below which
	// skeleton branches are pruned as artifacts.
	PruneAngle float64 `json:"prune_angle"`
	// GapTolerance is the slack allowed over the stepover distance
	// between adjacent pocket rings before a gap warning, mm.
	GapTolerance float64 `json:"gap_tolerance"`
	// MinFeatureArea is the smallest offset loop area worth keeping,
	// mm^2.
	MinFeatureArea float64 `json:"min_feature_area"`
	// Workers bounds generation parallelism. Zero means NumCPU.
	Workers int `json:"workers,omitempty"`
}

// DefaultConfig returns production tuning.
func DefaultConfig() Config {
	return Config{
		FlattenTolerance: 0.25,
		SampleSpacing:    0.5,
		PruneAngle:       0.30,
		GapTolerance:     0.3,
		MinFeatureArea:   1e-4,
	}
}

// Validate checks the configuration domains.
func (c Config) Validate() error {
	if c.FlattenTolerance <= 0 {
		return fmt.Errorf("config: flatten tolerance %v must be positive", c.FlattenTolerance)
	}
	if c.SampleSpacing <= 0 {
		return fmt.Errorf("config: sample spacing %v must be positive", c.SampleSpacing)
	}
	if c.PruneAngle < 0 {
		return fmt.Errorf("config: prune angle %v must not be negative", c.PruneAngle)
	}
	if c.GapTolerance < 0 {
		return fmt.Errorf("config: gap tolerance %v must not be negative", c.GapTolerance)
	}
	if c.MinFeatureArea < 0 {
		return fmt.Errorf("config: min feature area %v must not be negative", c.MinFeatureArea)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: worker count %v must not be negative", c.Workers)
	}
	return nil
}

// workers returns the effective pool size.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
