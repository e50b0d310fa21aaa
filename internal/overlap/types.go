// Package overlap estimates the vertical offset at which one captured strip
// continues another, using adaptive ORB feature matching with a
// template-matching fallback.
package overlap

import (
	"log/slog"
)

// Method identifies which estimation path produced an Estimate.
type Method int

const (
	// MethodFeature means the offset came from keypoint matching.
	MethodFeature Method = iota
	// MethodTemplate means the offset came from the correlation fallback.
	MethodTemplate
)

func (m Method) String() string {
	switch m {
	case MethodFeature:
		return "feature"
	case MethodTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Estimate is the recovered alignment between two strips. OffsetY is the row
// in the upper image at which the lower image's top row aligns.
type Estimate struct {
	OffsetY     int
	Confidence  float64
	Method      Method
	InlierRatio float64

	// Valid reports that an offset was actually measured. Invalid estimates
	// carry no usable OffsetY and the caller should fall back to appending.
	Valid bool
}

// Config holds the estimator tuning knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// SearchRatio is the fraction of each image's height scanned for
	// overlap by the standard strategy.
	SearchRatio float64

	// MinMatches is the minimum number of ratio-test survivors required
	// before an offset is computed.
	MinMatches int

	// KeypointBudget is the ORB feature budget for well-textured regions.
	// Sparse regions get 1.5x this budget.
	KeypointBudget int

	// ScrollEfficiency scales raw scroll-distance hints down to expected
	// pixel displacement. Empirically tuned; raw distances overstate the
	// real displacement.
	ScrollEfficiency float64

	// MinOffset is the most negative per-match vertical delta tolerated
	// before the estimate is rejected as a backward scroll.
	MinOffset int

	Logger *slog.Logger
}

// DefaultConfig returns empirically tuned defaults.
func DefaultConfig() Config {
	return Config{
		SearchRatio:      0.3,
		MinMatches:       10,
		KeypointBudget:   2000,
		ScrollEfficiency: 0.6,
		MinOffset:        -10,
	}
}

// Estimator runs the multi-strategy overlap search.
type Estimator struct {
	cfg Config
	log *slog.Logger
}

// NewEstimator creates an estimator with the given config.
func NewEstimator(cfg Config) *Estimator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{cfg: cfg, log: log}
}
