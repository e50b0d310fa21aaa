package stitch

import (
	"log/slog"

	"scroll-stitcher/internal/compose"
	"scroll-stitcher/internal/overlap"
)

// Strategy selects how the frame list is folded into one image.
type Strategy int

const (
	// StrategyPairwise merges adjacent pairs round by round. Operands stay
	// similar in size, which keeps feature density comparable and avoids
	// accumulating error against an ever-growing canvas. Default.
	StrategyPairwise Strategy = iota
	// StrategySequential folds left to right, merging each frame into the
	// accumulated canvas. Legacy mode; adequate for short simple sequences.
	StrategySequential
)

// Options configures a stitching run. Start from DefaultOptions.
type Options struct {
	// MinConfidence is the score an offset estimate needs before the pair
	// is blended; below it the pair degrades to a plain append.
	MinConfidence float64

	// SearchRatio is the fraction of frame height scanned for overlap.
	SearchRatio float64

	// KeypointBudget caps ORB features per search region.
	KeypointBudget int

	// MinMatches is the minimum ratio-test survivors per estimate.
	MinMatches int

	// ScrollEfficiency scales scroll-distance hints to expected pixel
	// displacement. Exposed because 0.6 is an empirical tuning, not a law.
	ScrollEfficiency float64

	// BlendRampRows is the alpha-ramp height at blended seams.
	BlendRampRows int

	// FilterDuplicates enables dropping redundant consecutive frames
	// before merging.
	FilterDuplicates bool

	// DuplicateHigh, DuplicateLow and DuplicateIdentical are the overlap
	// ratios governing the duplicate filter: drop frame i+1 when
	// ratio(i,i+1) > high and ratio(i,i+2) > low, or unconditionally when
	// ratio(i,i+1) > identical.
	DuplicateHigh      float64
	DuplicateLow       float64
	DuplicateIdentical float64

	Strategy Strategy

	Logger *slog.Logger
}

// DefaultOptions returns empirically tuned defaults.
func DefaultOptions() Options {
	return Options{
		MinConfidence:      0.5,
		SearchRatio:        0.3,
		KeypointBudget:     2000,
		MinMatches:         10,
		ScrollEfficiency:   0.6,
		BlendRampRows:      compose.DefaultRampRows,
		FilterDuplicates:   true,
		DuplicateHigh:      0.6,
		DuplicateLow:       0.2,
		DuplicateIdentical: 0.95,
		Strategy:           StrategyPairwise,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) estimatorConfig() overlap.Config {
	cfg := overlap.DefaultConfig()
	cfg.SearchRatio = o.SearchRatio
	cfg.MinMatches = o.MinMatches
	cfg.KeypointBudget = o.KeypointBudget
	cfg.ScrollEfficiency = o.ScrollEfficiency
	cfg.Logger = o.Logger
	return cfg
}
