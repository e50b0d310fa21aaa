package overlap

import (
	"math"
)

// Confidence weights. Match count and offset stability dominate; the
// remaining signals refine.
const (
	weightCount    = 0.25
	weightStd      = 0.25
	weightDistance = 0.15
	weightInliers  = 0.15
	weightXDrift   = 0.10
	weightCoverage = 0.10
)

// scoreConfidence combines the geometric-filter statistics into a single
// trust score in [0,1].
func scoreConfidence(s matchStats) float64 {
	countScore := math.Min(float64(s.count)/50.0, 1.0)
	stdScore := math.Max(0, 1.0-s.stdDY/50.0)
	distScore := math.Max(0, 1.0-s.meanDistance/100.0)

	xScore := 1.0
	if math.Abs(s.xMedian) >= 10 || s.xStd >= 5 {
		xScore = math.Max(0, 1.0-math.Abs(s.xMedian)/50.0)
	}

	// Matches should span the search region, not cluster. With very few
	// matches coverage is meaningless; score it neutrally.
	coverScore := 0.5
	if s.count >= 10 {
		coverScore = math.Min(s.coverage/0.3, 1.0)
	}

	confidence := countScore*weightCount +
		stdScore*weightStd +
		distScore*weightDistance +
		s.inlierRatio*weightInliers +
		xScore*weightXDrift +
		coverScore*weightCoverage

	confidence *= s.penalty
	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
