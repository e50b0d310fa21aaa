package overlap

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// Recoverable estimation failures. Each one advances the strategy ladder;
// exhausting the ladder drops to the template fallback.
var (
	ErrTooFewKeypoints = errors.New("too few keypoints")
	ErrTooFewMatches   = errors.New("too few usable matches")
	ErrBackwardScroll  = errors.New("offset implies backward scroll")
)

// strategy describes one search-window configuration in the retry ladder.
type strategy struct {
	name       string
	multiplier float64 // search-ratio multiplier for bottom/top windows
	fullFrame  bool    // search both frames in their entirety
	centered   bool    // search around a scroll-distance estimate
	center     int     // expected offset when centered
	window     int     // tolerance around center in pixels
}

// strategies returns the retry ladder. With a scroll hint the ladder probes
// progressively wider bands around the hinted offset; without one it widens
// the conventional bottom-of-A / top-of-B windows until it scans everything.
func (e *Estimator) strategies(scrollDistance int) []strategy {
	if scrollDistance > 0 {
		center := int(float64(scrollDistance) * e.cfg.ScrollEfficiency)
		return []strategy{
			{name: "precise", centered: true, center: center, window: 15},
			{name: "wider", centered: true, center: center, window: 30},
			{name: "widest", centered: true, center: center, window: 60},
		}
	}
	return []strategy{
		{name: "standard", multiplier: 2.0},
		{name: "expanded", multiplier: 3.0},
		{name: "full-frame", fullFrame: true},
	}
}

// Estimate recovers the vertical offset of b relative to a. a is the upper
// (earlier) strip. scrollDistance is the physical scroll hint in pixels, 0
// when unknown. The returned estimate is always usable for a merge decision:
// feature strategies that fail escalate through the ladder and finally to
// template matching, which never hard-fails.
func (e *Estimator) Estimate(a, b gocv.Mat, scrollDistance int) Estimate {
	return e.EstimateWithRatio(a, b, scrollDistance, e.cfg.SearchRatio)
}

// EstimateWithRatio is Estimate with an explicit search ratio. The duplicate
// filter probes with a wider ratio than merge-time estimation uses.
func (e *Estimator) EstimateWithRatio(a, b gocv.Mat, scrollDistance int, searchRatio float64) Estimate {
	if a.Empty() || b.Empty() || a.Cols() != b.Cols() {
		return Estimate{Method: MethodFeature}
	}

	for _, s := range e.strategies(scrollDistance) {
		est, err := e.tryFeatures(a, b, s, searchRatio)
		if err != nil {
			e.log.Debug("overlap strategy failed", "strategy", s.name, "err", err)
			continue
		}
		e.log.Debug("overlap found",
			"strategy", s.name, "offset", est.OffsetY, "confidence", est.Confidence)
		return est
	}

	e.log.Debug("feature strategies exhausted, using template fallback")
	return e.templateFallback(a, b, searchRatio)
}

// tryFeatures runs one ladder rung: carve the search regions, extract and
// match features, filter geometrically, and score.
func (e *Estimator) tryFeatures(a, b gocv.Mat, s strategy, searchRatio float64) (Estimate, error) {
	h1, h2 := a.Rows(), b.Rows()
	w := a.Cols()

	var regionStart, region1End, region2End int
	switch {
	case s.centered:
		// The hinted offset says b's top row lands near row `center` of a.
		// Search the band from just above that row to a's bottom, against
		// the corresponding prefix of b.
		regionStart = s.center - s.window
		if regionStart < 0 {
			regionStart = 0
		}
		region1End = h1
		region2End = h1 - s.center + s.window
		if region2End > h2 {
			region2End = h2
		}
	case s.fullFrame:
		regionStart = 0
		region1End = h1
		region2End = h2
	default:
		ratio := searchRatio * s.multiplier
		if ratio < 0.5 {
			ratio = 0.5
		}
		if ratio > 1 {
			ratio = 1
		}
		regionStart = h1 - int(float64(h1)*ratio)
		region1End = h1
		region2End = int(float64(h2) * ratio)
	}
	if region2End <= 0 || region1End <= regionStart {
		return Estimate{}, ErrTooFewKeypoints
	}

	region1 := a.Region(image.Rect(0, regionStart, w, region1End))
	region2 := b.Region(image.Rect(0, 0, w, region2End))
	defer region1.Close()
	defer region2.Close()

	gray1 := toGray(region1)
	gray2 := toGray(region2)
	defer gray1.Close()
	defer gray2.Close()

	kp1, des1, kp2, des2, method := detectAdaptive(gray1, gray2, e.cfg.KeypointBudget)
	defer des1.Close()
	defer des2.Close()

	if len(kp1) < e.cfg.MinMatches || len(kp2) < e.cfg.MinMatches {
		return Estimate{}, ErrTooFewKeypoints
	}
	e.log.Debug("features detected",
		"strategy", s.name, "method", method, "kp1", len(kp1), "kp2", len(kp2))

	good := ratioMatches(kp1, kp2, des1, des2)
	if len(good) < e.cfg.MinMatches {
		return Estimate{}, ErrTooFewMatches
	}

	stats := filterAndEstimate(good, gray1.Rows(), e.cfg.MinMatches)
	if stats.medianDY < float64(e.cfg.MinOffset) {
		return Estimate{}, ErrBackwardScroll
	}

	offset := int(float64(regionStart) + stats.medianDY)
	confidence := scoreConfidence(stats)
	confidence = applyPlausibility(confidence, offset, h1, h2, stats)

	return Estimate{
		OffsetY:     offset,
		Confidence:  confidence,
		Method:      MethodFeature,
		InlierRatio: stats.inlierRatio,
		Valid:       true,
	}, nil
}

// applyPlausibility adjusts a feature-match confidence by how believable the
// implied overlap is. A tiny or enormous overlap is still accepted when the
// match geometry is strong (small final scroll steps legitimately overlap
// almost entirely), but penalized otherwise.
func applyPlausibility(confidence float64, offset, h1, h2 int, s matchStats) float64 {
	overlap := h1 - offset
	if overlap <= 0 {
		return confidence * 0.2
	}
	if h2 <= 0 {
		return confidence
	}

	ratio := float64(overlap) / float64(h2)
	switch {
	// Strictly greater: an exact full-height overlap is judged by the
	// large-overlap rule below, not the containment rule.
	case overlap > h2:
		if s.count >= 50 && s.stdDY < 10 {
			return confidence
		}
		return confidence * 0.3
	case ratio < 0.05:
		return confidence * 0.7
	case ratio > 0.95:
		if s.count >= 30 && s.stdDY < 5 {
			return confidence
		}
		return confidence * 0.6
	}
	return confidence
}
