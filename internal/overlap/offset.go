package overlap

import (
	"math"

	"scroll-stitcher/pkg/robust"
)

// matchStats summarizes the geometric filtering of a candidate set. It feeds
// the confidence scorer and the offset computation.
type matchStats struct {
	medianDY     float64 // vertical offset in region-local rows
	stdDY        float64
	inlierRatio  float64
	xMedian      float64
	xStd         float64
	count        int // matches surviving the horizontal-drift filter
	meanDistance float64
	penalty      float64 // confidence multiplier from degraded filtering
	coverage     float64 // fraction of the region height spanned by matches
}

// filterAndEstimate rejects matches inconsistent with pure vertical
// translation and computes a robust vertical offset. It never fails: when
// filters leave too few points it degrades by widening the inlier set and
// recording a confidence penalty.
func filterAndEstimate(cands []candidate, regionHeight, minMatches int) matchStats {
	s := matchStats{penalty: 1.0}
	if len(cands) == 0 {
		return s
	}

	// Horizontal drift should be near zero when the window only scrolled
	// vertically. Drop matches whose dx strays from the median.
	dx := make([]float64, len(cands))
	for i, c := range cands {
		dx[i] = c.ax - c.bx
	}
	s.xMedian = robust.Median(dx)
	s.xStd = robust.StdDev(dx)

	gate := 3 * math.Max(s.xStd, 5)
	kept := make([]candidate, 0, len(cands))
	for i, c := range cands {
		if math.Abs(dx[i]-s.xMedian) < gate {
			kept = append(kept, c)
		}
	}
	if len(kept) < minMatches {
		kept = cands
		s.penalty = 0.5
	}
	s.count = len(kept)

	dy := make([]float64, len(kept))
	dist := make([]float64, len(kept))
	aY := make([]float64, len(kept))
	for i, c := range kept {
		dy[i] = c.ay - c.by
		dist[i] = c.distance
		aY[i] = c.ay
	}
	s.meanDistance = robust.Mean(dist)

	switch {
	case len(dy) >= 4:
		mask := robust.ModifiedZInliers(dy)
		inliers := make([]float64, 0, len(dy))
		for i, in := range mask {
			if in {
				inliers = append(inliers, dy[i])
			}
		}
		if len(inliers) >= 3 {
			s.medianDY = robust.Median(inliers)
			s.stdDY = robust.StdDev(inliers)
			s.inlierRatio = float64(len(inliers)) / float64(len(dy))
		} else {
			band := robust.InterquartileBand(dy)
			s.medianDY = robust.Median(band)
			s.stdDY = robust.StdDev(band)
			s.inlierRatio = 0.5
		}
	default:
		s.medianDY = robust.Median(dy)
		s.stdDY = robust.StdDev(dy)
		s.inlierRatio = 1.0
	}

	if regionHeight > 0 && len(aY) > 0 {
		minY, maxY := aY[0], aY[0]
		for _, y := range aY[1:] {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		s.coverage = (maxY - minY) / float64(regionHeight)
	}
	return s
}
