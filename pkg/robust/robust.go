// Package robust provides outlier-resistant statistics used by the
// overlap estimator. All functions are safe on short or empty inputs.
package robust

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

const (
	// Scale factor relating MAD to the standard deviation of a normal
	// distribution (1/1.4826).
	madScale = 0.6745

	// Modified z-scores above this magnitude mark a sample as an outlier.
	zScoreMax = 3.5
)

// Median returns the median of xs, or 0 for an empty slice.
func Median(xs []float64) float64 {
	m, err := stats.Median(xs)
	if err != nil {
		return 0
	}
	return m
}

// MAD returns the median absolute deviation of xs, or 0 for an empty slice.
func MAD(xs []float64) float64 {
	m, err := stats.MedianAbsoluteDeviation(xs)
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	sd, err := stats.StandardDeviation(xs)
	if err != nil {
		return 0
	}
	return sd
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// ModifiedZInliers classifies each sample by its modified z-score
// (madScale * (x - median) / MAD). A MAD of zero means the samples are
// essentially identical, so every sample is an inlier.
func ModifiedZInliers(xs []float64) []bool {
	mask := make([]bool, len(xs))
	if len(xs) == 0 {
		return mask
	}
	med := Median(xs)
	mad := MAD(xs)
	if mad == 0 {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	for i, x := range xs {
		z := madScale * (x - med) / mad
		mask[i] = math.Abs(z) < zScoreMax
	}
	return mask
}

// InterquartileBand returns the samples falling inside the interquartile
// range, sorted ascending. Used as a fallback when the modified z-score
// filter leaves too few inliers.
func InterquartileBand(xs []float64) []float64 {
	if len(xs) < 4 {
		out := append([]float64(nil), xs...)
		sort.Float64s(out)
		return out
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	band := make([]float64, 0, len(sorted)/2)
	for _, x := range sorted {
		if x >= q1 && x <= q3 {
			band = append(band, x)
		}
	}
	if len(band) == 0 {
		return sorted
	}
	return band
}
