package overlap

import (
	"image"

	"gocv.io/x/gocv"
)

// The fallback searches the bottom fraction of the upper image and discounts
// its confidence, since correlation is less trustworthy than feature
// geometry.
const (
	templateSearchFraction = 0.6
	templateDiscount       = 0.7
)

// templateFallback recovers an offset by normalized cross-correlation when
// feature matching failed outright. It always returns an estimate; a
// degenerate geometry yields confidence 0.
func (e *Estimator) templateFallback(a, b gocv.Mat, overlapRatio float64) Estimate {
	est := Estimate{Method: MethodTemplate}

	h1, h2 := a.Rows(), b.Rows()
	w := a.Cols()
	minH := h1
	if h2 < minH {
		minH = h2
	}
	if w <= 0 || minH <= 0 || w != b.Cols() {
		return est
	}

	grayA := toGray(a)
	grayB := toGray(b)
	defer grayA.Close()
	defer grayB.Close()

	overlapHeight := int(float64(minH) * overlapRatio)
	if overlapHeight < 50 {
		overlapHeight = minH / 2
		if overlapHeight > 100 {
			overlapHeight = 100
		}
	}
	searchHeight := int(float64(h1) * templateSearchFraction)
	if overlapHeight <= 0 || searchHeight <= overlapHeight {
		return est
	}

	template := grayB.Region(image.Rect(0, 0, w, overlapHeight))
	search := grayA.Region(image.Rect(0, h1-searchHeight, w, h1))
	defer template.Close()
	defer search.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(search, template, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	est.OffsetY = (h1 - searchHeight) + maxLoc.Y
	est.Confidence = clamp01(float64(maxVal) * templateDiscount)
	est.Valid = true

	e.log.Debug("template fallback",
		"offset", est.OffsetY, "score", maxVal, "confidence", est.Confidence)
	return est
}
