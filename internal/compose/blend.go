// Package compose merges two vertically-overlapping strips into one canvas,
// alpha-blending the seam band.
package compose

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultRampRows is the height of the alpha ramp at a blended seam.
// Empirically tuned.
const DefaultRampRows = 100

// Overlaps at or below this many rows are copied directly; a ramp that short
// only smears the seam.
const minBlendOverlap = 10

// Blend composes a and b onto one canvas, with b's top row placed at row
// offsetY of a. The overlap band is alpha-blended over up to rampRows rows.
// The caller owns the returned Mat. a and b must share width and type.
func Blend(a, b gocv.Mat, offsetY, rampRows int) (gocv.Mat, error) {
	if a.Cols() != b.Cols() {
		return gocv.Mat{}, fmt.Errorf("width mismatch: %d vs %d", a.Cols(), b.Cols())
	}
	if rampRows <= 0 {
		rampRows = DefaultRampRows
	}
	if offsetY < 0 {
		// Estimates may come in a few rows negative when b restarts at or
		// slightly above a's top. Treat that as a restart at row 0.
		offsetY = 0
	}

	h1, h2 := a.Rows(), b.Rows()
	w := a.Cols()
	overlap := h1 - offsetY

	if overlap <= 0 {
		return Append(a, b)
	}

	canvasHeight := offsetY + h2
	canvas := gocv.Zeros(canvasHeight, w, a.Type())

	if offsetY > 0 {
		copyRows(a, 0, offsetY, &canvas, 0)
	}

	if overlap >= h2 {
		// The scroll step was smaller than one frame: b sits entirely
		// inside a's span. Ramp into b, then take b's rows outright.
		blendRows := h2
		if blendRows > rampRows {
			blendRows = rampRows
		}
		blendBand(a, b, &canvas, offsetY, 0, blendRows, h1)

		if blendRows < h2 {
			end := offsetY + h2
			if end > h1 {
				end = h1
			}
			if end > offsetY+blendRows {
				copyRows(b, blendRows, end-offsetY, &canvas, offsetY+blendRows)
			}
		}
		if offsetY+h2 > h1 {
			copyRows(b, h1-offsetY, h2, &canvas, h1)
		}
		return canvas, nil
	}

	// Normal case: the band [offsetY, h1) is shared.
	if overlap > minBlendOverlap {
		blendRows := overlap
		if blendRows > rampRows {
			blendRows = rampRows
		}
		blendBand(a, b, &canvas, offsetY, 0, blendRows, h1)
		if blendRows < overlap {
			copyRows(b, blendRows, overlap, &canvas, offsetY+blendRows)
		}
	} else {
		copyRows(b, 0, overlap, &canvas, offsetY)
	}

	copyRows(b, overlap, h2, &canvas, h1)
	return canvas, nil
}

// blendBand writes rows [0, rows) of the seam: each canvas row at
// canvasY0+y mixes a's row (canvasY0+y) with b's row (bY0+y) using a linear
// ramp from a to b. Rows at or past aLimit are skipped.
func blendBand(a, b gocv.Mat, canvas *gocv.Mat, canvasY0, bY0, rows, aLimit int) {
	w := a.Cols()
	for y := 0; y < rows; y++ {
		rowInA := canvasY0 + y
		rowInB := bY0 + y
		if rowInA >= aLimit || rowInB >= b.Rows() {
			break
		}
		alpha := float64(y) / float64(rows)

		aRow := a.Region(image.Rect(0, rowInA, w, rowInA+1))
		bRow := b.Region(image.Rect(0, rowInB, w, rowInB+1))
		dstRow := canvas.Region(image.Rect(0, rowInA, w, rowInA+1))

		mixed := gocv.NewMat()
		gocv.AddWeighted(aRow, 1-alpha, bRow, alpha, 0, &mixed)
		mixed.CopyTo(&dstRow)

		mixed.Close()
		aRow.Close()
		bRow.Close()
		dstRow.Close()
	}
}

// copyRows copies rows [srcY0, srcY1) of src into dst starting at dstY0.
func copyRows(src gocv.Mat, srcY0, srcY1 int, dst *gocv.Mat, dstY0 int) {
	if srcY1 <= srcY0 {
		return
	}
	w := src.Cols()
	srcView := src.Region(image.Rect(0, srcY0, w, srcY1))
	dstView := dst.Region(image.Rect(0, dstY0, w, dstY0+(srcY1-srcY0)))
	srcView.CopyTo(&dstView)
	srcView.Close()
	dstView.Close()
}
