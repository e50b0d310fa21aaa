package compose

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Append concatenates a then b vertically with no overlap, clipping both to
// the shared minimum width. The caller owns the returned Mat.
func Append(a, b gocv.Mat) (gocv.Mat, error) {
	if a.Empty() || b.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty input image")
	}

	minWidth := a.Cols()
	if b.Cols() < minWidth {
		minWidth = b.Cols()
	}

	aClip := a.Region(image.Rect(0, 0, minWidth, a.Rows()))
	bClip := b.Region(image.Rect(0, 0, minWidth, b.Rows()))
	defer aClip.Close()
	defer bClip.Close()

	dst := gocv.NewMat()
	gocv.Vconcat(aClip, bClip, &dst)
	return dst, nil
}
