// Package frame defines the captured-strip type handed to the stitching
// pipeline and helpers for getting pixel data in and out of gocv.
package frame

import (
	"gocv.io/x/gocv"
)

// Frame is one captured strip of a scrolled window. The Mat is owned by the
// caller and is never written to by the pipeline.
type Frame struct {
	Mat   gocv.Mat
	Index int

	// ScrollDistance is the physical scroll amount in pixels since the
	// previous frame, or 0 when unknown. Raw scroll distances overstate the
	// actual pixel displacement; the estimator scales them before use.
	ScrollDistance int
}

// New wraps a Mat as a frame with the given sequence index.
func New(mat gocv.Mat, index int) Frame {
	return Frame{Mat: mat, Index: index}
}

// WithScroll returns a copy of the frame carrying a scroll-distance hint.
func (f Frame) WithScroll(px int) Frame {
	f.ScrollDistance = px
	return f
}

// Width returns the frame width in pixels.
func (f Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels.
func (f Frame) Height() int { return f.Mat.Rows() }
