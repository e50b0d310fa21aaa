package frame

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"
)

// NormalizeMode selects how frames of unequal width are brought to the
// shared minimum width before stitching.
type NormalizeMode int

const (
	// NormalizeCrop cuts each frame down to the minimum width.
	NormalizeCrop NormalizeMode = iota
	// NormalizeScale resamples each frame to the minimum width, preserving
	// aspect ratio.
	NormalizeScale
)

// NormalizeWidths returns a new frame list in which every frame has the
// minimum width found in the input. Frames already at that width are cloned
// so the returned list is uniformly owned by the caller. Scroll hints and
// indices carry over.
func NormalizeWidths(frames []Frame, mode NormalizeMode) ([]Frame, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	minWidth := frames[0].Width()
	for _, f := range frames[1:] {
		if w := f.Width(); w < minWidth {
			minWidth = w
		}
	}
	if minWidth <= 0 {
		return nil, fmt.Errorf("degenerate frame width %d", minWidth)
	}

	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		mat, err := normalizeOne(f, minWidth, mode)
		if err != nil {
			for _, g := range out {
				g.Mat.Close()
			}
			return nil, fmt.Errorf("frame %d: %w", f.Index, err)
		}
		nf := New(mat, f.Index).WithScroll(f.ScrollDistance)
		out = append(out, nf)
	}
	return out, nil
}

func normalizeOne(f Frame, width int, mode NormalizeMode) (gocv.Mat, error) {
	if f.Width() == width {
		return f.Mat.Clone(), nil
	}

	switch mode {
	case NormalizeCrop:
		region := f.Mat.Region(image.Rect(0, 0, width, f.Height()))
		defer region.Close()
		return region.Clone(), nil

	case NormalizeScale:
		src, err := ToImage(f.Mat)
		if err != nil {
			return gocv.Mat{}, err
		}
		height := f.Height() * width / f.Width()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
		return FromImage(dst)

	default:
		return gocv.Mat{}, fmt.Errorf("unknown normalize mode %d", mode)
	}
}
