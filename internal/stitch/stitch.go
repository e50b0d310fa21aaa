// Package stitch assembles overlapping scroll-capture strips into one tall
// image. The pipeline filters redundant frames, estimates pairwise vertical
// offsets with feature matching (falling back to template correlation), and
// composes accepted pairs with an alpha-blended seam. It always produces a
// result for non-degenerate input: pairs whose offset cannot be trusted are
// appended instead of blended.
package stitch

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"scroll-stitcher/internal/frame"
	"scroll-stitcher/internal/overlap"
)

// Contract violations. Everything else the pipeline degrades through
// internally.
var (
	// ErrNoFrames is returned for an empty input list.
	ErrNoFrames = errors.New("no frames to stitch")
	// ErrWidthMismatch is returned when input frames differ in width.
	// Callers normalize widths beforehand (see frame.NormalizeWidths).
	ErrWidthMismatch = errors.New("frame widths differ")
)

// MergeRecord traces one pair merge for diagnostics and testing.
type MergeRecord struct {
	// Level is the recursion depth of the pairwise scheduler (always 0 for
	// the sequential strategy).
	Level int
	// Pair is the pair index within its level.
	Pair int
	// Estimate is the offset estimate the merge decision was based on.
	Estimate overlap.Estimate
	// Blended reports whether the pair was blended at the estimated offset
	// rather than appended.
	Blended bool
}

// Result is the composed image plus the per-merge diagnostic trace.
type Result struct {
	// Image is the final canvas. The caller owns it and must Close it.
	Image gocv.Mat
	// Trace lists every pair merge in execution order.
	Trace []MergeRecord
	// Dropped lists the sequence indices removed by the duplicate filter.
	Dropped []int
}

// Stitch runs the full pipeline over the ordered frame list. Input frames
// are read-only; all intermediate buffers are released before returning.
// Cancellation is honored between pair merges.
func Stitch(ctx context.Context, frames []frame.Frame, opts Options) (*Result, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	width := frames[0].Width()
	for _, f := range frames[1:] {
		if f.Width() != width {
			return nil, fmt.Errorf("%w: %d vs %d (frame %d)",
				ErrWidthMismatch, width, f.Width(), f.Index)
		}
	}

	log := opts.logger()

	if len(frames) == 1 {
		return &Result{Image: frames[0].Mat.Clone()}, nil
	}

	estimator := overlap.NewEstimator(opts.estimatorConfig())

	var dropped []int
	if opts.FilterDuplicates && len(frames) > 2 {
		frames, dropped = filterDuplicates(frames, estimator, opts)
		if len(dropped) > 0 {
			log.Info("duplicate frames dropped", "count", len(dropped), "indices", dropped)
		}
		if len(frames) == 1 {
			return &Result{Image: frames[0].Mat.Clone(), Dropped: dropped}, nil
		}
	}

	var (
		final gocv.Mat
		trace []MergeRecord
		err   error
	)
	switch opts.Strategy {
	case StrategySequential:
		final, trace, err = runSequential(ctx, estimator, frames, opts)
	default:
		final, trace, err = runPairwise(ctx, estimator, frames, opts)
	}
	if err != nil {
		return nil, err
	}

	log.Info("stitch complete",
		"frames", len(frames), "merges", len(trace),
		"width", final.Cols(), "height", final.Rows())

	return &Result{Image: final, Trace: trace, Dropped: dropped}, nil
}

// Close releases the composed image.
func (r *Result) Close() {
	if r != nil && !r.Image.Empty() {
		r.Image.Close()
	}
}
