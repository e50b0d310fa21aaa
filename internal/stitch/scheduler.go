package stitch

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"scroll-stitcher/internal/compose"
	"scroll-stitcher/internal/frame"
	"scroll-stitcher/internal/overlap"
)

// element is one operand in a merge round. Input frames are borrowed from
// the caller; composed intermediates are owned and closed once consumed.
type element struct {
	mat    gocv.Mat
	owned  bool
	scroll int
}

func (el *element) release() {
	if el.owned && !el.mat.Empty() {
		el.mat.Close()
	}
}

// runPairwise merges the frame list two-at-a-time, round by round, until one
// canvas remains. Scroll hints apply only in round 0: composed buffers at
// deeper rounds no longer correspond to a single physical scroll step.
func runPairwise(ctx context.Context, estimator *overlap.Estimator, frames []frame.Frame, opts Options) (gocv.Mat, []MergeRecord, error) {
	log := opts.logger()

	elems := make([]element, len(frames))
	for i, f := range frames {
		elems[i] = element{mat: f.Mat, scroll: f.ScrollDistance}
	}

	var trace []MergeRecord
	for level := 0; len(elems) > 1; level++ {
		log.Debug("merge round", "level", level, "operands", len(elems))

		next := make([]element, 0, (len(elems)+1)/2)
		for i := 0; i < len(elems); i += 2 {
			if i+1 >= len(elems) {
				// Odd operand passes through to the next round.
				next = append(next, elems[i])
				break
			}

			if err := ctx.Err(); err != nil {
				releaseAll(elems[i:])
				releaseAll(next)
				return gocv.Mat{}, nil, fmt.Errorf("stitch canceled: %w", err)
			}

			a, b := &elems[i], &elems[i+1]
			scroll := 0
			if level == 0 {
				scroll = b.scroll
			}

			est := estimator.Estimate(a.mat, b.mat, scroll)
			merged, blended, err := mergePair(a.mat, b.mat, est, opts)
			if err != nil {
				releaseAll(elems[i:])
				releaseAll(next)
				return gocv.Mat{}, nil, err
			}
			trace = append(trace, MergeRecord{
				Level:    level,
				Pair:     i / 2,
				Estimate: est,
				Blended:  blended,
			})

			a.release()
			b.release()
			next = append(next, element{mat: merged, owned: true})
		}
		elems = next
	}

	final := elems[0]
	if !final.owned {
		// Single borrowed frame survived every round unmerged.
		return final.mat.Clone(), trace, nil
	}
	return final.mat, trace, nil
}

// runSequential folds frames left to right into one accumulating canvas.
func runSequential(ctx context.Context, estimator *overlap.Estimator, frames []frame.Frame, opts Options) (gocv.Mat, []MergeRecord, error) {
	result := frames[0].Mat.Clone()

	var trace []MergeRecord
	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			result.Close()
			return gocv.Mat{}, nil, fmt.Errorf("stitch canceled: %w", err)
		}

		est := estimator.Estimate(result, frames[i].Mat, frames[i].ScrollDistance)
		merged, blended, err := mergePair(result, frames[i].Mat, est, opts)
		if err != nil {
			result.Close()
			return gocv.Mat{}, nil, err
		}
		trace = append(trace, MergeRecord{Pair: i - 1, Estimate: est, Blended: blended})

		result.Close()
		result = merged
	}
	return result, trace, nil
}

// mergePair composes one pair: blend at the estimated offset when the
// estimate is trusted and geometrically coherent, otherwise append. The
// returned Mat is owned by the caller.
func mergePair(a, b gocv.Mat, est overlap.Estimate, opts Options) (gocv.Mat, bool, error) {
	h1, h2 := a.Rows(), b.Rows()

	if est.Valid && est.Confidence >= opts.MinConfidence {
		overlapPx := h1 - est.OffsetY
		// The blend needs a real overlap and must not shrink the canvas
		// below what a already covers.
		if overlapPx > 0 && est.OffsetY+h2 >= h1 {
			merged, err := compose.Blend(a, b, est.OffsetY, opts.BlendRampRows)
			if err != nil {
				return gocv.Mat{}, false, fmt.Errorf("blend pair: %w", err)
			}
			return merged, true, nil
		}
	}

	merged, err := compose.Append(a, b)
	if err != nil {
		return gocv.Mat{}, false, fmt.Errorf("append pair: %w", err)
	}
	return merged, false, nil
}

func releaseAll(elems []element) {
	for i := range elems {
		elems[i].release()
	}
}
