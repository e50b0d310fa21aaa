package stitch

import (
	"github.com/corona10/goimagehash"

	"scroll-stitcher/internal/frame"
	"scroll-stitcher/internal/overlap"
)

// Duplicate-filter probe tuning. Probes search half the frame height and
// only trust offsets with at least this much confidence.
const (
	dedupSearchRatio   = 0.5
	dedupMinConfidence = 0.3
)

// Perceptual-hash Hamming distances at or below this mark frames as
// identical without running the estimator.
const maxHashDistance = 3

// dedupState computes and caches the pairwise overlap ratios the filter
// rules consume.
type dedupState struct {
	frames    []frame.Frame
	estimator *overlap.Estimator
	hashes    []*goimagehash.ImageHash
	hashed    []bool
}

// filterDuplicates drops redundant consecutive frames. Frame i+1 goes when
// it overlaps frame i heavily and frame i+2 still overlaps frame i (the
// dropped frame added nothing), or unconditionally when it is essentially
// identical to frame i. The filter never drops two non-identical frames in
// a row and never shrinks the list below 2.
func filterDuplicates(frames []frame.Frame, estimator *overlap.Estimator, opts Options) (kept []frame.Frame, dropped []int) {
	if len(frames) <= 2 {
		return frames, nil
	}

	log := opts.logger()
	st := &dedupState{
		frames:    frames,
		estimator: estimator,
		hashes:    make([]*goimagehash.ImageHash, len(frames)),
		hashed:    make([]bool, len(frames)),
	}

	kept = make([]frame.Frame, 0, len(frames))
	prevSkipped := false

	for i := 0; i < len(frames); i++ {
		if i+1 >= len(frames) {
			kept = append(kept, frames[i])
			break
		}

		consecutive := st.overlapRatio(i, i+1)
		identical := consecutive > opts.DuplicateIdentical

		var canSkip bool
		if i+2 < len(frames) {
			skipOne := st.overlapRatio(i, i+2)
			canSkip = consecutive > opts.DuplicateHigh &&
				skipOne > opts.DuplicateLow &&
				(!prevSkipped || identical)
		} else {
			// The last frame has no i+2 partner; only the identical rule
			// may remove it.
			canSkip = identical
		}

		if canSkip && len(frames)-len(dropped)-1 < 2 {
			canSkip = false
		}

		if canSkip {
			log.Debug("dropping duplicate frame",
				"index", frames[i+1].Index, "ratio", consecutive, "identical", identical)
			kept = append(kept, frames[i])
			dropped = append(dropped, frames[i+1].Index)
			prevSkipped = true
			i++ // the dropped frame is consumed
			continue
		}

		prevSkipped = false
		kept = append(kept, frames[i])
	}
	return kept, dropped
}

// overlapRatio returns overlap height divided by the smaller frame height
// for frames i and j, or 0 when no trustworthy offset exists. Near-identical
// frames short-circuit via perceptual hash.
func (st *dedupState) overlapRatio(i, j int) float64 {
	if st.identicalByHash(i, j) {
		return 1.0
	}

	a, b := st.frames[i].Mat, st.frames[j].Mat
	est := st.estimator.EstimateWithRatio(a, b, 0, dedupSearchRatio)
	if !est.Valid || est.Confidence < dedupMinConfidence {
		return 0
	}

	overlapPx := a.Rows() - est.OffsetY
	if overlapPx <= 0 {
		return 0
	}

	minHeight := a.Rows()
	if b.Rows() < minHeight {
		minHeight = b.Rows()
	}
	ratio := float64(overlapPx) / float64(minHeight)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// identicalByHash reports whether two frames hash to nearly the same
// perceptual fingerprint, sparing a full overlap estimate for the common
// stalled-scroll case.
func (st *dedupState) identicalByHash(i, j int) bool {
	hi := st.hash(i)
	hj := st.hash(j)
	if hi == nil || hj == nil {
		return false
	}
	dist, err := hi.Distance(hj)
	if err != nil {
		return false
	}
	return dist <= maxHashDistance
}

func (st *dedupState) hash(i int) *goimagehash.ImageHash {
	if st.hashed[i] {
		return st.hashes[i]
	}
	st.hashed[i] = true

	img, err := frame.ToImage(st.frames[i].Mat)
	if err != nil {
		return nil
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil
	}
	st.hashes[i] = h
	return h
}
