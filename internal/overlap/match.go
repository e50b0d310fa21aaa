package overlap

import (
	"gocv.io/x/gocv"
)

// Ratio-test threshold recommended by Lowe for nearest/second-nearest
// descriptor distances.
const loweRatio = 0.75

// candidate pairs a keypoint in the upper region with one in the lower
// region, in region-local coordinates.
type candidate struct {
	ax, ay   float64
	bx, by   float64
	distance float64
}

// ratioMatches finds the two nearest neighbors in des2 for each descriptor
// in des1 and keeps pairs passing the ratio test.
func ratioMatches(kp1, kp2 []gocv.KeyPoint, des1, des2 gocv.Mat) []candidate {
	if des1.Empty() || des2.Empty() || des2.Rows() < 2 {
		return nil
	}

	matcher := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer matcher.Close()

	pairs := matcher.KnnMatch(des1, des2, 2)

	var good []candidate
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		best, second := pair[0], pair[1]
		if best.Distance >= loweRatio*second.Distance {
			continue
		}
		if best.QueryIdx >= len(kp1) || best.TrainIdx >= len(kp2) {
			continue
		}
		a := kp1[best.QueryIdx]
		b := kp2[best.TrainIdx]
		good = append(good, candidate{
			ax: a.X, ay: a.Y,
			bx: b.X, by: b.Y,
			distance: best.Distance,
		})
	}
	return good
}
