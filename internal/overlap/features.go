package overlap

import (
	"gocv.io/x/gocv"
)

// Texture scores below this trigger the enhanced detector configuration.
const richTextureThreshold = 0.3

// textureScore rates the local contrast of a grayscale region in [0,1] from
// the variance of its Laplacian response.
func textureScore(gray gocv.Mat) float64 {
	if gray.Empty() {
		return 0
	}

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	stddev := gocv.NewMat()
	defer mean.Close()
	defer stddev.Close()
	gocv.MeanStdDev(lap, &mean, &stddev)

	sd := stddev.GetDoubleAt(0, 0)
	score := sd * sd / 1000.0
	if score > 1 {
		score = 1
	}
	return score
}

// detectAdaptive extracts ORB keypoints and descriptors from both regions,
// picking the detector configuration from the average texture score. Sparse
// regions (solid colors, gradients) are contrast-enhanced first and scanned
// with a larger budget, finer scale steps and lower thresholds. The caller
// owns the returned descriptor Mats.
func detectAdaptive(gray1, gray2 gocv.Mat, budget int) (kp1 []gocv.KeyPoint, des1 gocv.Mat, kp2 []gocv.KeyPoint, des2 gocv.Mat, method string) {
	if gray1.Empty() || gray2.Empty() {
		return nil, gocv.NewMat(), nil, gocv.NewMat(), "none"
	}

	texture := (textureScore(gray1) + textureScore(gray2)) / 2

	if texture > richTextureThreshold {
		orb := gocv.NewORBWithParams(budget, 1.2, 8, 10, 0, 2, gocv.ORBScoreTypeHarris, 31, 15)
		defer orb.Close()

		mask := gocv.NewMat()
		defer mask.Close()
		kp1, des1 = orb.DetectAndCompute(gray1, mask)
		kp2, des2 = orb.DetectAndCompute(gray2, mask)
		return kp1, des1, kp2, des2, "orb"
	}

	// Sparse texture: equalize first, then detect with a more sensitive
	// configuration.
	eq1 := gocv.NewMat()
	eq2 := gocv.NewMat()
	defer eq1.Close()
	defer eq2.Close()
	gocv.EqualizeHist(gray1, &eq1)
	gocv.EqualizeHist(gray2, &eq2)

	orb := gocv.NewORBWithParams(budget*3/2, 1.15, 10, 5, 0, 2, gocv.ORBScoreTypeHarris, 31, 10)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	kp1, des1 = orb.DetectAndCompute(eq1, mask)
	kp2, des2 = orb.DetectAndCompute(eq2, mask)
	return kp1, des1, kp2, des2, "orb-enhanced"
}

// toGray returns a single-channel copy of img. The caller owns the result.
func toGray(img gocv.Mat) gocv.Mat {
	if img.Channels() == 1 {
		return img.Clone()
	}
	code := gocv.ColorBGRToGray
	if img.Channels() == 4 {
		code = gocv.ColorBGRAToGray
	}
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, code)
	return gray
}
