package frame

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// FromImage converts a Go image into a BGR Mat suitable for the pipeline.
func FromImage(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("image to mat: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// ToImage converts a Mat back into a Go image.
func ToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	return img, nil
}
