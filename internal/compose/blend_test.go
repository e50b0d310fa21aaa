package compose

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"gocv.io/x/gocv"

	"scroll-stitcher/internal/frame"
)

func solidMat(t *testing.T, w, h int, tone uint8) gocv.Mat {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{tone, tone, tone, 255}}, image.Point{}, draw.Src)
	mat, err := frame.FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	return mat
}

func TestBlendNormalCase(t *testing.T) {
	a := solidMat(t, 300, 400, 100)
	b := solidMat(t, 300, 400, 200)
	defer a.Close()
	defer b.Close()

	// 100px overlap: canvas is 300 offset + 400 from b.
	canvas, err := Blend(a, b, 300, DefaultRampRows)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	defer canvas.Close()

	if canvas.Rows() != 700 || canvas.Cols() != 300 {
		t.Fatalf("canvas = %dx%d, want 300x700", canvas.Cols(), canvas.Rows())
	}

	img, err := frame.ToImage(canvas)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}

	// Above the seam: pure a. Below a's extent: pure b.
	checkTone(t, img, 150, 100, 100, "above seam")
	checkTone(t, img, 150, 500, 200, "below seam")

	// Within the ramp every pixel must lie between the two sources.
	for y := 300; y < 400; y++ {
		r, g, bl, _ := img.At(150, y).RGBA()
		for _, c := range []uint32{r >> 8, g >> 8, bl >> 8} {
			if c < 100 || c > 200 {
				t.Fatalf("row %d: component %d outside [100,200]", y, c)
			}
		}
	}

	// The ramp must actually progress from a toward b.
	early, _, _, _ := img.At(150, 305).RGBA()
	late, _, _, _ := img.At(150, 395).RGBA()
	if early>>8 >= late>>8 {
		t.Errorf("ramp not increasing: row305=%d row395=%d", early>>8, late>>8)
	}
}

func TestBlendNoOverlapDelegatesToAppend(t *testing.T) {
	a := solidMat(t, 200, 300, 50)
	b := solidMat(t, 200, 250, 90)
	defer a.Close()
	defer b.Close()

	canvas, err := Blend(a, b, 300, DefaultRampRows)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	defer canvas.Close()

	if canvas.Rows() != 550 {
		t.Errorf("height = %d, want 550 (plain append)", canvas.Rows())
	}
}

func TestBlendSmallScrollContainment(t *testing.T) {
	// b sits entirely inside a's span: offset 50 with b of height 200
	// against a of height 400.
	a := solidMat(t, 200, 400, 80)
	b := solidMat(t, 200, 200, 160)
	defer a.Close()
	defer b.Close()

	canvas, err := Blend(a, b, 50, DefaultRampRows)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	defer canvas.Close()

	if canvas.Rows() != 250 {
		t.Fatalf("height = %d, want 250 (offset + heightB)", canvas.Rows())
	}

	img, err := frame.ToImage(canvas)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	checkTone(t, img, 100, 25, 80, "rows from a")
	// Past the ramp the band is pure b.
	checkTone(t, img, 100, 200, 160, "rows from b")
}

func TestBlendNegativeOffset(t *testing.T) {
	// Slightly negative offsets survive the estimator's backward-scroll
	// gate; the blend must place b at row 0 instead of reading rows above
	// a's top.
	a := solidMat(t, 300, 400, 100)
	b := solidMat(t, 300, 500, 200)
	defer a.Close()
	defer b.Close()

	canvas, err := Blend(a, b, -5, DefaultRampRows)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	defer canvas.Close()

	if canvas.Rows() != 500 {
		t.Fatalf("height = %d, want 500 (offset clamped to 0)", canvas.Rows())
	}

	img, err := frame.ToImage(canvas)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	// Past a's extent only b contributes.
	checkTone(t, img, 150, 450, 200, "rows past a")
	// Within the ramp every pixel stays between the two sources.
	for y := 0; y < 100; y += 20 {
		r, _, _, _ := img.At(150, y).RGBA()
		if c := r >> 8; c < 100 || c > 200 {
			t.Fatalf("row %d: component %d outside [100,200]", y, c)
		}
	}
}

func TestBlendWidthMismatch(t *testing.T) {
	a := solidMat(t, 300, 200, 10)
	b := solidMat(t, 200, 200, 10)
	defer a.Close()
	defer b.Close()

	if _, err := Blend(a, b, 100, DefaultRampRows); err == nil {
		t.Error("width mismatch must fail")
	}
}

func TestAppendClipsToMinWidth(t *testing.T) {
	a := solidMat(t, 320, 200, 30)
	b := solidMat(t, 300, 150, 70)
	defer a.Close()
	defer b.Close()

	out, err := Append(a, b)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	defer out.Close()

	if out.Cols() != 300 || out.Rows() != 350 {
		t.Errorf("out = %dx%d, want 300x350", out.Cols(), out.Rows())
	}
}

func TestAppendEmptyInput(t *testing.T) {
	a := solidMat(t, 100, 100, 0)
	defer a.Close()
	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := Append(a, empty); err == nil {
		t.Error("empty input must fail")
	}
}

func checkTone(t *testing.T, img image.Image, x, y int, want uint32, what string) {
	t.Helper()
	r, _, _, _ := img.At(x, y).RGBA()
	got := r >> 8
	if got != want {
		t.Errorf("%s: pixel (%d,%d) = %d, want %d", what, x, y, got, want)
	}
}
