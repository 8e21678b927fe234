package preprocess

import (
	"gocv.io/x/gocv"
	"image/color"
	"testing"
)

var (
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

func TestLetterBox(t *testing.T) {

	tests := []struct {
		srcWidth      int
		srcHeight     int
		resizeWidth   int
		resizeHeight  int
		expectedXPad  int
		expectedYPad  int
		expectedScale float64
	}{
		{1280, 720, 192, 192, 0, 42, 0.15},
		{800, 1000, 192, 192, 19, 0, 0.192},
		{800, 800, 192, 192, 0, 0, 0.24},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC1)

		resizedImg := gocv.NewMat()

		resizer := NewResizer(tc.srcWidth, tc.srcHeight, tc.resizeWidth, tc.resizeHeight)

		resizer.LetterBox(img, &resizedImg, black)

		if resizer.XPad() != tc.expectedXPad || resizer.YPad() != tc.expectedYPad {
			t.Errorf("Test failed for src (%d, %d): Padding values wrong, expected XPad=%d, YPad=%d, got xPad=%d, yPad=%d",
				tc.srcWidth, tc.srcHeight, tc.expectedXPad, tc.expectedYPad, resizer.XPad(), resizer.YPad())
		}

		if diff := resizer.Scale() - tc.expectedScale; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Test failed for src (%d, %d): Scale incorrect, expected %f, got %f",
				tc.srcWidth, tc.srcHeight, tc.expectedScale, resizer.Scale())
		}

		img.Close()
		resizedImg.Close()
		resizer.Close()
	}
}

func TestMapBack(t *testing.T) {

	// 1280x720 letterboxed into 192x192 gives scale 0.15 and yPad 42, the
	// center of model space must map back to the center of the source
	resizer := NewResizer(1280, 720, 192, 192)
	defer resizer.Close()

	x, y := resizer.MapBack(96, 96)

	if !near(x, 640) || !near(y, 360) {
		t.Errorf("expected center (640, 360), got (%f, %f)", x, y)
	}

	// top left of the letterboxed content maps back to the source origin
	x, y = resizer.MapBack(0, 42)

	if !near(x, 0) || !near(y, 0) {
		t.Errorf("expected origin (0, 0), got (%f, %f)", x, y)
	}
}

// near compares floats within a small epsilon
func near(a, b float64) bool {
	diff := a - b
	return diff < 1e-6 && diff > -1e-6
}
