// Package render draws facial landmarks and the live analysis overlay onto
// video frames using GoCV.
package render

import (
	"image"

	"gocv.io/x/gocv"

	facesense "github.com/clinsight/go-facesense"
)

// FaceLandmarks renders the named facial regions of a landmark set as
// colored dots
func FaceLandmarks(img *gocv.Mat, lm *facesense.LandmarkSet, radius int) {

	if lm == nil {
		return
	}

	for name, clr := range groupColors {
		for _, pt := range lm.Group(name) {
			gocv.Circle(img, image.Pt(int(pt.X), int(pt.Y)), radius, clr, -1)
		}
	}
}

// FaceOutline renders the face outline polygon used to derive the emotion
// classifier crop
func FaceOutline(img *gocv.Mat, lm *facesense.LandmarkSet, lineThickness int) {

	if lm == nil {
		return
	}

	outline := lm.Outline()

	for i, pt := range outline {
		next := outline[(i+1)%len(outline)]
		gocv.Line(img, pt, next, Yellow, lineThickness)
	}
}
