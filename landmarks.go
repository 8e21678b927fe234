package facesense

import "image"

// FaceMeshPoints is the fixed number of landmark points produced by a
// FaceMesh style landmark model
const FaceMeshPoints = 468

// Point is a single tracked anatomical point on a face.  X and Y are in
// source image pixel space, Z is relative depth
type Point struct {
	X, Y, Z float64
}

// LandmarkSet is an ordered fixed length collection of facial landmark
// points indexed by the FaceMesh anatomical scheme.  A LandmarkSet is
// either fully populated (face detected) or absent, never partial
type LandmarkSet [FaceMeshPoints]Point

// Named landmark indices for key anatomical points in the FaceMesh scheme.
// The analysis packages treat these as an externally fixed contract, if a
// model with a different indexing is used, adapt this table and the group
// table below, not the analysis logic.
const (
	IdxForehead      = 10
	IdxChin          = 152
	IdxLeftBrowTop   = 70
	IdxRightBrowTop  = 300
	IdxLeftEyeTop    = 159
	IdxRightEyeTop   = 386
	IdxLeftEyeOuter  = 33
	IdxRightEyeOuter = 263
	IdxUpperLipTop   = 0
	IdxUpperLipInner = 13
	IdxLowerLipInner = 14
	IdxMouthLeft     = 61
	IdxMouthRight    = 291
	IdxJawLeft       = 172
	IdxJawRight      = 397
)

// LeftEyeContour holds the six left eye landmarks used for the eye aspect
// ratio calculation, ordered outer corner, two upper, inner corner,
// two lower
var LeftEyeContour = [6]int{33, 160, 158, 133, 153, 144}

// Groups maps a named facial region to its landmark indices
var Groups = map[string][]int{
	"left_eye":      {33, 160, 158, 133, 153, 144},
	"right_eye":     {362, 385, 387, 263, 373, 380},
	"left_eyebrow":  {46, 53, 52, 65, 55},
	"right_eyebrow": {276, 283, 282, 295, 285},
	"lips_upper":    {61, 185, 40, 39, 37, 0, 267, 269, 270, 409, 291},
	"lips_lower":    {146, 91, 181, 84, 17, 314, 405, 321, 375, 291},
	"jaw":           {172, 136, 150, 149, 176, 148, 152, 377, 400, 378, 379},
	"nose":          {1, 2, 98, 327},
}

// Group returns the points of a named facial region, or nil when the group
// name is unknown
func (l *LandmarkSet) Group(name string) []Point {
	indices, ok := Groups[name]

	if !ok {
		return nil
	}

	pts := make([]Point, len(indices))

	for i, idx := range indices {
		pts[i] = l[idx]
	}

	return pts
}

// Outline returns the face outline polygon in integer pixel coordinates,
// built from the jaw contour plus the forehead point.  It is used to derive
// the classifier crop region
func (l *LandmarkSet) Outline() []image.Point {
	indices := Groups["jaw"]
	pts := make([]image.Point, 0, len(indices)+1)

	for _, idx := range indices {
		pts = append(pts, image.Pt(int(l[idx].X), int(l[idx].Y)))
	}

	pts = append(pts, image.Pt(int(l[IdxForehead].X), int(l[IdxForehead].Y)))

	return pts
}
