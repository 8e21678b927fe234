package facesense

import (
	"gocv.io/x/gocv"
)

// LandmarkExtractor produces a fixed size set of facial landmark points
// from an image.  A nil LandmarkSet with a nil error means no face was
// found, which is an expected and frequent outcome, not a failure.
type LandmarkExtractor interface {
	Extract(img gocv.Mat) (*LandmarkSet, error)
}

// EmotionClassifier produces a categorical probability distribution over
// the emotion vocabulary from an image.  A nil ClassifierResult with a nil
// error means the classifier found no face, independently of the landmark
// extractor's own detection.
type EmotionClassifier interface {
	Classify(img gocv.Mat) (*ClassifierResult, error)
}
