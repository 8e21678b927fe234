package facesense

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// EmotionNetParams defines the struct containing the EmotionNet parameters
// to use for emotion classification
type EmotionNetParams struct {
	// InputSize is the square input tensor size of the classifier model
	InputSize int
	// MinConfidence is the minimum dominant class probability below which
	// the frame is treated as having no classifiable face
	MinConfidence float64
}

// DefaultEmotionNetParams returns an instance of EmotionNetParams
// configured with the default values for a FER style CNN with a 64x64
// grayscale input tensor
func DefaultEmotionNetParams() EmotionNetParams {
	return EmotionNetParams{
		InputSize:     64,
		MinConfidence: 0.15,
	}
}

// EmotionNet is an EmotionClassifier backed by a FER style emotion CNN
// loaded through the gocv DNN module.  An EmotionNet instance is not safe
// for concurrent use, wrap it in a Pool to share across sessions
type EmotionNet struct {
	// Params are the model configuration parameters
	Params EmotionNetParams
	net    gocv.Net
}

// NewEmotionNet loads the classifier model from file and returns an
// EmotionNet instance
func NewEmotionNet(modelFile string, p EmotionNetParams) (*EmotionNet, error) {
	net := gocv.ReadNet(modelFile, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load emotion model %s", modelFile)
	}

	return &EmotionNet{
		Params: p,
		net:    net,
	}, nil
}

// Classify runs the emotion model on the image and returns the probability
// distribution over the emotion vocabulary, or nil when the dominant class
// probability falls below the configured minimum
func (e *EmotionNet) Classify(img gocv.Mat) (*ClassifierResult, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty input frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if img.Channels() == 3 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	size := e.Params.InputSize

	blob := gocv.BlobFromImage(gray, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.net.SetInput(blob, "")

	out := e.net.Forward("")
	defer out.Close()

	scores, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("reading classifier output: %w", err)
	}

	if len(scores) < len(Emotions) {
		return nil, fmt.Errorf("classifier output too short, got %d values", len(scores))
	}

	// normalize scores into a probability distribution
	var sum float64

	for i := range Emotions {
		sum += float64(scores[i])
	}

	if sum <= 0 {
		return nil, nil
	}

	probs := make(map[Emotion]float64, len(Emotions))
	dominant := Emotions[0]
	best := 0.0

	for i, emo := range Emotions {
		p := float64(scores[i]) / sum
		probs[emo] = p

		if p > best {
			best = p
			dominant = emo
		}
	}

	if best < e.Params.MinConfidence {
		// distribution too flat to be a face
		return nil, nil
	}

	return &ClassifierResult{
		Dominant:      dominant,
		Confidence:    best,
		Probabilities: probs,
	}, nil
}

// Close releases the model resources
func (e *EmotionNet) Close() error {
	return e.net.Close()
}
