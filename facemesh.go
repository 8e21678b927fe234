package facesense

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/clinsight/go-facesense/preprocess"
	"gocv.io/x/gocv"
)

// FaceMeshParams defines the struct containing the FaceMesh parameters to
// use for landmark extraction
type FaceMeshParams struct {
	// InputSize is the square input tensor size of the landmark model
	InputSize int
	// ScoreThreshold is the minimum face presence score required to treat
	// the frame as containing a face
	ScoreThreshold float64
	// LandmarkOutput is the name of the model output layer holding the
	// flattened landmark coordinates
	LandmarkOutput string
	// ScoreOutput is the name of the model output layer holding the face
	// presence score logit
	ScoreOutput string
}

// DefaultFaceMeshParams returns an instance of FaceMeshParams configured
// with the default values for a 468 point FaceMesh model with a 192x192
// input tensor
func DefaultFaceMeshParams() FaceMeshParams {
	return FaceMeshParams{
		InputSize:      192,
		ScoreThreshold: 0.5,
		LandmarkOutput: "conv2d_21",
		ScoreOutput:    "conv2d_31",
	}
}

// FaceMesh is a LandmarkExtractor backed by a FaceMesh style landmark model
// loaded through the gocv DNN module.  A FaceMesh instance is not safe for
// concurrent use, wrap it in a Pool to share across sessions
type FaceMesh struct {
	// Params are the model configuration parameters
	Params FaceMeshParams
	net    gocv.Net
}

// NewFaceMesh loads the landmark model from file and returns a FaceMesh
// extractor instance
func NewFaceMesh(modelFile string, p FaceMeshParams) (*FaceMesh, error) {
	net := gocv.ReadNet(modelFile, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load landmark model %s", modelFile)
	}

	return &FaceMesh{
		Params: p,
		net:    net,
	}, nil
}

// Extract runs the landmark model on the image and returns the landmark
// set in source image pixel coordinates, or nil when no face is present
func (f *FaceMesh) Extract(img gocv.Mat) (*LandmarkSet, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty input frame")
	}

	size := f.Params.InputSize

	resizer := preprocess.NewResizer(img.Cols(), img.Rows(), size, size)
	defer resizer.Close()

	boxed := gocv.NewMat()
	defer boxed.Close()

	resizer.LetterBox(img, &boxed, color.RGBA{})

	// model expects RGB input normalized to [0,1]
	blob := gocv.BlobFromImage(boxed, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	f.net.SetInput(blob, "")

	outs := f.net.ForwardLayers([]string{f.Params.LandmarkOutput, f.Params.ScoreOutput})

	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	if len(outs) != 2 {
		return nil, fmt.Errorf("unexpected model output count %d", len(outs))
	}

	scores, err := outs[1].DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("reading face score output: %w", err)
	}

	if len(scores) < 1 || sigmoid(float64(scores[0])) < f.Params.ScoreThreshold {
		// no face in frame
		return nil, nil
	}

	coords, err := outs[0].DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("reading landmark output: %w", err)
	}

	if len(coords) < FaceMeshPoints*3 {
		return nil, fmt.Errorf("landmark output too short, got %d values", len(coords))
	}

	var lm LandmarkSet

	for i := 0; i < FaceMeshPoints; i++ {
		x, y := resizer.MapBack(float64(coords[i*3]), float64(coords[i*3+1]))

		lm[i] = Point{
			X: x,
			Y: y,
			Z: float64(coords[i*3+2]),
		}
	}

	return &lm, nil
}

// Close releases the model resources
func (f *FaceMesh) Close() error {
	return f.net.Close()
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
