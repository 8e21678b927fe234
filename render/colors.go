package render

import (
	"image/color"

	facesense "github.com/clinsight/go-facesense"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Green  = color.RGBA{R: 72, G: 249, B: 10, A: 255}
	Red    = color.RGBA{R: 255, G: 56, B: 56, A: 255}

	// emotionColors maps each emotion label to its overlay color
	emotionColors = map[facesense.Emotion]color.RGBA{
		facesense.Angry:    {R: 255, G: 56, B: 56, A: 255},   // #FF3838
		facesense.Disgust:  {R: 26, G: 147, B: 52, A: 255},   // #1A9334
		facesense.Fear:     {R: 132, G: 56, B: 255, A: 255},  // #8438FF
		facesense.Happy:    {R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		facesense.Sad:      {R: 52, G: 69, B: 147, A: 255},   // #344593
		facesense.Surprise: {R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		facesense.Neutral:  {R: 192, G: 192, B: 192, A: 255}, // #C0C0C0
		facesense.Stressed: {R: 255, G: 112, B: 31, A: 255},  // #FF701F
		facesense.Anxious:  {R: 255, G: 55, B: 199, A: 255},  // #FF37C7
	}

	// groupColors paint the named facial landmark regions
	groupColors = map[string]color.RGBA{
		"left_eye":      {R: 51, G: 153, B: 255, A: 255},
		"right_eye":     {R: 51, G: 153, B: 255, A: 255},
		"left_eyebrow":  {R: 61, G: 219, B: 134, A: 255},
		"right_eyebrow": {R: 61, G: 219, B: 134, A: 255},
		"lips_upper":    {R: 255, G: 0, B: 128, A: 255},
		"lips_lower":    {R: 255, G: 0, B: 128, A: 255},
		"jaw":           {R: 255, G: 191, B: 0, A: 255},
		"nose":          {R: 255, G: 0, B: 0, A: 255},
	}
)

// EmotionColor returns the overlay color for an emotion, defaulting to
// white for labels outside the vocabulary
func EmotionColor(e facesense.Emotion) color.RGBA {

	if clr, ok := emotionColors[e]; ok {
		return clr
	}

	return White
}
