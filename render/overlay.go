package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/clinsight/go-facesense/fusion"
	"github.com/clinsight/go-facesense/microsignal"
)

const (
	// overlay layout in pixels
	overlayMargin = 10
	barWidth      = 160
	barHeight     = 12
	lineSpacing   = 8
)

// AnalysisOverlay renders the fused frame analysis as a HUD in the top left
// corner of the image, the dominant emotion label, one bar per composite
// score and the names of the micro-expressions that fired
func AnalysisOverlay(img *gocv.Mat, fa fusion.FrameAnalysis, font Font) {

	x := overlayMargin
	y := overlayMargin

	if !fa.FaceDetected {
		y += drawLabel(img, "no face", Black, font, x, y)
		return
	}

	label := fmt.Sprintf("%s %.2f", strings.ToUpper(string(fa.Emotion.Dominant)),
		fa.Emotion.Confidence)
	y += drawLabel(img, label, EmotionColor(fa.Emotion.Dominant), font, x, y)
	y += lineSpacing

	y += drawBar(img, "stress", fa.Scores.Stress, stressColor(fa.Scores.Stress), font, x, y)
	y += drawBar(img, "anxiety", fa.Scores.Anxiety, Yellow, font, x, y)
	y += drawBar(img, "engagement", fa.Scores.Engagement, Green, font, x, y)

	// detected micro-expressions in the fixed signal order
	for _, sig := range microsignal.Order {
		reading, ok := fa.MicroExpressions[sig]

		if !ok {
			continue
		}

		text := string(sig)

		if sig == microsignal.BlinkRate {
			text = fmt.Sprintf("%s %.0f/min", sig, reading.RatePerMin)
		}

		y += lineSpacing
		y += drawLabel(img, text, Black, font, x, y)
	}
}

// drawLabel draws text over a filled background box at the given top left
// position and returns the height consumed
func drawLabel(img *gocv.Mat, text string, bg color.RGBA, font Font, x, y int) int {

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	boxHeight := textSize.Y + font.TopPad + font.BottomPad

	bRect := image.Rect(x, y, x+textSize.X+font.LeftPad+font.RightPad, y+boxHeight)
	gocv.Rectangle(img, bRect, bg, -1)

	textPos := image.Pt(x+font.LeftPad, y+font.TopPad+textSize.Y)
	gocv.PutTextWithParams(img, text, textPos, font.Face, font.Scale, font.Color,
		font.Thickness, font.LineType, false)

	return boxHeight
}

// drawBar draws one labeled score bar filled proportionally to the score
// and returns the height consumed
func drawBar(img *gocv.Mat, name string, score float64, clr color.RGBA,
	font Font, x, y int) int {

	outline := image.Rect(x, y, x+barWidth, y+barHeight)
	gocv.Rectangle(img, outline, White, 1)

	fill := int(score * float64(barWidth))

	if fill > 0 {
		gocv.Rectangle(img, image.Rect(x, y, x+fill, y+barHeight), clr, -1)
	}

	text := fmt.Sprintf("%s %.2f", name, score)
	textPos := image.Pt(x+barWidth+font.LeftPad, y+barHeight-2)
	gocv.PutTextWithParams(img, text, textPos, font.Face, font.Scale, font.Color,
		font.Thickness, font.LineType, false)

	return barHeight + lineSpacing
}

// stressColor maps the stress score bands onto traffic light colors
func stressColor(stress float64) color.RGBA {

	if stress < 0.3 {
		return Green
	}

	if stress < 0.7 {
		return Yellow
	}

	return Red
}
