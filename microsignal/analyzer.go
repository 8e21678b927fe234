package microsignal

import (
	"errors"
	"math"

	facesense "github.com/clinsight/go-facesense"
)

// ErrUnavailable tags a geometric computation that could not be made, such
// as a zero reference distance on degenerate geometry.  It distinguishes
// "computation failed" from "computation legitimately found low intensity"
var ErrUnavailable = errors.New("microsignal: computation unavailable")

// Analyzer computes micro-expression signals from landmark geometry.  It
// owns the session scoped temporal buffers (blink window, recent signal
// history) and must only be used by one session, serialized per frame
type Analyzer struct {
	p       Params
	blinks  *boolRing
	history *frameRing
}

// NewAnalyzer returns an Analyzer with the given parameters.  Zero window
// sizes and frame rate fall back to defaults
func NewAnalyzer(p Params) *Analyzer {
	def := DefaultParams()

	if p.BlinkWindow <= 0 {
		p.BlinkWindow = def.BlinkWindow
	}

	if p.HistoryWindow <= 0 {
		p.HistoryWindow = def.HistoryWindow
	}

	if p.FPS <= 0 {
		p.FPS = def.FPS
	}

	return &Analyzer{
		p:       p,
		blinks:  newBoolRing(p.BlinkWindow),
		history: newFrameRing(p.HistoryWindow),
	}
}

// Analyze computes all signals for one frame.  A signal whose geometry is
// unavailable yields the zero reading (detected false, intensity 0,
// confidence 0) rather than an error, partial failures are expected per
// frame on real camera input
func (a *Analyzer) Analyze(lm *facesense.LandmarkSet, timestamp float64) map[Signal]MicroSignal {

	if lm == nil {
		return map[Signal]MicroSignal{}
	}

	out := make(map[Signal]MicroSignal, len(Order))

	out[EyebrowRaise] = take(a.eyebrowRaise(lm))
	out[LipPress] = take(a.lipPress(lm))
	out[BlinkRate] = take(a.blinkRate(lm))
	out[EyeWidening] = take(a.eyeWidening(lm))
	out[JawTension] = take(a.jawTension(lm))
	out[MicroSmile] = take(a.microSmile(lm))

	a.history.Push(frameSnapshot{
		Timestamp: timestamp,
		Signals:   out,
	})

	return out
}

// take maps an unavailable computation onto the zero reading
func take(s MicroSignal, err error) MicroSignal {
	if err != nil {
		return MicroSignal{}
	}

	return s
}

// eyebrowRaise measures the average eyebrow to eye distance normalized by
// face height
func (a *Analyzer) eyebrowRaise(lm *facesense.LandmarkSet) (MicroSignal, error) {

	left := dist(lm[facesense.IdxLeftBrowTop], lm[facesense.IdxLeftEyeTop])
	right := dist(lm[facesense.IdxRightBrowTop], lm[facesense.IdxRightEyeTop])

	faceHeight := dist(lm[facesense.IdxForehead], lm[facesense.IdxChin])

	if faceHeight <= 0 {
		return MicroSignal{}, ErrUnavailable
	}

	norm := ((left + right) / 2) / faceHeight

	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return MicroSignal{}, ErrUnavailable
	}

	return MicroSignal{
		Detected:   norm > a.p.EyebrowRaiseThreshold,
		Intensity:  clamp01(norm / a.p.EyebrowRaiseThreshold),
		Confidence: a.p.EyebrowConfidence,
	}, nil
}

// lipPress measures the vertical lip gap relative to mouth width, a
// narrower gap indicates compression
func (a *Analyzer) lipPress(lm *facesense.LandmarkSet) (MicroSignal, error) {

	gap := dist(lm[facesense.IdxUpperLipInner], lm[facesense.IdxLowerLipInner])
	width := dist(lm[facesense.IdxMouthLeft], lm[facesense.IdxMouthRight])

	if width <= 0 {
		return MicroSignal{}, ErrUnavailable
	}

	norm := gap / width

	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return MicroSignal{}, ErrUnavailable
	}

	return MicroSignal{
		Detected:   norm < a.p.LipPressThreshold,
		Intensity:  clamp01((a.p.LipPressThreshold - norm) / a.p.LipPressThreshold),
		Confidence: a.p.LipConfidence,
	}, nil
}

// blinkRate appends the per frame blink flag to the rolling window and
// extrapolates the window occupancy to blinks per minute using the
// configured frame rate
func (a *Analyzer) blinkRate(lm *facesense.LandmarkSet) (MicroSignal, error) {

	ear, err := a.ear(lm)

	if err != nil {
		return MicroSignal{}, err
	}

	a.blinks.Push(ear < a.p.BlinkEARThreshold)

	rate := float64(a.blinks.Count()) / float64(a.blinks.Len()) * a.p.FPS * 60

	return MicroSignal{
		Detected:   rate > a.p.ElevatedBlinkRate,
		Confidence: a.p.BlinkConfidence,
		RatePerMin: rate,
	}, nil
}

// eyeWidening flags the opposite tail of the eye aspect ratio from
// blinking, intensity scales with how far above baseline the value sits
func (a *Analyzer) eyeWidening(lm *facesense.LandmarkSet) (MicroSignal, error) {

	ear, err := a.ear(lm)

	if err != nil {
		return MicroSignal{}, err
	}

	intensity := 0.0

	if ear > a.p.BaselineEAR {
		intensity = clamp01((ear - a.p.BaselineEAR) / a.p.WidenEARSpan)
	}

	return MicroSignal{
		Detected:   ear > a.p.WidenEARThreshold,
		Intensity:  intensity,
		Confidence: a.p.WidenConfidence,
	}, nil
}

// jawTension measures the jaw height to width ratio, a lower ratio means a
// more compressed, clenched jaw
func (a *Analyzer) jawTension(lm *facesense.LandmarkSet) (MicroSignal, error) {

	leftJaw := lm[facesense.IdxJawLeft]
	rightJaw := lm[facesense.IdxJawRight]
	chin := lm[facesense.IdxChin]

	width := dist(leftJaw, rightJaw)

	if width <= 0 {
		return MicroSignal{}, ErrUnavailable
	}

	center := facesense.Point{
		X: (leftJaw.X + rightJaw.X) / 2,
		Y: (leftJaw.Y + rightJaw.Y) / 2,
	}

	ratio := dist(chin, center) / width

	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return MicroSignal{}, ErrUnavailable
	}

	intensity := 0.0

	if ratio < a.p.JawRatioBaseline {
		intensity = clamp01((a.p.JawRatioBaseline - ratio) / a.p.JawRatioSpan)
	}

	return MicroSignal{
		Detected:   ratio < a.p.JawRatioBaseline,
		Intensity:  intensity,
		Confidence: a.p.JawConfidence,
	}, nil
}

// microSmile measures the vertical displacement of the mouth corners
// relative to the upper lip.  Classifying a detected smile as genuine
// rather than social needs temporal eye crinkle tracking which is not
// implemented, so the type is always "social"
func (a *Analyzer) microSmile(lm *facesense.LandmarkSet) (MicroSignal, error) {

	leftCorner := lm[facesense.IdxMouthLeft]
	rightCorner := lm[facesense.IdxMouthRight]
	upperLip := lm[facesense.IdxUpperLipTop]

	cornerY := (leftCorner.Y + rightCorner.Y) / 2
	lift := upperLip.Y - cornerY

	if math.IsNaN(lift) || math.IsInf(lift, 0) {
		return MicroSignal{}, ErrUnavailable
	}

	intensity := 0.0

	if lift > 0 {
		intensity = clamp01(lift / a.p.SmileLiftSpan)
	}

	return MicroSignal{
		Detected:   lift > a.p.SmileLiftThreshold,
		Intensity:  intensity,
		Confidence: a.p.SmileConfidence,
		SmileType:  "social",
	}, nil
}

// ear calculates the eye aspect ratio, the ratio of vertical to horizontal
// eye opening, from the left eye contour
func (a *Analyzer) ear(lm *facesense.LandmarkSet) (float64, error) {

	c := facesense.LeftEyeContour

	v1 := dist(lm[c[1]], lm[c[5]])
	v2 := dist(lm[c[2]], lm[c[4]])
	h := dist(lm[c[0]], lm[c[3]])

	if h <= 0 {
		return 0, ErrUnavailable
	}

	ear := (v1 + v2) / (2.0 * h)

	if math.IsNaN(ear) || math.IsInf(ear, 0) {
		return 0, ErrUnavailable
	}

	return ear, nil
}

// dist is the 2D euclidean distance between two landmark points, depth is
// ignored as all thresholds are calibrated in pixel space
func dist(a, b facesense.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// clamp01 restricts a value to the range [0,1]
func clamp01(v float64) float64 {

	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
