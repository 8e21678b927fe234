// Package microsignal converts facial landmark geometry plus session scoped
// temporal history into named micro-expression indicators.  Each indicator
// is a pure geometric ratio normalized against a face relative reference
// distance so it is invariant to the subject's distance from the camera.
package microsignal

// Signal identifies one named geometric indicator
type Signal string

const (
	EyebrowRaise Signal = "eyebrow_raise"
	LipPress     Signal = "lip_press"
	BlinkRate    Signal = "blink_rate"
	EyeWidening  Signal = "eye_widening"
	JawTension   Signal = "jaw_tension"
	MicroSmile   Signal = "micro_smile"
)

// Order lists all signals in the fixed order they are computed and
// aggregated, so downstream fusion arithmetic is deterministic
var Order = []Signal{EyebrowRaise, LipPress, BlinkRate, EyeWidening, JawTension, MicroSmile}

// MicroSignal is one named indicator reading for a single frame
type MicroSignal struct {
	// Detected reports whether the indicator fired this frame
	Detected bool `json:"detected"`
	// Intensity of the indicator in [0,1]
	Intensity float64 `json:"intensity"`
	// Confidence of the indicator in [0,1]
	Confidence float64 `json:"confidence"`
	// RatePerMin is the extrapolated blinks per minute, only set for the
	// blink rate signal
	RatePerMin float64 `json:"rate_per_min,omitempty"`
	// SmileType classifies a detected smile, only set for the micro smile
	// signal.  Distinguishing a genuine from a social smile needs temporal
	// eye crinkle comparison which is not implemented, so this always
	// reports "social"
	SmileType string `json:"type,omitempty"`
}

// Params defines the thresholds and windows used by the Analyzer.  The
// decision rule shape of each indicator is fixed, the thresholds are meant
// to be recalibrated against validation data
type Params struct {
	// EyebrowRaiseThreshold is the normalized eyebrow to eye distance above
	// which an eyebrow raise is detected
	EyebrowRaiseThreshold float64 `yaml:"eyebrow_raise_threshold"`
	// LipPressThreshold is the lip gap to mouth width ratio below which a
	// lip press is detected
	LipPressThreshold float64 `yaml:"lip_press_threshold"`
	// BlinkEARThreshold is the eye aspect ratio below which a frame counts
	// as a blink event
	BlinkEARThreshold float64 `yaml:"blink_ear_threshold"`
	// ElevatedBlinkRate is the blinks per minute above which the blink rate
	// signal fires as clinically elevated
	ElevatedBlinkRate float64 `yaml:"elevated_blink_rate"`
	// WidenEARThreshold is the eye aspect ratio above which eye widening is
	// detected
	WidenEARThreshold float64 `yaml:"widen_ear_threshold"`
	// BaselineEAR is the normal eye aspect ratio used as the zero point for
	// widening intensity
	BaselineEAR float64 `yaml:"baseline_ear"`
	// WidenEARSpan scales how far above baseline maps to full intensity
	WidenEARSpan float64 `yaml:"widen_ear_span"`
	// JawRatioBaseline is the jaw height to width ratio below which jaw
	// tension is detected
	JawRatioBaseline float64 `yaml:"jaw_ratio_baseline"`
	// JawRatioSpan scales how far below baseline maps to full intensity
	JawRatioSpan float64 `yaml:"jaw_ratio_span"`
	// SmileLiftThreshold is the mouth corner lift in pixels above which a
	// micro smile is detected
	SmileLiftThreshold float64 `yaml:"smile_lift_threshold"`
	// SmileLiftSpan scales lift pixels to full intensity
	SmileLiftSpan float64 `yaml:"smile_lift_span"`

	// Per signal reading confidences
	EyebrowConfidence float64 `yaml:"eyebrow_confidence"`
	LipConfidence     float64 `yaml:"lip_confidence"`
	BlinkConfidence   float64 `yaml:"blink_confidence"`
	WidenConfidence   float64 `yaml:"widen_confidence"`
	JawConfidence     float64 `yaml:"jaw_confidence"`
	SmileConfidence   float64 `yaml:"smile_confidence"`

	// BlinkWindow is the number of most recent frames in the blink ring
	BlinkWindow int `yaml:"blink_window"`
	// HistoryWindow is the number of most recent frame snapshots retained
	HistoryWindow int `yaml:"history_window"`
	// FPS is the configured capture frame rate used to extrapolate the
	// blink window occupancy to blinks per minute
	FPS float64 `yaml:"fps"`
}

// DefaultParams returns an instance of Params configured with the default
// calibration values
func DefaultParams() Params {
	return Params{
		EyebrowRaiseThreshold: 0.08,
		LipPressThreshold:     0.08,
		BlinkEARThreshold:     0.2,
		ElevatedBlinkRate:     25,
		WidenEARThreshold:     0.35,
		BaselineEAR:           0.25,
		WidenEARSpan:          0.15,
		JawRatioBaseline:      0.65,
		JawRatioSpan:          0.15,
		SmileLiftThreshold:    2,
		SmileLiftSpan:         10,
		EyebrowConfidence:     0.85,
		LipConfidence:         0.80,
		BlinkConfidence:       0.70,
		WidenConfidence:       0.88,
		JawConfidence:         0.75,
		SmileConfidence:       0.82,
		BlinkWindow:           30,
		HistoryWindow:         10,
		FPS:                   7,
	}
}
