// Package fusion combines the emotion classifier output with the geometric
// micro-expression signals into a single per frame analysis record.
package fusion

import (
	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/microsignal"
	"gonum.org/v1/gonum/stat"
)

// Params defines the weights and thresholds used by the fusion Engine.
// They are fixed calibration values meant to be tuned against labeled data
type Params struct {
	// Stress score weights, must sum to 1
	StressLipWeight   float64 `yaml:"stress_lip_weight"`
	StressJawWeight   float64 `yaml:"stress_jaw_weight"`
	StressBlinkWeight float64 `yaml:"stress_blink_weight"`
	// BlinkRateScale is the blinks per minute treated as a fully saturated
	// stress contribution
	BlinkRateScale float64 `yaml:"blink_rate_scale"`

	// Anxiety score weights, must sum to 1
	AnxietyWidenWeight float64 `yaml:"anxiety_widen_weight"`
	AnxietyBrowWeight  float64 `yaml:"anxiety_brow_weight"`
	AnxietyLipWeight   float64 `yaml:"anxiety_lip_weight"`

	// Engagement baseline and boosts for detected positive signals
	EngagementBase float64 `yaml:"engagement_base"`
	SmileBoost     float64 `yaml:"smile_boost"`
	BrowBoost      float64 `yaml:"brow_boost"`
	// HighEngagement is the score above which the high engagement positive
	// indicator is reported
	HighEngagement float64 `yaml:"high_engagement"`

	// Override thresholds above which geometric signals escalate a bland
	// classification
	StressOverride  float64 `yaml:"stress_override"`
	AnxietyOverride float64 `yaml:"anxiety_override"`

	// Combined confidence blend, classifier weighted heavier
	ClassifierWeight float64 `yaml:"classifier_weight"`
	MicroWeight      float64 `yaml:"micro_weight"`
	// NeutralConfidence substitutes for a missing classifier result and for
	// the micro term when no signal fired
	NeutralConfidence float64 `yaml:"neutral_confidence"`

	// Stress level band edges for clinical insight categorization
	StressLowBand  float64 `yaml:"stress_low_band"`
	StressHighBand float64 `yaml:"stress_high_band"`
}

// DefaultParams returns an instance of Params configured with the default
// calibration values
func DefaultParams() Params {
	return Params{
		StressLipWeight:    0.3,
		StressJawWeight:    0.3,
		StressBlinkWeight:  0.4,
		BlinkRateScale:     50,
		AnxietyWidenWeight: 0.4,
		AnxietyBrowWeight:  0.3,
		AnxietyLipWeight:   0.3,
		EngagementBase:     0.7,
		SmileBoost:         0.15,
		BrowBoost:          0.15,
		HighEngagement:     0.8,
		StressOverride:     0.7,
		AnxietyOverride:    0.7,
		ClassifierWeight:   0.6,
		MicroWeight:        0.4,
		NeutralConfidence:  0.5,
		StressLowBand:      0.3,
		StressHighBand:     0.7,
	}
}

// EmotionAnalysis holds the adjusted dominant emotion for a frame
type EmotionAnalysis struct {
	Dominant      facesense.Emotion             `json:"dominant_emotion"`
	Confidence    float64                       `json:"confidence"`
	Probabilities map[facesense.Emotion]float64 `json:"emotion_probabilities"`
}

// CompositeScores are the derived clinical metrics, each in [0,1]
type CompositeScores struct {
	Stress            float64 `json:"stress_score"`
	Anxiety           float64 `json:"anxiety_score"`
	Engagement        float64 `json:"engagement_score"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// ClinicalInsights is advisory text for a human reviewer, not a diagnosis
type ClinicalInsights struct {
	PrimaryState       facesense.Emotion `json:"primary_state"`
	StressLevel        string            `json:"stress_level"`
	AnxietyIndicators  []string          `json:"anxiety_indicators"`
	PositiveIndicators []string          `json:"positive_indicators"`
}

// FrameAnalysis is the fused per frame record.  It is immutable once
// created and owned append only by the session pipeline
type FrameAnalysis struct {
	// Timestamp in seconds, session relative
	Timestamp    float64 `json:"timestamp"`
	FaceDetected bool    `json:"face_detected"`

	// The groups below are only present when a face was detected
	Emotion          *EmotionAnalysis                               `json:"emotion_analysis,omitempty"`
	MicroExpressions map[microsignal.Signal]microsignal.MicroSignal `json:"micro_expressions,omitempty"`
	Scores           *CompositeScores                               `json:"composite_scores,omitempty"`
	Insights         *ClinicalInsights                              `json:"clinical_insights,omitempty"`
}

// NoFace returns the frame record for a frame where no face was detected
func NoFace(timestamp float64) FrameAnalysis {
	return FrameAnalysis{
		Timestamp:    timestamp,
		FaceDetected: false,
	}
}

// Engine fuses classifier and micro-signal output.  An Engine is stateless
// and safe for concurrent use
type Engine struct {
	p Params
}

// NewEngine returns a fusion Engine with the given parameters
func NewEngine(p Params) *Engine {
	return &Engine{p: p}
}

// Fuse produces one FrameAnalysis from the paired classifier result and
// micro-signal readings.  A nil classifier result substitutes a neutral
// default, it is never an error
func (e *Engine) Fuse(cls *facesense.ClassifierResult,
	signals map[microsignal.Signal]microsignal.MicroSignal,
	timestamp float64) FrameAnalysis {

	dominant := facesense.Neutral
	baseConfidence := e.p.NeutralConfidence
	probabilities := map[facesense.Emotion]float64{}

	if cls != nil {
		dominant = cls.Dominant
		baseConfidence = cls.Confidence
		probabilities = cls.Probabilities
	}

	stress := e.stressScore(signals)
	anxiety := e.anxietyScore(signals)
	engagement := e.engagementScore(signals)

	// geometric signals can escalate a bland classification but the
	// classifier's own non neutral output is otherwise trusted
	if stress > e.p.StressOverride && dominant == facesense.Neutral {
		dominant = facesense.Stressed
	}

	if anxiety > e.p.AnxietyOverride &&
		(dominant == facesense.Sad || dominant == facesense.Neutral) {
		dominant = facesense.Anxious
	}

	combined := e.p.ClassifierWeight*baseConfidence +
		e.p.MicroWeight*e.microConfidence(signals)

	return FrameAnalysis{
		Timestamp:    timestamp,
		FaceDetected: true,
		Emotion: &EmotionAnalysis{
			Dominant:      dominant,
			Confidence:    combined,
			Probabilities: probabilities,
		},
		MicroExpressions: detectedOnly(signals),
		Scores: &CompositeScores{
			Stress:            stress,
			Anxiety:           anxiety,
			Engagement:        engagement,
			OverallConfidence: combined,
		},
		Insights: e.insights(dominant, stress, engagement, signals),
	}
}

// stressScore is the weighted sum of lip press, jaw tension and the capped
// normalized blink rate
func (e *Engine) stressScore(signals map[microsignal.Signal]microsignal.MicroSignal) float64 {

	blink := clamp01(signals[microsignal.BlinkRate].RatePerMin / e.p.BlinkRateScale)

	sum := signals[microsignal.LipPress].Intensity*e.p.StressLipWeight +
		signals[microsignal.JawTension].Intensity*e.p.StressJawWeight +
		blink*e.p.StressBlinkWeight

	return clamp01(sum)
}

// anxietyScore is the weighted sum of eye widening, eyebrow raise and lip
// press intensities
func (e *Engine) anxietyScore(signals map[microsignal.Signal]microsignal.MicroSignal) float64 {

	sum := signals[microsignal.EyeWidening].Intensity*e.p.AnxietyWidenWeight +
		signals[microsignal.EyebrowRaise].Intensity*e.p.AnxietyBrowWeight +
		signals[microsignal.LipPress].Intensity*e.p.AnxietyLipWeight

	return clamp01(sum)
}

// engagementScore starts from a baseline and is boosted by detected
// positive signals
func (e *Engine) engagementScore(signals map[microsignal.Signal]microsignal.MicroSignal) float64 {

	score := e.p.EngagementBase

	if signals[microsignal.MicroSmile].Detected {
		score += e.p.SmileBoost
	}

	if signals[microsignal.EyebrowRaise].Detected {
		score += e.p.BrowBoost
	}

	return clamp01(score)
}

// microConfidence is the mean confidence of the signals that actually
// fired, or the neutral constant when none fired.  Signals are visited in
// the fixed order so the arithmetic is deterministic
func (e *Engine) microConfidence(signals map[microsignal.Signal]microsignal.MicroSignal) float64 {

	fired := make([]float64, 0, len(microsignal.Order))

	for _, sig := range microsignal.Order {
		if signals[sig].Detected {
			fired = append(fired, signals[sig].Confidence)
		}
	}

	if len(fired) == 0 {
		return e.p.NeutralConfidence
	}

	return stat.Mean(fired, nil)
}

// detectedOnly filters the signal map down to the indicators that fired
func detectedOnly(signals map[microsignal.Signal]microsignal.MicroSignal) map[microsignal.Signal]microsignal.MicroSignal {

	out := make(map[microsignal.Signal]microsignal.MicroSignal)

	for sig, reading := range signals {
		if reading.Detected {
			out[sig] = reading
		}
	}

	return out
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
