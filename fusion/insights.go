package fusion

import (
	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/microsignal"
)

// insights derives the advisory clinical summary: the stress band plus the
// names of the negative and positive indicators that fired this frame
func (e *Engine) insights(dominant facesense.Emotion, stress, engagement float64,
	signals map[microsignal.Signal]microsignal.MicroSignal) *ClinicalInsights {

	ci := &ClinicalInsights{
		PrimaryState:       dominant,
		StressLevel:        e.stressLevel(stress),
		AnxietyIndicators:  []string{},
		PositiveIndicators: []string{},
	}

	if signals[microsignal.LipPress].Detected {
		ci.AnxietyIndicators = append(ci.AnxietyIndicators, "lip_press")
	}

	if signals[microsignal.BlinkRate].Detected {
		ci.AnxietyIndicators = append(ci.AnxietyIndicators, "elevated_blink_rate")
	}

	if signals[microsignal.JawTension].Detected {
		ci.AnxietyIndicators = append(ci.AnxietyIndicators, "jaw_tension")
	}

	if signals[microsignal.MicroSmile].Detected {
		ci.PositiveIndicators = append(ci.PositiveIndicators, "micro_smile")
	}

	if signals[microsignal.EyebrowRaise].Detected {
		ci.PositiveIndicators = append(ci.PositiveIndicators, "eyebrow_raise_interest")
	}

	if engagement > e.p.HighEngagement {
		ci.PositiveIndicators = append(ci.PositiveIndicators, "high_engagement")
	}

	return ci
}

// stressLevel categorizes a stress score into the low, moderate or
// elevated band
func (e *Engine) stressLevel(stress float64) string {

	if stress < e.p.StressLowBand {
		return "low"
	}

	if stress < e.p.StressHighBand {
		return "moderate"
	}

	return "elevated"
}
