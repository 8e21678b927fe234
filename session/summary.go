package session

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/fusion"
)

// Summary is the aggregate report for one session, computed over the
// frames where a face was detected
type Summary struct {
	// DurationSeconds is the timestamp of the last face detected frame
	DurationSeconds float64 `json:"duration_seconds"`
	// TotalFrames is the number of face detected frames analyzed
	TotalFrames int `json:"total_frames_analyzed"`
	// EmotionDistribution maps each observed dominant emotion to its
	// fraction of frames, the fractions sum to 1
	EmotionDistribution map[facesense.Emotion]float64 `json:"emotion_distribution"`
	// Mean composite scores across the session
	AvgStress     float64 `json:"avg_stress_score"`
	AvgAnxiety    float64 `json:"avg_anxiety_score"`
	AvgEngagement float64 `json:"avg_engagement_score"`
	// PredominantEmotion is the most frequent dominant emotion, ties break
	// on lexicographic emotion name so the result is deterministic
	PredominantEmotion facesense.Emotion `json:"predominant_emotion"`
}

// summarize aggregates the face detected frames of a session.  Frames
// where no face was found carry no analysis and are excluded.  With no
// face frames at all there is nothing to aggregate and the summary is nil
func summarize(frames []fusion.FrameAnalysis) *Summary {

	var (
		duration   float64
		stress     []float64
		anxiety    []float64
		engagement []float64
		counts     = make(map[facesense.Emotion]int)
	)

	for _, fa := range frames {
		if !fa.FaceDetected {
			continue
		}

		duration = fa.Timestamp
		stress = append(stress, fa.Scores.Stress)
		anxiety = append(anxiety, fa.Scores.Anxiety)
		engagement = append(engagement, fa.Scores.Engagement)
		counts[fa.Emotion.Dominant]++
	}

	if len(stress) == 0 {
		return nil
	}

	total := len(stress)

	distribution := make(map[facesense.Emotion]float64, len(counts))

	for emotion, count := range counts {
		distribution[emotion] = float64(count) / float64(total)
	}

	return &Summary{
		DurationSeconds:     duration,
		TotalFrames:         total,
		EmotionDistribution: distribution,
		AvgStress:           stat.Mean(stress, nil),
		AvgAnxiety:          stat.Mean(anxiety, nil),
		AvgEngagement:       stat.Mean(engagement, nil),
		PredominantEmotion:  predominant(counts),
	}
}

// predominant picks the most frequent emotion, breaking count ties on the
// emotion name
func predominant(counts map[facesense.Emotion]int) facesense.Emotion {

	names := make([]string, 0, len(counts))

	for emotion := range counts {
		names = append(names, string(emotion))
	}

	sort.Strings(names)

	best := facesense.Emotion(names[0])

	for _, name := range names[1:] {
		if counts[facesense.Emotion(name)] > counts[best] {
			best = facesense.Emotion(name)
		}
	}

	return best
}
