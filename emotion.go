package facesense

// Emotion is a categorical emotion label from the classifier vocabulary
type Emotion string

const (
	Angry    Emotion = "angry"
	Disgust  Emotion = "disgust"
	Fear     Emotion = "fear"
	Happy    Emotion = "happy"
	Sad      Emotion = "sad"
	Surprise Emotion = "surprise"
	Neutral  Emotion = "neutral"

	// Stressed and Anxious are derived labels.  They are never produced by
	// the classifier itself, only by the fusion override when geometric
	// signals escalate a bland classification
	Stressed Emotion = "stressed"
	Anxious  Emotion = "anxious"
)

// Emotions is the classifier vocabulary in model output order
var Emotions = []Emotion{Angry, Disgust, Fear, Happy, Sad, Surprise, Neutral}

// ClassifierResult is the categorical probability distribution produced by
// the emotion classifier for a single frame
type ClassifierResult struct {
	// Dominant is the emotion with the highest probability
	Dominant Emotion
	// Confidence is the probability of the dominant emotion
	Confidence float64
	// Probabilities maps each emotion in the vocabulary to its probability,
	// summing to approximately 1
	Probabilities map[Emotion]float64
}
