package pose

// FullAccuracy is the score attached to every correct verdict. Scoring is binary for now.
const FullAccuracy = 100

// Coaching messages shared by all classifiers.
const (
	MessageCorrect   = "Pose Correct!"
	MessageAnalyzing = "Analyzing..."
)

// Verdict is the classification result for one frame.
type Verdict struct {
	Correct  bool   `json:"isCorrect"`
	Message  string `json:"message"`
	Accuracy *int   `json:"accuracy,omitempty"`
}

// Score returns the accuracy of a correct verdict and 0 otherwise.
func (v Verdict) Score() int {
	if v.Accuracy == nil {
		return 0
	}
	return *v.Accuracy
}

// Analyzing is the neutral verdict reported before any frame has been classified, and for
// pose values outside the enumeration.
func Analyzing() Verdict {
	return Verdict{Message: MessageAnalyzing}
}

func correct() Verdict {
	accuracy := FullAccuracy
	return Verdict{Correct: true, Message: MessageCorrect, Accuracy: &accuracy}
}

func incorrect(message string) Verdict {
	return Verdict{Message: message}
}
