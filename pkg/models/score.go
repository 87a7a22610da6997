package models

// Word-level error classifications reported by the scoring service.
const (
	ErrorTypeNone             = "None"
	ErrorTypeOmission         = "Omission"
	ErrorTypeInsertion        = "Insertion"
	ErrorTypeMispronunciation = "Mispronunciation"
)

// ScoreResult statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WordFeedback is the per-word assessment of a graded utterance.
type WordFeedback struct {
	Word      string  `json:"word"`
	Accuracy  float64 `json:"accuracy"`
	ErrorType string  `json:"error_type"` // None, Omission, Insertion, Mispronunciation
}

// ScoreResult is the normalized outcome of one pronunciation assessment.
// On StatusError only Message is meaningful.
type ScoreResult struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	Accuracy       float64        `json:"accuracy"`
	Fluency        float64        `json:"fluency"`
	Completeness   float64        `json:"completeness"`
	Pronunciation  float64        `json:"pronunciation"`
	RecognizedText string         `json:"recognized_text"`
	Words          []WordFeedback `json:"words,omitempty"`
}

// IsSuccess reports whether the assessment produced usable scores.
func (r ScoreResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// MiscuedWords returns the feedback entries whose error type is not None,
// preserving order.
func (r ScoreResult) MiscuedWords() []WordFeedback {
	var out []WordFeedback
	for _, w := range r.Words {
		if w.ErrorType != ErrorTypeNone {
			out = append(out, w)
		}
	}
	return out
}
