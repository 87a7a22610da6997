package models

import "time"

// Submission is one graded voice recording kept in the history store.
type Submission struct {
	ID             int       `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Day            int       `json:"day" db:"day"`
	ReferenceText  string    `json:"reference_text" db:"reference_text"`
	RecognizedText string    `json:"recognized_text" db:"recognized_text"`
	Accuracy       float64   `json:"accuracy" db:"accuracy"`
	Fluency        float64   `json:"fluency" db:"fluency"`
	Completeness   float64   `json:"completeness" db:"completeness"`
	Pronunciation  float64   `json:"pronunciation" db:"pronunciation"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
