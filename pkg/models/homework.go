package models

// HomeworkItem is one reference sentence assigned to a day of the program.
// Multiple items may share the same day.
type HomeworkItem struct {
	Day      int    `json:"day" db:"day"`
	Text     string `json:"text" db:"text"`
	AudioURL string `json:"audio_url,omitempty" db:"audio_url"` // Optional reference audio
}
