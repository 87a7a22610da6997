package models

// UserProgress tracks a user's position in the homework program.
// CurrentDay only moves forward, one step per graded submission.
type UserProgress struct {
	UserID           string `json:"user_id" db:"user_id"`
	CurrentDay       int    `json:"current_day" db:"current_day"`
	LastHomeworkDate string `json:"last_homework_date" db:"last_homework_date"` // ISO date, empty if never active
}
