package database

import (
	"fmt"
	"time"

	"github.com/example/jdoitbot/pkg/models"
)

// SubmissionRepository handles database operations for graded submissions
type SubmissionRepository struct{}

// NewSubmissionRepository creates a new repository instance
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{}
}

// Create inserts a new submission row
func (r *SubmissionRepository) Create(sub *models.Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO submissions (
			user_id, day, reference_text, recognized_text,
			accuracy, fluency, completeness, pronunciation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	result, err := DB.Exec(
		query,
		sub.UserID,
		sub.Day,
		sub.ReferenceText,
		sub.RecognizedText,
		sub.Accuracy,
		sub.Fluency,
		sub.Completeness,
		sub.Pronunciation,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %v", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		sub.ID = int(id)
	}
	return nil
}

// GetByUserID returns all submissions for a user, newest first
func (r *SubmissionRepository) GetByUserID(userID string) ([]models.Submission, error) {
	var subs []models.Submission
	err := DB.Select(&subs,
		"SELECT * FROM submissions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %v", err)
	}
	return subs, nil
}

// UserStats summarizes a user's graded submissions
type UserStats struct {
	Total            int     `db:"total"`
	AvgPronunciation float64 `db:"avg_pronunciation"`
	BestScore        float64 `db:"best_score"`
}

// GetUserStats returns submission count and score aggregates for a user
func (r *SubmissionRepository) GetUserStats(userID string) (*UserStats, error) {
	var stats UserStats
	err := DB.Get(&stats, `
		SELECT COUNT(*) AS total,
		       COALESCE(AVG(pronunciation), 0) AS avg_pronunciation,
		       COALESCE(MAX(pronunciation), 0) AS best_score
		FROM submissions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %v", err)
	}
	return &stats, nil
}
