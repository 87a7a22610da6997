package database

import (
	"path/filepath"
	"testing"

	"github.com/example/jdoitbot/pkg/models"
)

func connectTestDB(t *testing.T) {
	t.Helper()
	if err := ConnectFile(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("ConnectFile: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func TestSubmissionRepository_CreateAndList(t *testing.T) {
	connectTestDB(t)
	repo := NewSubmissionRepository()

	first := &models.Submission{
		UserID:        "42",
		Day:           1,
		ReferenceText: "오늘 날씨가 좋네요",
		Pronunciation: 85,
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(&models.Submission{UserID: "42", Day: 2, ReferenceText: "안녕하세요", Pronunciation: 91}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(&models.Submission{UserID: "other", Day: 1, ReferenceText: "만나서 반갑습니다", Pronunciation: 60}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	subs, err := repo.GetByUserID("42")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("GetByUserID: %d rows, want 2", len(subs))
	}
	for _, sub := range subs {
		if sub.UserID != "42" {
			t.Errorf("row for user %q leaked into history of 42", sub.UserID)
		}
	}
}

func TestSubmissionRepository_UserStats(t *testing.T) {
	connectTestDB(t)
	repo := NewSubmissionRepository()

	for _, pron := range []float64{80, 90} {
		if err := repo.Create(&models.Submission{UserID: "42", Day: 1, ReferenceText: "안녕하세요", Pronunciation: pron}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	stats, err := repo.GetUserStats("42")
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total=%d, want 2", stats.Total)
	}
	if stats.AvgPronunciation != 85 {
		t.Errorf("AvgPronunciation=%.1f, want 85", stats.AvgPronunciation)
	}
	if stats.BestScore != 90 {
		t.Errorf("BestScore=%.1f, want 90", stats.BestScore)
	}
}

func TestSubmissionRepository_StatsForUnknownUser(t *testing.T) {
	connectTestDB(t)
	repo := NewSubmissionRepository()

	stats, err := repo.GetUserStats("nobody")
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.Total != 0 || stats.AvgPronunciation != 0 {
		t.Errorf("stats for unknown user: %+v, want zeros", stats)
	}
}
