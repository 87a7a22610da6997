// Package progress keeps per-user course progress. The local file is the
// source of truth; an optional secondary sheet is mirrored best-effort and may
// lag behind it.
package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/jdoitbot/pkg/models"
)

// Store is the durable per-user progress state.
type Store interface {
	// GetProgress returns the user's progress, defaulting to day 1 for
	// unseen users. It never mutates state.
	GetProgress(userID string) models.UserProgress
	// Register creates a day-1 record if absent and reports whether a new
	// record was created.
	Register(userID string) bool
	// AdvanceDay moves the user forward one day and returns the new day.
	// Unseen users are registered first, so their first advance yields 2.
	// A non-nil error means the new day was not durably recorded; callers
	// should treat it as a degraded success, not a failure.
	AdvanceDay(userID string) (int, error)
}

// Syncer mirrors a single user's progress to a secondary store.
type Syncer interface {
	SyncUser(userID string, currentDay int, lastUpdated string) error
}

type record struct {
	CurrentDay       int    `json:"current_day"`
	LastHomeworkDate string `json:"last_homework_date"`
}

// FileStore persists progress in a JSON file keyed by user id. The whole file
// is rewritten on every mutation. Reads and read-modify-write cycles are
// serialized by a mutex so concurrent submissions cannot lose updates.
type FileStore struct {
	filePath string
	syncer   Syncer

	mu    sync.Mutex
	users map[string]*record
}

// NewFileStore loads (or initializes) the progress file at filePath. syncer
// may be nil to disable secondary mirroring.
func NewFileStore(filePath string, syncer Syncer) *FileStore {
	s := &FileStore{
		filePath: filePath,
		syncer:   syncer,
		users:    make(map[string]*record),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error loading progress file %s: %v", s.filePath, err)
		}
		return
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		log.Printf("Error parsing progress file %s: %v", s.filePath, err)
		s.users = make(map[string]*record)
	}
}

// flush rewrites the whole progress file. Caller must hold the mutex.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %v", err)
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress file: %v", err)
	}
	return nil
}

// mirror pushes one user's state to the secondary store. Failures are logged
// and swallowed; the secondary store is best-effort only.
func (s *FileStore) mirror(userID string, day int, lastUpdated string) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.SyncUser(userID, day, lastUpdated); err != nil {
		log.Printf("Sheet sync error for %s: %v", userID, err)
	}
}

// GetProgress returns the stored progress or a day-1 default for unseen users.
func (s *FileStore) GetProgress(userID string) models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[userID]; ok {
		return models.UserProgress{
			UserID:           userID,
			CurrentDay:       rec.CurrentDay,
			LastHomeworkDate: rec.LastHomeworkDate,
		}
	}
	return models.UserProgress{UserID: userID, CurrentDay: 1}
}

// Register creates a day-1 record for the user if one does not exist.
func (s *FileStore) Register(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(userID)
}

func (s *FileStore) register(userID string) bool {
	if _, ok := s.users[userID]; ok {
		return false
	}
	s.users[userID] = &record{CurrentDay: 1}
	if err := s.flush(); err != nil {
		log.Printf("Error persisting registration for %s: %v", userID, err)
	}
	s.mirror(userID, 1, today())
	return true
}

// AdvanceDay increments the user's day by one and stamps today's date.
func (s *FileStore) AdvanceDay(userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		s.register(userID)
		rec = s.users[userID]
	}

	rec.CurrentDay++
	rec.LastHomeworkDate = today()

	var persistErr error
	if err := s.flush(); err != nil {
		// The advanced day is still reported but may not survive a
		// restart. Surface the failure so front ends can warn.
		log.Printf("Error persisting progress for %s: %v", userID, err)
		persistErr = err
	}
	s.mirror(userID, rec.CurrentDay, rec.LastHomeworkDate)
	return rec.CurrentDay, persistErr
}

// ListProgress returns every registered user's progress in unspecified order.
func (s *FileStore) ListProgress() []models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.UserProgress, 0, len(s.users))
	for id, rec := range s.users {
		out = append(out, models.UserProgress{
			UserID:           id,
			CurrentDay:       rec.CurrentDay,
			LastHomeworkDate: rec.LastHomeworkDate,
		})
	}
	return out
}

func today() string {
	return time.Now().Format("2006-01-02")
}
