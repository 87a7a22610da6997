package progress

import (
	"sync"

	"github.com/example/jdoitbot/pkg/models"
)

// MemoryStore is a Store kept entirely in memory. It backs tests and any
// deployment that does not care about durability.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*record)}
}

func (s *MemoryStore) GetProgress(userID string) models.UserProgress {
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

func (s *MemoryStore) Register(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; ok {
		return false
	}
	s.users[userID] = &record{CurrentDay: 1}
	return true
}

func (s *MemoryStore) ListProgress() []models.UserProgress {
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

func (s *MemoryStore) AdvanceDay(userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		rec = &record{CurrentDay: 1}
		s.users[userID] = rec
	}
	rec.CurrentDay++
	rec.LastHomeworkDate = today()
	return rec.CurrentDay, nil
}
