package scheduler

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/jdoitbot/internal/homework"
	"github.com/example/jdoitbot/pkg/models"
	"github.com/go-co-op/gocron"
)

// DefaultHomeworkHour is the hour of day (UTC) homework is delivered.
const DefaultHomeworkHour = 20

// Notifier delivers a day's homework to a user.
type Notifier interface {
	SendHomework(userID string, day int, items []models.HomeworkItem) error
}

// UserLister enumerates every registered user's progress.
type UserLister interface {
	ListProgress() []models.UserProgress
}

// Scheduler sends each registered user their current day's sentences once a
// day.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserLister
	homework  homework.Store
}

// New creates a scheduler instance.
func New(notifier Notifier, users UserLister, hw homework.Store) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		users:     users,
		homework:  hw,
	}
}

// Start schedules the daily delivery job and begins running it. The delivery
// hour defaults to DefaultHomeworkHour and can be overridden with the
// HOMEWORK_HOUR environment variable.
func (s *Scheduler) Start() {
	hour := DefaultHomeworkHour
	if hourStr := os.Getenv("HOMEWORK_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			hour = h
		}
	}

	at := fmt.Sprintf("%02d:00", hour)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.DeliverHomework); err != nil {
		log.Printf("Error scheduling homework delivery: %v", err)
		return
	}
	s.scheduler.StartAsync()
	log.Printf("Homework delivery scheduled daily at %s UTC", at)
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// DeliverHomework sends every registered user the sentences for their current
// day. Users whose day has no rows have finished the course and are skipped.
func (s *Scheduler) DeliverHomework() {
	for _, user := range s.users.ListProgress() {
		items := s.homework.GetHomework(user.CurrentDay)
		if len(items) == 0 {
			continue
		}
		if err := s.notifier.SendHomework(user.UserID, user.CurrentDay, items); err != nil {
			log.Printf("Error sending homework to user %s: %v", user.UserID, err)
		}
	}
}
