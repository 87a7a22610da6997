// Package session orchestrates one voice submission: resolve the reference
// sentence, normalize the audio, grade it, advance the user's day, and hand a
// structured outcome to whichever front end asked.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/example/jdoitbot/internal/audio"
	"github.com/example/jdoitbot/internal/homework"
	"github.com/example/jdoitbot/internal/matcher"
	"github.com/example/jdoitbot/internal/progress"
	"github.com/example/jdoitbot/pkg/models"
)

// Terminal states surfaced to users.
var (
	// ErrNoReference means no reference sentence could be resolved for the
	// submission.
	ErrNoReference = errors.New("no reference text found for submission")
	// ErrConversionFailed means the recording could not be normalized for
	// the scoring service.
	ErrConversionFailed = errors.New("audio conversion failed")
	// ErrCourseComplete means the user's current day has no homework left.
	ErrCourseComplete = errors.New("no homework remaining for user")
)

// Gateway is the slice of the scoring service the session needs.
type Gateway interface {
	Grade(ctx context.Context, audioPath, referenceText string) models.ScoreResult
	Recognize(ctx context.Context, audioPath string) string
}

// Recorder persists graded submissions for history. Optional and best-effort.
// Satisfied by database.SubmissionRepository.
type Recorder interface {
	Create(sub *models.Submission) error
}

// SubmissionRequest describes one incoming voice recording. AudioPath points
// at the raw file as received; Caption and ReplyText carry any text the user
// attached to or replied to.
type SubmissionRequest struct {
	UserID    string
	AudioPath string
	Caption   string
	ReplyText string
}

// Outcome is the structured result of a graded submission.
type Outcome struct {
	Result        models.ScoreResult
	ReferenceText string
	PreviousDay   int
	CurrentDay    int
	Advanced      bool
	// SyncWarning is set when the advanced day could not be durably
	// recorded; the grade stands but progress may be lost on restart.
	SyncWarning bool
	// MatchedByVoice is set when the reference was chosen by transcribing
	// the recording and fuzzy-matching it against the day's homework.
	MatchedByVoice bool
}

// Session wires the stores and the scoring gateway into the submission flow.
type Session struct {
	homework homework.Store
	progress progress.Store
	gateway  Gateway
	matcher  *matcher.Matcher
	recorder Recorder

	// convert is swappable so tests don't need ffmpeg.
	convert func(ctx context.Context, src string) (string, error)

	// One reference slot per user, last write wins. Replaces the implicit
	// front-end conversation state of a "most recent homework" sentence.
	mu           sync.Mutex
	lastHomework map[string]string
}

// New creates a Session. recorder may be nil to disable history.
func New(hw homework.Store, prog progress.Store, gw Gateway, recorder Recorder) *Session {
	return &Session{
		homework:     hw,
		progress:     prog,
		gateway:      gw,
		matcher:      matcher.New(),
		recorder:     recorder,
		convert:      audio.ConvertToWAV,
		lastHomework: make(map[string]string),
	}
}

// SetLastHomework remembers the most recently issued sentence for the user.
func (s *Session) SetLastHomework(userID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHomework[userID] = text
}

// LastHomework returns the user's remembered sentence, if any.
func (s *Session) LastHomework(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.lastHomework[userID]
	return text, ok
}

// Grade runs the submission flow: resolve reference text (caption, then
// reply, then the last issued homework), convert the audio, grade it, and on
// success advance the user's day. The normalized temp file is removed on
// every path.
func (s *Session) Grade(ctx context.Context, req SubmissionRequest) (*Outcome, error) {
	ref := s.resolveReference(req)
	if ref == "" {
		return nil, ErrNoReference
	}

	wavPath, err := s.convert(ctx, req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	defer os.Remove(wavPath)

	return s.gradeFile(ctx, req.UserID, wavPath, ref, false)
}

// GradeMatched runs the disambiguation flow used by the web front end: the
// recording (already a 16 kHz mono WAV) is transcribed, matched against the
// user's current-day sentences, and then graded against the matched one.
func (s *Session) GradeMatched(ctx context.Context, userID, wavPath string) (*Outcome, error) {
	day := s.progress.GetProgress(userID).CurrentDay
	items := s.homework.GetHomework(day)
	if len(items) == 0 {
		return nil, ErrCourseComplete
	}

	candidates := make([]string, len(items))
	for i, item := range items {
		candidates[i] = item.Text
	}

	spoken := s.gateway.Recognize(ctx, wavPath)
	ref := s.matcher.Match(spoken, candidates)
	return s.gradeFile(ctx, userID, wavPath, ref, true)
}

func (s *Session) gradeFile(ctx context.Context, userID, wavPath, ref string, matched bool) (*Outcome, error) {
	prevDay := s.progress.GetProgress(userID).CurrentDay
	outcome := &Outcome{
		ReferenceText:  ref,
		PreviousDay:    prevDay,
		CurrentDay:     prevDay,
		MatchedByVoice: matched,
	}

	outcome.Result = s.gateway.Grade(ctx, wavPath, ref)
	if !outcome.Result.IsSuccess() {
		return outcome, nil
	}

	newDay, err := s.progress.AdvanceDay(userID)
	outcome.CurrentDay = newDay
	outcome.Advanced = true
	outcome.SyncWarning = err != nil

	s.record(userID, prevDay, outcome)
	return outcome, nil
}

// record appends the submission to history. Failures only cost the history
// row, never the grade.
func (s *Session) record(userID string, day int, outcome *Outcome) {
	if s.recorder == nil {
		return
	}
	sub := &models.Submission{
		UserID:         userID,
		Day:            day,
		ReferenceText:  outcome.ReferenceText,
		RecognizedText: outcome.Result.RecognizedText,
		Accuracy:       outcome.Result.Accuracy,
		Fluency:        outcome.Result.Fluency,
		Completeness:   outcome.Result.Completeness,
		Pronunciation:  outcome.Result.Pronunciation,
	}
	if err := s.recorder.Create(sub); err != nil {
		log.Printf("Error recording submission for %s: %v", userID, err)
	}
}

// resolveReference picks the reference sentence with caption taking priority
// over reply text, then the remembered last homework.
func (s *Session) resolveReference(req SubmissionRequest) string {
	if req.Caption != "" {
		return req.Caption
	}
	if req.ReplyText != "" {
		return req.ReplyText
	}
	if text, ok := s.LastHomework(req.UserID); ok {
		return text
	}
	return ""
}
