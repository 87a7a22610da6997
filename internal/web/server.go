// Package web exposes the speaking-practice flow as a JSON API for the
// browser front end: login by free-text id, today's sentences, in-browser
// recording upload, and submission history.
package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/example/jdoitbot/internal/database"
	"github.com/example/jdoitbot/internal/homework"
	"github.com/example/jdoitbot/internal/progress"
	"github.com/example/jdoitbot/internal/session"
	"github.com/gin-gonic/gin"
)

// Server hosts the web API.
type Server struct {
	session     *session.Session
	progress    progress.Store
	homework    homework.Store
	submissions *database.SubmissionRepository
}

// NewServer creates the web server over the shared stores and session.
func NewServer(sess *session.Session, prog progress.Store, hw homework.Store, subs *database.SubmissionRepository) *Server {
	return &Server{
		session:     sess,
		progress:    prog,
		homework:    hw,
		submissions: subs,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/login", s.login)
		api.GET("/homework/:user_id", s.getHomework)
		api.POST("/submissions/:user_id", s.submitRecording)
		api.GET("/history/:user_id", s.getHistory)
	}

	return r
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

type loginRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// login resolves the user's progress for a free-text identifier. It does not
// register: unseen users simply see day 1.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	c.JSON(http.StatusOK, s.progress.GetProgress(req.UserID))
}

// getHomework returns the sentences for the user's current day.
func (s *Server) getHomework(c *gin.Context) {
	userID := c.Param("user_id")
	day := s.progress.GetProgress(userID).CurrentDay
	items := s.homework.GetHomework(day)

	c.JSON(http.StatusOK, gin.H{
		"day":       day,
		"items":     items,
		"completed": len(items) == 0,
	})
}

// submitRecording accepts a WAV recording, disambiguates which sentence was
// read, grades it, and returns the scores plus the advanced day.
func (s *Server) submitRecording(c *gin.Context) {
	userID := c.Param("user_id")

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	tmpPath, err := saveUpload(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(tmpPath)

	outcome, err := s.session.GradeMatched(c.Request.Context(), userID, tmpPath)
	switch {
	case errors.Is(err, session.ErrCourseComplete):
		c.JSON(http.StatusConflict, gin.H{"error": "모든 과정을 수료하셨습니다! 더 이상 숙제가 없습니다."})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !outcome.Result.IsSuccess() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": outcome.Result.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matched_text": outcome.ReferenceText,
		"result":       outcome.Result,
		"previous_day": outcome.PreviousDay,
		"current_day":  outcome.CurrentDay,
		"sync_warning": outcome.SyncWarning,
	})
}

// getHistory returns the user's graded submissions, newest first.
func (s *Server) getHistory(c *gin.Context) {
	userID := c.Param("user_id")
	subs, err := s.submissions.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

// saveUpload writes the multipart file into a temp WAV the session can grade.
func saveUpload(src *multipart.FileHeader) (string, error) {
	f, err := src.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	tmp, err := os.CreateTemp("", "upload-*.wav")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
