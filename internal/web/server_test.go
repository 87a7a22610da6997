package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/jdoitbot/internal/database"
	"github.com/example/jdoitbot/internal/progress"
	"github.com/example/jdoitbot/internal/session"
	"github.com/example/jdoitbot/internal/web"
	"github.com/example/jdoitbot/pkg/models"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct {
	result     models.ScoreResult
	recognized string
}

func (g *stubGateway) Grade(ctx context.Context, audioPath, referenceText string) models.ScoreResult {
	return g.result
}

func (g *stubGateway) Recognize(ctx context.Context, audioPath string) string {
	return g.recognized
}

type fakeHomework map[int][]models.HomeworkItem

func (f fakeHomework) GetHomework(day int) []models.HomeworkItem { return f[day] }

func newTestServer(t *testing.T, hw fakeHomework, store progress.Store, gw session.Gateway) *web.Server {
	t.Helper()
	if err := database.ConnectFile(filepath.Join(t.TempDir(), "web.db")); err != nil {
		t.Fatalf("ConnectFile: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	subs := database.NewSubmissionRepository()
	sess := session.New(hw, store, gw, subs)
	return web.NewServer(sess, store, hw, subs)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_ReturnsProgress(t *testing.T) {
	store := progress.NewMemoryStore()
	store.Register("1234")
	srv := newTestServer(t, fakeHomework{}, store, &stubGateway{})
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{"user_id": "1234"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status=%d, want 200", w.Code)
	}

	var prog models.UserProgress
	if err := json.Unmarshal(w.Body.Bytes(), &prog); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if prog.UserID != "1234" || prog.CurrentDay != 1 {
		t.Errorf("login response: %+v, want user 1234 at day 1", prog)
	}
}

func TestLogin_RequiresUserID(t *testing.T) {
	srv := newTestServer(t, fakeHomework{}, progress.NewMemoryStore(), &stubGateway{})

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/login", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("login without user_id: status=%d, want 400", w.Code)
	}
}

func TestGetHomework_ReturnsDayItems(t *testing.T) {
	hw := fakeHomework{1: {
		{Day: 1, Text: "안녕하세요"},
		{Day: 1, Text: "오늘 날씨가 좋네요"},
	}}
	srv := newTestServer(t, hw, progress.NewMemoryStore(), &stubGateway{})

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/homework/1234", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("homework: status=%d, want 200", w.Code)
	}

	var resp struct {
		Day       int                   `json:"day"`
		Items     []models.HomeworkItem `json:"items"`
		Completed bool                  `json:"completed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Day != 1 || len(resp.Items) != 2 || resp.Completed {
		t.Errorf("homework response: %+v, want day 1 with 2 items", resp)
	}
}

func TestGetHomework_CompletedWhenEmpty(t *testing.T) {
	srv := newTestServer(t, fakeHomework{}, progress.NewMemoryStore(), &stubGateway{})

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/homework/1234", nil)
	var resp struct {
		Completed bool `json:"completed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Completed {
		t.Error("homework response: completed=false, want true for empty day")
	}
}

func postRecording(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("RIFF....WAVEfmt ")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitRecording_GradesAndAdvances(t *testing.T) {
	hw := fakeHomework{1: {
		{Day: 1, Text: "안녕하세요"},
		{Day: 1, Text: "오늘 날씨가 좋네요"},
	}}
	store := progress.NewMemoryStore()
	gw := &stubGateway{
		recognized: "오늘 날씨 좋네요",
		result: models.ScoreResult{
			Status:         models.StatusSuccess,
			Accuracy:       88,
			Fluency:        92,
			Completeness:   100,
			Pronunciation:  85,
			RecognizedText: "오늘 날씨가 좋네요",
		},
	}
	srv := newTestServer(t, hw, store, gw)

	w := postRecording(t, srv.Router(), "/api/submissions/42")
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status=%d body=%s, want 200", w.Code, w.Body.String())
	}

	var resp struct {
		MatchedText string             `json:"matched_text"`
		Result      models.ScoreResult `json:"result"`
		PreviousDay int                `json:"previous_day"`
		CurrentDay  int                `json:"current_day"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MatchedText != "오늘 날씨가 좋네요" {
		t.Errorf("matched_text=%q, want the disambiguated sentence", resp.MatchedText)
	}
	if resp.PreviousDay != 1 || resp.CurrentDay != 2 {
		t.Errorf("days: prev=%d cur=%d, want 1 and 2", resp.PreviousDay, resp.CurrentDay)
	}
	if got := store.GetProgress("42").CurrentDay; got != 2 {
		t.Errorf("store after submit: day=%d, want 2", got)
	}

	// The graded submission lands in history.
	hist := doJSON(t, srv.Router(), http.MethodGet, "/api/history/42", nil)
	if hist.Code != http.StatusOK {
		t.Fatalf("history: status=%d, want 200", hist.Code)
	}
	if !strings.Contains(hist.Body.String(), "오늘 날씨가 좋네요") {
		t.Errorf("history body %s, want recorded submission", hist.Body.String())
	}
}

func TestSubmitRecording_CourseComplete(t *testing.T) {
	srv := newTestServer(t, fakeHomework{}, progress.NewMemoryStore(), &stubGateway{})

	w := postRecording(t, srv.Router(), "/api/submissions/42")
	if w.Code != http.StatusConflict {
		t.Errorf("submit with no homework: status=%d, want 409", w.Code)
	}
}

func TestSubmitRecording_GradingFailure(t *testing.T) {
	hw := fakeHomework{1: {{Day: 1, Text: "안녕하세요"}}}
	gw := &stubGateway{result: models.ScoreResult{Status: models.StatusError, Message: "음성을 인식할 수 없습니다. (No Match)"}}
	srv := newTestServer(t, hw, progress.NewMemoryStore(), gw)

	w := postRecording(t, srv.Router(), "/api/submissions/42")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("submit with grading failure: status=%d, want 422", w.Code)
	}
}

func TestSubmitRecording_RequiresAudio(t *testing.T) {
	srv := newTestServer(t, fakeHomework{}, progress.NewMemoryStore(), &stubGateway{})

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/submissions/42", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("submit without audio: status=%d, want 400", w.Code)
	}
}
