package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/app/session"
	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := session.DefaultConfig()
	cfg.Rules.Levels = 2
	cfg.Rules.QuestionsPerLevel = 3

	var qs []domain.Question
	for level := 1; level <= cfg.Rules.Levels; level++ {
		for i := 0; i < cfg.Rules.QuestionsPerLevel; i++ {
			qs = append(qs, domain.Question{
				Text:         fmt.Sprintf("why %d-%d", level, i),
				Choices:      []string{"right", "wrong", "also wrong"},
				CorrectIndex: 0,
				Level:        level,
				Difficulty:   domain.DifficultyNormal,
			})
		}
	}
	if err := db.InsertQuestions(qs); err != nil {
		t.Fatalf("insert questions: %v", err)
	}

	return NewServer(cfg, db, progress.NewService(db), 1)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func startSession(t *testing.T, h http.Handler) sessionResponse {
	t.Helper()
	var resp sessionResponse
	rec := doJSON(t, h, http.MethodPost, "/api/session", nil, &resp)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", rec.Code, rec.Body.String())
	}
	return resp
}

// answerAll answers every remaining question with the given choice and
// returns the final response that carries the result.
func answerAll(t *testing.T, h http.Handler, id string, choice int) answerResponse {
	t.Helper()
	for i := 0; i < 100; i++ {
		var resp answerResponse
		rec := doJSON(t, h, http.MethodPost, "/api/session/"+id+"/answer",
			answerRequest{Choice: choice, ElapsedMS: 1500}, &resp)
		if rec.Code != http.StatusOK {
			t.Fatalf("answer: status %d: %s", rec.Code, rec.Body.String())
		}
		if resp.Result != nil {
			return resp
		}
	}
	t.Fatal("session never finished")
	return answerResponse{}
}

// ─── Session Lifecycle ──────────────────────────────────────────────────────

func TestCreateSession(t *testing.T) {
	h := newTestServer(t).Handler()

	resp := startSession(t, h)
	if resp.ID == "" {
		t.Error("session ID should be set")
	}
	if resp.State.Phase != session.PhaseInLevel {
		t.Errorf("Phase = %q, want in_level", resp.State.Phase)
	}
	if resp.State.Level != 1 {
		t.Errorf("Level = %d, want 1", resp.State.Level)
	}
	if resp.Question == nil {
		t.Fatal("first question should be included")
	}
}

func TestSessionState(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)

	var resp sessionResponse
	rec := doJSON(t, h, http.MethodGet, "/api/session/"+created.ID, nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if resp.ID != created.ID {
		t.Errorf("ID = %q, want %q", resp.ID, created.ID)
	}
}

func TestSessionNotFound(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/session/ghost", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPerfectRunFinishesAndBanks(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)

	final := answerAll(t, h, created.ID, 0)

	r := final.Result
	if r.TotalCorrect != 6 || r.TotalAsked != 6 {
		t.Errorf("score = %d/%d, want 6/6", r.TotalCorrect, r.TotalAsked)
	}
	if !r.Perfect(1) || !r.Perfect(2) {
		t.Errorf("PerfectLevels = %v, want [1 2]", r.PerfectLevels)
	}
	// 6*10 correct + 2*50 clears + 2*30 perfect + 40 completion
	if r.XPEarned != 260 {
		t.Errorf("XPEarned = %d, want 260", r.XPEarned)
	}

	if final.Banked == nil {
		t.Fatal("finished session should be banked")
	}
	if final.Banked.XPBanked != 260 {
		t.Errorf("XPBanked = %d, want 260", final.Banked.XPBanked)
	}
	if final.Banked.Streak.Count != 1 {
		t.Errorf("Streak.Count = %d, want 1", final.Banked.Streak.Count)
	}
}

func TestAnswer_InvalidIndexRejected(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/session/"+created.ID+"/answer",
		answerRequest{Choice: 7}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	// State unchanged.
	var resp sessionResponse
	doJSON(t, h, http.MethodGet, "/api/session/"+created.ID, nil, &resp)
	if resp.State.TotalAsked != 0 {
		t.Errorf("TotalAsked = %d after rejected answer, want 0", resp.State.TotalAsked)
	}
}

func TestAnswer_NoAnswerSentinel(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)

	var resp answerResponse
	rec := doJSON(t, h, http.MethodPost, "/api/session/"+created.ID+"/answer",
		answerRequest{Choice: session.NoAnswer}, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Correct {
		t.Error("timeout should score incorrect")
	}
	if resp.State.WrongCount != 1 {
		t.Errorf("WrongCount = %d, want 1", resp.State.WrongCount)
	}
}

func TestAnswer_AfterFinishConflicts(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	rec := doJSON(t, h, http.MethodPost, "/api/session/"+created.ID+"/answer",
		answerRequest{Choice: 0}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestResult_BeforeFinishConflicts(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/session/"+created.ID+"/result", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestResult_AfterFinish(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	var result domain.SessionResult
	rec := doJSON(t, h, http.MethodGet, "/api/session/"+created.ID+"/result", nil, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result.ID != created.ID {
		t.Errorf("result ID = %q, want %q", result.ID, created.ID)
	}
}

func TestResult_FromHistoryAfterDelete(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	rec := doJSON(t, h, http.MethodDelete, "/api/session/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	var result domain.SessionResult
	rec = doJSON(t, h, http.MethodGet, "/api/session/"+created.ID+"/result", nil, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (banked history)", rec.Code)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodDelete, "/api/session/ghost", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ─── Progress Endpoints ─────────────────────────────────────────────────────

func TestProgressAfterSession(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	var resp struct {
		Snapshot domain.ProgressSnapshot `json:"snapshot"`
		Level    int                     `json:"level"`
	}
	rec := doJSON(t, h, http.MethodGet, "/api/progress", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Snapshot.XP == 0 {
		t.Error("snapshot XP should be non-zero after a banked session")
	}
	if resp.Snapshot.LevelClears != 2 {
		t.Errorf("LevelClears = %d, want 2", resp.Snapshot.LevelClears)
	}
	if resp.Level < 1 {
		t.Errorf("Level = %d, want >= 1", resp.Level)
	}
}

func TestLedgerEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	var resp struct {
		Balance int64                `json:"balance"`
		Entries []domain.LedgerEntry `json:"entries"`
	}
	rec := doJSON(t, h, http.MethodGet, "/api/ledger", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Balance == 0 {
		t.Error("balance should be non-zero")
	}
	if len(resp.Entries) == 0 {
		t.Error("ledger entries should be present")
	}
}

func TestMilestonesEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	var resp struct {
		Catalog []domain.MilestoneRule `json:"catalog"`
	}
	rec := doJSON(t, h, http.MethodGet, "/api/milestones", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Catalog) == 0 {
		t.Error("catalog should not be empty")
	}
}

func TestStreakCheckInEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	var rec1 domain.DailyStreakRecord
	code := doJSON(t, h, http.MethodPost, "/api/streak/checkin", nil, &rec1)
	if code.Code != http.StatusOK {
		t.Fatalf("status = %d", code.Code)
	}
	if rec1.Count != 1 {
		t.Errorf("Count = %d, want 1", rec1.Count)
	}

	// Same day again: idempotent.
	var rec2 domain.DailyStreakRecord
	doJSON(t, h, http.MethodPost, "/api/streak/checkin", nil, &rec2)
	if rec2.Count != 1 {
		t.Errorf("Count = %d after same-day checkin, want 1", rec2.Count)
	}
}

func TestSessionHistoryEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	created := startSession(t, h)
	answerAll(t, h, created.ID, 0)

	var resp struct {
		Sessions []domain.SessionResult `json:"sessions"`
	}
	rec := doJSON(t, h, http.MethodGet, "/api/sessions", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Sessions) != 1 {
		t.Errorf("len(sessions) = %d, want 1", len(resp.Sessions))
	}
}

func TestCORS_ConfiguredOriginsEnforced(t *testing.T) {
	srv := newTestServer(t)
	srv.SetCORSOrigins([]string{"https://play.whylee.example"})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Origin", "https://play.whylee.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://play.whylee.example" {
		t.Errorf("Allow-Origin = %q, want the configured origin echoed", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for an unlisted origin, want no header", got)
	}
}

func TestCORS_DefaultAllowsAll(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q with no configured origins, want *", got)
	}
}

func TestHealthEndpointWithoutChecker(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
