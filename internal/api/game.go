package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/whylee-play/whylee/internal/app/milestone"
	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/app/session"
	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/metrics"
	"github.com/whylee-play/whylee/internal/infra/questions"
)

// ─── Session Registry ───────────────────────────────────────────────────────

// Registry holds live session engines. Engines are not safe for
// concurrent use, so every engine call happens under the registry lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Engine
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session.Engine)}
}

// Add registers an engine under its ID.
func (r *Registry) Add(e *session.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[e.ID()] = e
}

// With runs fn against the named engine under the lock.
func (r *Registry) With(id string, fn func(*session.Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	return fn(e)
}

// Remove drops a session. Returns false if it was not present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ─── Session Handlers ───────────────────────────────────────────────────────

// questionView is a question as served to clients. The correct index and
// explanation are withheld until the question has been answered.
type questionView struct {
	Text       string            `json:"text"`
	Choices    []string          `json:"choices"`
	Level      int               `json:"level"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

func viewOf(q domain.Question) *questionView {
	return &questionView{
		Text:       q.Text,
		Choices:    q.Choices,
		Level:      q.Level,
		Difficulty: q.Difficulty,
	}
}

type sessionResponse struct {
	ID       string        `json:"id"`
	State    session.State `json:"state"`
	Question *questionView `json:"question,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	bank := questions.NewBank(s.db, s.cfg.Rules.QuestionsPerLevel, s.sessionSeed())
	eng := session.New(s.cfg, bank)
	bank.FilterBy(eng.Adjuster().Current)

	if err := eng.Start(); err != nil {
		writeGameError(w, err)
		return
	}
	s.sessions.Add(eng)

	metrics.SessionsStarted.Inc()
	metrics.SessionsActive.Set(float64(s.sessions.Len()))
	log.Printf("[api] session %s started", eng.ID())

	writeJSON(w, http.StatusCreated, currentView(eng))
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp sessionResponse
	err := s.sessions.With(id, func(e *session.Engine) error {
		resp = currentView(e)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type answerRequest struct {
	Choice    int   `json:"choice"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

type answerResponse struct {
	Correct       bool                  `json:"correct"`
	CorrectChoice int                   `json:"correct_choice"`
	Explanation   string                `json:"explanation,omitempty"`
	State         session.State         `json:"state"`
	Next          *questionView         `json:"next,omitempty"`
	Result        *domain.SessionResult `json:"result,omitempty"`
	Banked        *progress.BankReport  `json:"banked,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resp answerResponse
	var tierBefore domain.Difficulty
	err := s.sessions.With(id, func(e *session.Engine) error {
		tierBefore = e.Adjuster().Current()
		asked, err := e.CurrentQuestion()
		if err != nil {
			return err
		}
		correct, err := e.SubmitAnswer(req.Choice, time.Duration(req.ElapsedMS)*time.Millisecond)
		if err != nil {
			return err
		}
		resp.Correct = correct
		resp.CorrectChoice = asked.CorrectIndex
		resp.Explanation = asked.Explanation
		resp.State = e.State()

		if resp.State.Phase == session.PhaseFinished {
			result, err := e.Result()
			if err != nil {
				return err
			}
			resp.Result = &result
		} else if q, err := e.CurrentQuestion(); err == nil {
			resp.Next = viewOf(q)
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	s.recordAnswer(req.Choice, resp.Correct)
	if resp.State.Difficulty != tierBefore {
		metrics.DifficultyShifts.WithLabelValues(string(resp.State.Difficulty)).Inc()
	}

	if resp.Result != nil {
		report, err := s.progress.Bank(*resp.Result)
		if err != nil {
			log.Printf("[api] bank session %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to bank session")
			return
		}
		resp.Banked = &report
		s.recordFinish(*resp.Result, report)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var result domain.SessionResult
	err := s.sessions.With(id, func(e *session.Engine) error {
		res, err := e.Result()
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		// Fall back to banked history for sessions evicted from memory.
		stored, dbErr := s.db.GetSessionResult(id)
		if dbErr == nil && stored != nil {
			writeJSON(w, http.StatusOK, stored)
			return
		}
	}
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Remove(id) {
		writeGameError(w, domain.ErrSessionNotFound)
		return
	}
	metrics.SessionsActive.Set(float64(s.sessions.Len()))
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// ─── Progress Handlers ──────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.progress.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": snap,
		"level":    snap.EffectiveLevel(),
	})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	snap, err := s.progress.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ev := milestone.Evaluate(snap, snap.UnlockedSkins, snap.Badges)
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog":    milestone.Catalog(),
		"evaluation": ev,
	})
}

func (s *Server) handleStreakCheckIn(w http.ResponseWriter, r *http.Request) {
	rec, err := s.progress.Streaks().CheckIn(time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.DayStreak.Set(float64(rec.Count))
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	rec, err := s.progress.Streaks().Current()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"streak":     rec,
		"multiplier": rec.Multiplier(),
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.progress.Ledger().History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	balance, err := s.progress.Ledger().Balance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance": balance,
		"entries": entries,
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	results, err := s.db.ListSessionResults(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": results})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func currentView(e *session.Engine) sessionResponse {
	resp := sessionResponse{ID: e.ID(), State: e.State()}
	if q, err := e.CurrentQuestion(); err == nil {
		resp.Question = viewOf(q)
	}
	return resp
}

// sessionSeed returns the configured shuffle seed, or a time-based one
// when unset so every session deals differently.
func (s *Server) sessionSeed() int64 {
	if s.seed != 0 {
		return s.seed
	}
	return time.Now().UnixNano()
}

func (s *Server) recordAnswer(choice int, correct bool) {
	switch {
	case correct:
		metrics.Answers.WithLabelValues("correct").Inc()
	case choice == session.NoAnswer:
		metrics.Answers.WithLabelValues("timeout").Inc()
	default:
		metrics.Answers.WithLabelValues("wrong").Inc()
	}
}

func (s *Server) recordFinish(result domain.SessionResult, report progress.BankReport) {
	metrics.SessionsFinished.Inc()
	metrics.SessionDuration.Observe(result.Duration.Seconds())
	for range result.PerfectLevels {
		metrics.PerfectLevels.Inc()
	}
	if report.XPBanked > 0 {
		metrics.XPEarned.WithLabelValues(string(domain.XPSessionBank)).Add(float64(report.XPBanked))
	}
	if report.StreakBonus > 0 {
		metrics.XPEarned.WithLabelValues(string(domain.XPStreakBonus)).Add(float64(report.StreakBonus))
	}
	if balance, err := s.progress.Ledger().Balance(); err == nil {
		metrics.XPBalance.Set(float64(balance))
	}
	metrics.DayStreak.Set(float64(report.Streak.Count))
	for _, rule := range report.Milestones.Newly {
		if rule.Kind != domain.MilestoneBoost {
			metrics.MilestoneUnlocks.WithLabelValues(string(rule.Kind)).Inc()
		}
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// writeGameError maps domain errors to HTTP status codes.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrSessionRunning),
		errors.Is(err, domain.ErrSessionNotStarted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmptyBank),
		errors.Is(err, domain.ErrShortLevelSet):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
