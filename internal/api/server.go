// Package api provides the HTTP server for Whylee.
// It exposes the game API: sessions, answers, progress, milestones,
// the daily streak, and the XP ledger.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/app/session"
	"github.com/whylee-play/whylee/internal/health"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Server is the Whylee HTTP API server.
type Server struct {
	cfg            session.Config
	db             *sqlite.DB
	progress       *progress.Service
	sessions       *Registry
	health         *health.Checker
	seed           int64
	corsOrigins    []string
	metricsEnabled bool
}

// NewServer creates a new API server over shared storage.
func NewServer(cfg session.Config, db *sqlite.DB, prog *progress.Service, seed int64) *Server {
	return &Server{
		cfg:      cfg,
		db:       db,
		progress: prog,
		sessions: NewRegistry(),
		seed:     seed,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetCORSOrigins restricts cross-origin requests to the given origins.
// Empty, or any entry of "*", allows every origin.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetHealth attaches a health checker to the /health endpoint.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware(s.corsOrigins))

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": "0.1.0",
		})
	})

	// Game endpoints
	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleCreateSession)
		r.Get("/session/{id}", s.handleSessionState)
		r.Post("/session/{id}/answer", s.handleAnswer)
		r.Get("/session/{id}/result", s.handleSessionResult)
		r.Delete("/session/{id}", s.handleDeleteSession)

		r.Get("/progress", s.handleProgress)
		r.Get("/milestones", s.handleMilestones)
		r.Post("/streak/checkin", s.handleStreakCheckIn)
		r.Get("/streak", s.handleStreak)
		r.Get("/ledger", s.handleLedger)
		r.Get("/sessions", s.handleSessionHistory)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, label := http.StatusOK, "ok"
	if !s.health.IsHealthy() {
		status, label = http.StatusServiceUnavailable, "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": label,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the browser client, limited to
// the configured origins. No configured origins means allow all.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[r.Header.Get("Origin")]:
				w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
