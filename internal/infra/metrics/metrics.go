// Package metrics provides Prometheus metrics for Whylee — counters,
// gauges, histograms for sessions, answers, XP, milestones, and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Sessions ───────────────────────────────────────────────────────────────

// SessionsStarted tracks started play sessions.
var SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "sessions_started_total",
	Help:      "Total play sessions started.",
})

// SessionsFinished tracks sessions that reached the terminal state.
var SessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "sessions_finished_total",
	Help:      "Total play sessions finished.",
})

// SessionsActive tracks sessions currently in play.
var SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "whylee",
	Name:      "sessions_active",
	Help:      "Number of sessions currently in play.",
})

// SessionDuration tracks wall-clock session length in seconds.
var SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "whylee",
	Name:      "session_duration_seconds",
	Help:      "Wall-clock duration of finished sessions.",
	Buckets:   []float64{30, 60, 120, 240, 480, 900, 1800},
})

// ─── Answers ────────────────────────────────────────────────────────────────

// Answers tracks submitted answers by result (correct, wrong, timeout).
var Answers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "answers_total",
	Help:      "Total answers submitted, by result.",
}, []string{"result"})

// PerfectLevels tracks levels cleared without a wrong answer.
var PerfectLevels = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "perfect_levels_total",
	Help:      "Total levels cleared without a wrong answer.",
})

// DifficultyShifts tracks difficulty adjuster transitions.
var DifficultyShifts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "difficulty_shifts_total",
	Help:      "Difficulty tier selections between levels.",
}, []string{"tier"})

// ─── XP ─────────────────────────────────────────────────────────────────────

// XPEarned tracks total XP credited, by ledger source.
var XPEarned = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "xp_earned_total",
	Help:      "Total XP credited to the player, by source.",
}, []string{"source"})

// XPBalance tracks the current lifetime XP balance.
var XPBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "whylee",
	Name:      "xp_balance_current",
	Help:      "Current lifetime XP balance.",
})

// ─── Streak & Milestones ────────────────────────────────────────────────────

// DayStreak tracks the current consecutive-day streak.
var DayStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "whylee",
	Name:      "day_streak_current",
	Help:      "Current consecutive-day play streak.",
})

// MilestoneUnlocks tracks persisted milestone unlocks by kind.
var MilestoneUnlocks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "whylee",
	Name:      "milestone_unlocks_total",
	Help:      "Total milestones unlocked, by kind.",
}, []string{"kind"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "whylee",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
