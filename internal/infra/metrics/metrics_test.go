package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestSessionMetrics(t *testing.T) {
	SessionsStarted.Inc()
	SessionsFinished.Inc()
	SessionsActive.Set(2)
	SessionDuration.Observe(240)

	names := gatheredNames(t)
	expected := []string{
		"whylee_sessions_started_total",
		"whylee_sessions_finished_total",
		"whylee_sessions_active",
		"whylee_session_duration_seconds",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestAnswerMetrics(t *testing.T) {
	Answers.WithLabelValues("correct").Add(30)
	Answers.WithLabelValues("wrong").Add(5)
	Answers.WithLabelValues("timeout").Inc()
	PerfectLevels.Inc()
	DifficultyShifts.WithLabelValues("hard").Inc()

	names := gatheredNames(t)
	expected := []string{
		"whylee_answers_total",
		"whylee_perfect_levels_total",
		"whylee_difficulty_shifts_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestXPMetrics(t *testing.T) {
	XPEarned.WithLabelValues("SESSION_BANK").Add(510)
	XPEarned.WithLabelValues("STREAK_BONUS").Add(26)
	XPBalance.Set(536)

	names := gatheredNames(t)
	if !names["whylee_xp_earned_total"] {
		t.Error("whylee_xp_earned_total not found")
	}
	if !names["whylee_xp_balance_current"] {
		t.Error("whylee_xp_balance_current not found")
	}
}

func TestStreakAndMilestoneMetrics(t *testing.T) {
	DayStreak.Set(7)
	MilestoneUnlocks.WithLabelValues("badge").Inc()
	MilestoneUnlocks.WithLabelValues("skin").Inc()

	names := gatheredNames(t)
	if !names["whylee_day_streak_current"] {
		t.Error("whylee_day_streak_current not found")
	}
	if !names["whylee_milestone_unlocks_total"] {
		t.Error("whylee_milestone_unlocks_total not found")
	}
}

func TestHealthMetrics(t *testing.T) {
	HealthCheckStatus.WithLabelValues("sqlite").Set(1)
	HealthCheckStatus.WithLabelValues("question_bank").Set(0)

	names := gatheredNames(t)
	if !names["whylee_health_check_status"] {
		t.Error("whylee_health_check_status not found")
	}
}

func TestAllMetricsGatherable(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	whyleeMetrics := 0
	for _, f := range families {
		if len(f.GetName()) > 7 && f.GetName()[:7] == "whylee_" {
			whyleeMetrics++
		}
	}

	if whyleeMetrics < 10 {
		t.Errorf("expected at least 10 whylee_ metrics, got %d", whyleeMetrics)
	}
}
