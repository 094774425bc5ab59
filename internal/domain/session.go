package domain

import (
	"encoding/json"
	"time"
)

// ─── Session Result ─────────────────────────────────────────────────────────

// SessionResult is the immutable summary produced once when a session
// reaches its terminal state.
type SessionResult struct {
	ID            string        `json:"id"`
	TotalCorrect  int           `json:"total_correct"`
	TotalAsked    int           `json:"total_asked"`
	Duration      time.Duration `json:"duration_ms"`
	XPEarned      int64         `json:"xp_earned"`
	PerfectLevels []int         `json:"perfect_levels"`
	LevelClears   int           `json:"level_clears"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// MarshalJSON writes the duration in milliseconds, the unit the field
// name promises. time.Duration would otherwise marshal as nanoseconds.
func (r SessionResult) MarshalJSON() ([]byte, error) {
	type alias SessionResult
	return json.Marshal(struct {
		alias
		DurationMS int64 `json:"duration_ms"`
	}{alias(r), r.Duration.Milliseconds()})
}

// UnmarshalJSON reads duration_ms back as milliseconds.
func (r *SessionResult) UnmarshalJSON(data []byte) error {
	type alias SessionResult
	aux := struct {
		*alias
		DurationMS int64 `json:"duration_ms"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Duration = time.Duration(aux.DurationMS) * time.Millisecond
	return nil
}

// Perfect reports whether the given level was cleared without a wrong answer.
func (r SessionResult) Perfect(level int) bool {
	for _, l := range r.PerfectLevels {
		if l == level {
			return true
		}
	}
	return false
}
