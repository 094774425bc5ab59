// Package streak tracks the consecutive-day play streak.
// The date arithmetic is pure; Service adds persistence through the
// progress key-value store. Streaks break silently — a missed day just
// resets the count to 1 on the next check-in.
package streak

import (
	"fmt"
	"strconv"
	"time"

	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Advance computes the streak record after activity on the given day.
// Same calendar day is a no-op, the day after the last activity extends
// the streak, and any larger gap resets the count to 1 (never 0).
func Advance(today time.Time, rec domain.DailyStreakRecord) domain.DailyStreakRecord {
	day := dateOf(today)

	if !rec.LastActive.IsZero() {
		last := dateOf(rec.LastActive)
		if day.Equal(last) {
			return rec // already counted today
		}
		if day.Sub(last) == 24*time.Hour {
			rec.Count++
			rec.LastActive = day
			return rec
		}
	}

	rec.Count = 1
	rec.LastActive = day
	return rec
}

// dateOf reduces a time to its calendar date in the time's own location,
// normalized to midnight UTC so day arithmetic is exact. Bucketing on
// absolute 24h windows would merge two local evenings east of UTC into
// one day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Service persists the streak record in the progress KV table.
type Service struct {
	db *sqlite.DB
}

// NewService creates a streak service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Current loads the streak record.
func (s *Service) Current() (domain.DailyStreakRecord, error) {
	var rec domain.DailyStreakRecord

	count, err := s.db.GetProgress("streak_count")
	if err != nil {
		return rec, fmt.Errorf("get streak_count: %w", err)
	}
	if count != "" {
		rec.Count, _ = strconv.Atoi(count)
	}

	last, err := s.db.GetProgress("streak_last_date")
	if err != nil {
		return rec, fmt.Errorf("get streak_last_date: %w", err)
	}
	if last != "" {
		ts, _ := strconv.ParseInt(last, 10, 64)
		rec.LastActive = time.Unix(ts, 0).UTC()
	}

	return rec, nil
}

// CheckIn records activity for the given day and persists the result.
// Calling twice on the same calendar day is idempotent.
func (s *Service) CheckIn(day time.Time) (domain.DailyStreakRecord, error) {
	rec, err := s.Current()
	if err != nil {
		return rec, err
	}

	updated := Advance(day, rec)
	if err := s.save(updated); err != nil {
		return rec, err
	}
	return updated, nil
}

func (s *Service) save(rec domain.DailyStreakRecord) error {
	if err := s.db.SetProgress("streak_count", strconv.Itoa(rec.Count)); err != nil {
		return fmt.Errorf("save streak_count: %w", err)
	}
	if err := s.db.SetProgress("streak_last_date", strconv.FormatInt(rec.LastActive.Unix(), 10)); err != nil {
		return fmt.Errorf("save streak_last_date: %w", err)
	}
	return nil
}
