package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/whylee-play/whylee/internal/domain"
)

// ─── Session History ────────────────────────────────────────────────────────

// InsertSessionResult records a finished session. Re-inserting the same
// session ID is rejected by the primary key, which keeps banking
// idempotent at the storage layer.
func (d *DB) InsertSessionResult(r domain.SessionResult) error {
	perfects, err := json.Marshal(r.PerfectLevels)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO sessions (id, finished_at, total_correct, total_asked, duration_ms, xp_earned, level_clears, perfect_levels)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FinishedAt.Unix(), r.TotalCorrect, r.TotalAsked,
		r.Duration.Milliseconds(), r.XPEarned, r.LevelClears, string(perfects),
	)
	return err
}

// GetSessionResult retrieves a recorded session by ID.
// Returns nil if not found.
func (d *DB) GetSessionResult(id string) (*domain.SessionResult, error) {
	row := d.db.QueryRow(
		`SELECT id, finished_at, total_correct, total_asked, duration_ms, xp_earned, level_clears, perfect_levels
		 FROM sessions WHERE id = ?`, id,
	)
	return scanSessionResult(row)
}

// ListSessionResults returns recent sessions, newest first.
func (d *DB) ListSessionResults(limit int) ([]domain.SessionResult, error) {
	rows, err := d.db.Query(
		`SELECT id, finished_at, total_correct, total_asked, duration_ms, xp_earned, level_clears, perfect_levels
		 FROM sessions ORDER BY finished_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SessionResult
	for rows.Next() {
		r, err := scanSessionResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// SessionCount returns the total number of recorded sessions.
func (d *DB) SessionCount() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

func scanSessionResult(s scanner) (*domain.SessionResult, error) {
	var r domain.SessionResult
	var finishedAt, durationMS int64
	var perfects string

	err := s.Scan(&r.ID, &finishedAt, &r.TotalCorrect, &r.TotalAsked,
		&durationMS, &r.XPEarned, &r.LevelClears, &perfects)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	r.FinishedAt = time.Unix(finishedAt, 0)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(perfects), &r.PerfectLevels); err != nil {
		return nil, err
	}
	return &r, nil
}
