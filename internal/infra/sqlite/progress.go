package sqlite

import (
	"database/sql"
	"time"

	"github.com/whylee-play/whylee/internal/domain"
)

// ─── Progress Key-Value ─────────────────────────────────────────────────────

// SetProgress stores a progress key-value pair.
func (d *DB) SetProgress(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO progress (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// GetProgress retrieves a progress value by key.
// Returns "" if key not found.
func (d *DB) GetProgress(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM progress WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// DeleteProgress removes a progress key. Missing keys are not an error.
func (d *DB) DeleteProgress(key string) error {
	_, err := d.db.Exec(`DELETE FROM progress WHERE key = ?`, key)
	return err
}

// ─── Unlocks ────────────────────────────────────────────────────────────────

// Unlock records a milestone as unlocked.
// Returns false if already unlocked (idempotent).
func (d *DB) Unlock(id string, kind domain.MilestoneKind, at time.Time) (bool, error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO unlocks (id, kind, unlocked_at) VALUES (?, ?, ?)`,
		id, string(kind), at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil // true = newly unlocked
}

// IsUnlocked checks whether a milestone has been unlocked.
func (d *DB) IsUnlocked(id string) (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM unlocks WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUnlocks returns unlocked milestones, optionally filtered by kind.
func (d *DB) ListUnlocks(kind domain.MilestoneKind) ([]domain.Unlock, error) {
	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = d.db.Query(
			`SELECT id, kind, unlocked_at FROM unlocks ORDER BY unlocked_at DESC`)
	} else {
		rows, err = d.db.Query(
			`SELECT id, kind, unlocked_at FROM unlocks WHERE kind = ? ORDER BY unlocked_at DESC`,
			string(kind))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unlocks []domain.Unlock
	for rows.Next() {
		var u domain.Unlock
		var unlockedAt int64
		if err := rows.Scan(&u.ID, &u.Kind, &unlockedAt); err != nil {
			return nil, err
		}
		u.UnlockedAt = time.Unix(unlockedAt, 0)
		unlocks = append(unlocks, u)
	}
	return unlocks, rows.Err()
}

// UnlockCount returns the total number of unlocked milestones.
func (d *DB) UnlockCount() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM unlocks`).Scan(&count)
	return count, err
}
