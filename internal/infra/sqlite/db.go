// Package sqlite provides SQLite-based persistent storage for Whylee.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/whylee.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "whylee.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Key-value store for player progress (streak, plan, counters)
		`CREATE TABLE IF NOT EXISTS progress (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Unlocked milestones: skins and badges. Boosts are recomputed
		// per evaluation and never persisted.
		`CREATE TABLE IF NOT EXISTS unlocks (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unlocks_kind ON unlocks(kind)`,

		// XP ledger (double-entry bookkeeping)
		`CREATE TABLE IF NOT EXISTS xp_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			source      TEXT NOT NULL,
			entry_type  TEXT NOT NULL,
			account     TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			session_id  TEXT,
			description TEXT,
			balance     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_ts ON xp_ledger(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON xp_ledger(account)`,

		// Completed session history
		`CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			finished_at    INTEGER NOT NULL,
			total_correct  INTEGER NOT NULL,
			total_asked    INTEGER NOT NULL,
			duration_ms    INTEGER NOT NULL,
			xp_earned      INTEGER NOT NULL,
			level_clears   INTEGER NOT NULL,
			perfect_levels TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_finished ON sessions(finished_at)`,

		// Imported question bank
		`CREATE TABLE IF NOT EXISTS questions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			text          TEXT NOT NULL,
			choices       TEXT NOT NULL,
			correct_index INTEGER NOT NULL,
			explanation   TEXT NOT NULL DEFAULT '',
			level         INTEGER NOT NULL,
			difficulty    TEXT NOT NULL DEFAULT 'normal'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_level ON questions(level)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
