package sqlite

import (
	"database/sql"
	"time"

	"github.com/whylee-play/whylee/internal/domain"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// InsertLedgerEntry adds an XP ledger entry.
func (d *DB) InsertLedgerEntry(entry domain.LedgerEntry) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO xp_ledger (timestamp, source, entry_type, account, amount, session_id, description, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Unix(), string(entry.Source), string(entry.EntryType),
		entry.Account, entry.Amount, nullStr(entry.SessionID), nullStr(entry.Description), entry.Balance,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LedgerBalance returns the current balance for an account.
func (d *DB) LedgerBalance(account string) (int64, error) {
	var balance sql.NullInt64
	err := d.db.QueryRow(
		`SELECT balance FROM xp_ledger WHERE account = ? ORDER BY id DESC LIMIT 1`,
		account,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Int64, nil
}

// LedgerEntries returns recent ledger entries for an account.
func (d *DB) LedgerEntries(account string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, source, entry_type, account, amount, session_id, description, balance
		 FROM xp_ledger WHERE account = ? ORDER BY id DESC LIMIT ?`,
		account, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		var sessionID, desc sql.NullString
		err := rows.Scan(&e.ID, &ts, &e.Source, &e.EntryType, &e.Account,
			&e.Amount, &sessionID, &desc, &e.Balance)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		if sessionID.Valid {
			e.SessionID = sessionID.String
		}
		if desc.Valid {
			e.Description = desc.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LedgerSums returns SUM(debits) and SUM(credits) across all accounts.
// The two must match in a well-formed ledger.
func (d *DB) LedgerSums() (debits, credits int64, err error) {
	row := d.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN entry_type = 'DEBIT' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE 0 END), 0)
		 FROM xp_ledger`,
	)
	err = row.Scan(&debits, &credits)
	return debits, credits, err
}
