// Package ledger implements the double-entry XP ledger.
// Every XP award creates matched DEBIT/CREDIT entries; SUM(debits) ==
// SUM(credits) is an invariant. XP is never spent, only earned, so the
// player balance is monotonically increasing.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Account names. The pool is the source side of every award.
const (
	AccountPlayer = "player"
	AccountPool   = "xp_pool"
)

// Service manages the XP economy.
type Service struct {
	db *sqlite.DB
}

// NewService creates an XP ledger service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Balance returns the player's lifetime XP.
func (s *Service) Balance() (int64, error) {
	return s.db.LedgerBalance(AccountPlayer)
}

// Earn records XP earned from play.
// Creates matched DEBIT (xp_pool) and CREDIT (player) entries.
func (s *Service) Earn(amount int64, source domain.XPSource, sessionID, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("earn amount must be positive, got %d", amount)
	}

	now := time.Now()

	poolBal, err := s.db.LedgerBalance(AccountPool)
	if err != nil {
		return fmt.Errorf("get pool balance: %w", err)
	}
	playerBal, err := s.db.LedgerBalance(AccountPlayer)
	if err != nil {
		return fmt.Errorf("get player balance: %w", err)
	}

	// DEBIT xp_pool (source of XP)
	_, err = s.db.InsertLedgerEntry(domain.LedgerEntry{
		Timestamp:   now,
		Source:      source,
		EntryType:   domain.EntryDebit,
		Account:     AccountPool,
		Amount:      amount,
		SessionID:   sessionID,
		Description: reason,
		Balance:     poolBal - amount,
	})
	if err != nil {
		return fmt.Errorf("debit xp_pool: %w", err)
	}

	// CREDIT player (destination)
	_, err = s.db.InsertLedgerEntry(domain.LedgerEntry{
		Timestamp:   now,
		Source:      source,
		EntryType:   domain.EntryCredit,
		Account:     AccountPlayer,
		Amount:      amount,
		SessionID:   sessionID,
		Description: reason,
		Balance:     playerBal + amount,
	})
	if err != nil {
		return fmt.Errorf("credit player: %w", err)
	}

	return nil
}

// History returns recent ledger entries for the player.
func (s *Service) History(limit int) ([]domain.LedgerEntry, error) {
	return s.db.LedgerEntries(AccountPlayer, limit)
}

// Verify checks the double-entry invariant over the whole ledger.
func (s *Service) Verify() error {
	debits, credits, err := s.db.LedgerSums()
	if err != nil {
		return err
	}
	if debits != credits {
		return fmt.Errorf("ledger out of balance: debits=%d credits=%d", debits, credits)
	}
	return nil
}

// ApplyMultiplier scales a base XP amount by the streak multiplier,
// rounding half up. The difference between the scaled and base amounts
// is what a STREAK_BONUS entry records.
func ApplyMultiplier(base int64, multiplier float64) int64 {
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	return int64(math.Round(float64(base) * multiplier))
}
