// Package progress banks finished sessions into durable player state:
// XP ledger entries, the daily streak, session history, and milestone
// unlocks. It is the only writer of cumulative stats; the session engine
// stays ignorant of persistence.
package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/whylee-play/whylee/internal/app/ledger"
	"github.com/whylee-play/whylee/internal/app/milestone"
	"github.com/whylee-play/whylee/internal/app/streak"
	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Progress KV keys.
const (
	keyPlan          = "plan"
	keyLevelClears   = "level_clears"
	keyPerfectLevels = "perfect_levels"
)

// Service applies session results to player progress.
type Service struct {
	db      *sqlite.DB
	xp      *ledger.Service
	streaks *streak.Service
	now     func() time.Time
}

// NewService creates a progress service over shared storage.
func NewService(db *sqlite.DB) *Service {
	return &Service{
		db:      db,
		xp:      ledger.NewService(db),
		streaks: streak.NewService(db),
		now:     time.Now,
	}
}

// Ledger exposes the XP ledger for balance and history queries.
func (s *Service) Ledger() *ledger.Service { return s.xp }

// Streaks exposes the daily streak tracker.
func (s *Service) Streaks() *streak.Service { return s.streaks }

// BankReport summarizes everything a banked session changed.
type BankReport struct {
	Result        domain.SessionResult     `json:"result"`
	AlreadyBanked bool                     `json:"already_banked"`
	Streak        domain.DailyStreakRecord `json:"streak"`
	Multiplier    float64                  `json:"multiplier"`
	XPBanked      int64                    `json:"xp_banked"`
	StreakBonus   int64                    `json:"streak_bonus"`
	Milestones    milestone.Evaluation     `json:"milestones"`
}

// Bank applies a finished session: records history, checks in the daily
// streak when at least one level was cleared, writes XP ledger entries
// with the streak multiplier applied, and persists newly unlocked skins
// and badges. Banking the same session twice is a no-op.
func (s *Service) Bank(result domain.SessionResult) (BankReport, error) {
	report := BankReport{Result: result, Multiplier: 1.0}

	existing, err := s.db.GetSessionResult(result.ID)
	if err != nil {
		return report, fmt.Errorf("check session history: %w", err)
	}
	if existing != nil {
		report.AlreadyBanked = true
		return report, nil
	}

	if err := s.db.InsertSessionResult(result); err != nil {
		return report, fmt.Errorf("record session: %w", err)
	}

	// A day only counts toward the streak when the player cleared
	// at least one level.
	rec, err := s.streaks.Current()
	if err != nil {
		return report, fmt.Errorf("load streak: %w", err)
	}
	if result.LevelClears >= 1 {
		rec, err = s.streaks.CheckIn(result.FinishedAt)
		if err != nil {
			return report, fmt.Errorf("streak check-in: %w", err)
		}
	}
	report.Streak = rec
	report.Multiplier = rec.Multiplier()

	if result.XPEarned > 0 {
		total := ledger.ApplyMultiplier(result.XPEarned, report.Multiplier)
		bonus := total - result.XPEarned

		err = s.xp.Earn(result.XPEarned, domain.XPSessionBank, result.ID,
			fmt.Sprintf("session payout %d/%d", result.TotalCorrect, result.TotalAsked))
		if err != nil {
			return report, fmt.Errorf("bank session xp: %w", err)
		}
		report.XPBanked = result.XPEarned

		if bonus > 0 {
			err = s.xp.Earn(bonus, domain.XPStreakBonus, result.ID,
				fmt.Sprintf("streak x%.2f", report.Multiplier))
			if err != nil {
				return report, fmt.Errorf("bank streak bonus: %w", err)
			}
			report.StreakBonus = bonus
		}
	}

	if err := s.addLevelStats(result); err != nil {
		return report, err
	}

	snapshot, err := s.Snapshot()
	if err != nil {
		return report, fmt.Errorf("snapshot: %w", err)
	}
	report.Milestones = milestone.Evaluate(snapshot, snapshot.UnlockedSkins, snapshot.Badges)

	// Persist skins and badges; boosts are recomputed every evaluation.
	for _, rule := range report.Milestones.Newly {
		if rule.Kind == domain.MilestoneBoost {
			continue
		}
		if _, err := s.db.Unlock(rule.ID, rule.Kind, s.now()); err != nil {
			return report, fmt.Errorf("persist unlock %s: %w", rule.ID, err)
		}
		log.Printf("[progress] unlocked %s %q", rule.Kind, rule.ID)
	}

	return report, nil
}

// Snapshot assembles the cumulative stats view fed to milestone
// evaluation and the API.
func (s *Service) Snapshot() (domain.ProgressSnapshot, error) {
	var snap domain.ProgressSnapshot

	xp, err := s.xp.Balance()
	if err != nil {
		return snap, fmt.Errorf("xp balance: %w", err)
	}
	snap.XP = xp

	rec, err := s.streaks.Current()
	if err != nil {
		return snap, fmt.Errorf("streak: %w", err)
	}
	snap.DayStreak = rec.Count

	clears, err := s.db.GetProgress(keyLevelClears)
	if err != nil {
		return snap, fmt.Errorf("level clears: %w", err)
	}
	if clears != "" {
		snap.LevelClears, _ = strconv.Atoi(clears)
	}

	perfects, err := s.db.GetProgress(keyPerfectLevels)
	if err != nil {
		return snap, fmt.Errorf("perfect levels: %w", err)
	}
	if perfects != "" {
		if err := json.Unmarshal([]byte(perfects), &snap.PerfectLevels); err != nil {
			return snap, fmt.Errorf("decode perfect levels: %w", err)
		}
	}

	for _, u := range s.mustListUnlocks(domain.MilestoneSkin) {
		snap.UnlockedSkins = append(snap.UnlockedSkins, u.ID)
	}
	for _, u := range s.mustListUnlocks(domain.MilestoneBadge) {
		snap.Badges = append(snap.Badges, u.ID)
	}

	plan, err := s.Plan()
	if err != nil {
		return snap, err
	}
	snap.Pro = plan.Pro()

	return snap, nil
}

// Plan returns the stored entitlement plan, defaulting to free.
func (s *Service) Plan() (domain.Plan, error) {
	v, err := s.db.GetProgress(keyPlan)
	if err != nil {
		return domain.PlanFree, fmt.Errorf("get plan: %w", err)
	}
	if v == "" {
		return domain.PlanFree, nil
	}
	return domain.Plan(v), nil
}

// SetPlan stores the entitlement plan. The core trusts the caller;
// verifying the purchase is out of scope here.
func (s *Service) SetPlan(p domain.Plan) error {
	switch p {
	case domain.PlanFree, domain.PlanTrial, domain.PlanPro:
	default:
		return fmt.Errorf("unknown plan %q", p)
	}
	return s.db.SetProgress(keyPlan, string(p))
}

// addLevelStats folds a session's clears and perfect levels into the
// cumulative counters.
func (s *Service) addLevelStats(result domain.SessionResult) error {
	clears := 0
	if v, err := s.db.GetProgress(keyLevelClears); err != nil {
		return fmt.Errorf("level clears: %w", err)
	} else if v != "" {
		clears, _ = strconv.Atoi(v)
	}
	clears += result.LevelClears
	if err := s.db.SetProgress(keyLevelClears, strconv.Itoa(clears)); err != nil {
		return fmt.Errorf("save level clears: %w", err)
	}

	var perfects []int
	if v, err := s.db.GetProgress(keyPerfectLevels); err != nil {
		return fmt.Errorf("perfect levels: %w", err)
	} else if v != "" {
		if err := json.Unmarshal([]byte(v), &perfects); err != nil {
			return fmt.Errorf("decode perfect levels: %w", err)
		}
	}
	perfects = mergeInts(perfects, result.PerfectLevels)
	encoded, err := json.Marshal(perfects)
	if err != nil {
		return err
	}
	return s.db.SetProgress(keyPerfectLevels, string(encoded))
}

func (s *Service) mustListUnlocks(kind domain.MilestoneKind) []domain.Unlock {
	unlocks, err := s.db.ListUnlocks(kind)
	if err != nil {
		log.Printf("[progress] list %s unlocks: %v", kind, err)
		return nil
	}
	return unlocks
}

func mergeInts(have, add []int) []int {
	seen := make(map[int]bool, len(have))
	for _, v := range have {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			have = append(have, v)
		}
	}
	sort.Ints(have)
	return have
}
