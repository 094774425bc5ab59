package domain

import (
	"math"
	"time"
)

// ─── Daily Streak ───────────────────────────────────────────────────────────

// DailyStreakRecord tracks consecutive days of play.
// Mutated only by the streak tracker; persisted once per calendar day.
type DailyStreakRecord struct {
	Count      int       `json:"count"`
	LastActive time.Time `json:"last_active"` // zero = never played
}

// Multiplier returns the streak XP multiplier.
// +5% per day, capped at 2.0x.
func (r DailyStreakRecord) Multiplier() float64 {
	m := 1.0 + float64(r.Count)*0.05
	if m > 2.0 {
		m = 2.0
	}
	return m
}

// ─── Entitlement Plan ───────────────────────────────────────────────────────

// Plan is the entitlement tier. The core consumes it; billing computes it.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanTrial Plan = "trial"
	PlanPro   Plan = "pro"
)

// Pro reports whether the plan grants Pro features.
// A trial counts as Pro for the duration of the trial window.
func (p Plan) Pro() bool {
	return p == PlanPro || p == PlanTrial
}

// ─── Progress Snapshot ──────────────────────────────────────────────────────

// ProgressSnapshot is a read-only view of cumulative player stats,
// fed to milestone evaluation after each session.
type ProgressSnapshot struct {
	XP            int64    `json:"xp"`
	Level         int      `json:"level"` // 0 = derive from XP
	DayStreak     int      `json:"day_streak"`
	LevelClears   int      `json:"level_clears"`
	PerfectLevels []int    `json:"perfect_levels"`
	Badges        []string `json:"badges"`
	UnlockedSkins []string `json:"unlocked_skins"`
	Pro           bool     `json:"pro"`
}

// EffectiveLevel returns the explicit level, or the derived one when unset.
func (s ProgressSnapshot) EffectiveLevel() int {
	if s.Level > 0 {
		return s.Level
	}
	return LevelForXP(s.XP)
}

// LevelForXP maps accumulated XP to a player level.
// Deliberately sub-linear: level = max(1, floor(0.1 * sqrt(xp)) + 1),
// so each level costs more XP than the last.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	level := int(math.Floor(0.1*math.Sqrt(float64(xp)))) + 1
	if level < 1 {
		level = 1
	}
	return level
}

// ─── Milestones ─────────────────────────────────────────────────────────────

// MilestoneKind categorizes an unlockable reward.
type MilestoneKind string

const (
	MilestoneSkin  MilestoneKind = "skin"
	MilestoneBadge MilestoneKind = "badge"
	MilestoneBoost MilestoneKind = "boost"
)

// MilestoneRequirement is a conjunction over player stats. A zero-valued
// field is unspecified and always passes; Pro=true requires a Pro plan.
type MilestoneRequirement struct {
	XP            int64 `json:"xp,omitempty"`
	Streak        int   `json:"streak,omitempty"`
	Level         int   `json:"level,omitempty"`
	Pro           bool  `json:"pro,omitempty"`
	LevelClears   int   `json:"level_clears,omitempty"`
	PerfectLevels []int `json:"perfect_levels,omitempty"` // all listed levels must be perfect
}

// Met reports whether the snapshot satisfies every specified field.
func (req MilestoneRequirement) Met(s ProgressSnapshot) bool {
	if req.XP > 0 && s.XP < req.XP {
		return false
	}
	if req.Streak > 0 && s.DayStreak < req.Streak {
		return false
	}
	if req.Level > 0 && s.EffectiveLevel() < req.Level {
		return false
	}
	if req.Pro && !s.Pro {
		return false
	}
	if req.LevelClears > 0 && s.LevelClears < req.LevelClears {
		return false
	}
	for _, lvl := range req.PerfectLevels {
		if !containsInt(s.PerfectLevels, lvl) {
			return false
		}
	}
	return true
}

// MilestoneRule defines a single unlockable. Static configuration,
// never mutated at runtime.
type MilestoneRule struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Kind     MilestoneKind        `json:"kind"`
	Requires MilestoneRequirement `json:"requires"`
	Meta     map[string]float64   `json:"meta,omitempty"` // e.g. xpBonus for boosts
}

// Unlock is a persisted milestone the player holds. Only skins and
// badges are stored; boosts are recomputed on every evaluation.
type Unlock struct {
	ID         string        `json:"id"`
	Kind       MilestoneKind `json:"kind"`
	UnlockedAt time.Time     `json:"unlocked_at"`
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// XPSource categorizes how XP was earned.
type XPSource string

const (
	XPCorrectAnswer   XPSource = "CORRECT_ANSWER"
	XPLevelClear      XPSource = "LEVEL_CLEAR"
	XPPerfectLevel    XPSource = "PERFECT_LEVEL"
	XPDailyCompletion XPSource = "DAILY_COMPLETION"
	XPSessionBank     XPSource = "SESSION_BANK"
	XPStreakBonus     XPSource = "STREAK_BONUS"
)

// EntryType marks the side of a double-entry ledger row.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// LedgerEntry is one row of the XP ledger. Every award writes a matched
// DEBIT (xp_pool) and CREDIT (player) pair; SUM(debits) == SUM(credits).
type LedgerEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      XPSource  `json:"source"`
	EntryType   EntryType `json:"entry_type"`
	Account     string    `json:"account"`
	Amount      int64     `json:"amount"`
	SessionID   string    `json:"session_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Balance     int64     `json:"balance"`
}
