// Package milestone evaluates unlockable rewards (skins, badges, boosts)
// against cumulative player stats. Evaluation is pure; persisting newly
// unlocked rewards is the caller's job.
package milestone

import "github.com/whylee-play/whylee/internal/domain"

// Evaluation splits the satisfied rules into newly unlocked and already
// held. Boosts are stateless and recomputed every evaluation, so a boost
// whose requirement holds always lands in Newly — callers must not treat
// Newly as write-once for boosts.
type Evaluation struct {
	Newly       []domain.MilestoneRule `json:"newly"`
	AlreadyHeld []domain.MilestoneRule `json:"already_held"`
	Level       int                    `json:"level"`
}

// Evaluate checks every catalog rule against the snapshot. Skins and badges
// already present in the held sets move to AlreadyHeld; evaluation does not
// mutate the held sets, so calling twice without persisting re-reports the
// same skins and badges as newly unlocked.
func Evaluate(snapshot domain.ProgressSnapshot, heldSkins, heldBadges []string) Evaluation {
	return EvaluateRules(Catalog(), snapshot, heldSkins, heldBadges)
}

// EvaluateRules is Evaluate over an explicit rule set, for tests and
// host-supplied catalogs.
func EvaluateRules(rules []domain.MilestoneRule, snapshot domain.ProgressSnapshot, heldSkins, heldBadges []string) Evaluation {
	skins := toSet(heldSkins)
	badges := toSet(heldBadges)

	ev := Evaluation{Level: snapshot.EffectiveLevel()}
	for _, rule := range rules {
		if !rule.Requires.Met(snapshot) {
			continue
		}
		switch rule.Kind {
		case domain.MilestoneSkin:
			if skins[rule.ID] {
				ev.AlreadyHeld = append(ev.AlreadyHeld, rule)
			} else {
				ev.Newly = append(ev.Newly, rule)
			}
		case domain.MilestoneBadge:
			if badges[rule.ID] {
				ev.AlreadyHeld = append(ev.AlreadyHeld, rule)
			} else {
				ev.Newly = append(ev.Newly, rule)
			}
		default:
			// Boosts are never deduplicated against a held set.
			ev.Newly = append(ev.Newly, rule)
		}
	}
	return ev
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ─── Milestone Catalog ──────────────────────────────────────────────────────
// Static configuration, never mutated at runtime.

// Catalog returns the full milestone table.
func Catalog() []domain.MilestoneRule {
	return []domain.MilestoneRule{
		// ── Avatar skins ───────────────────────────────────────────────
		{
			ID: "skin:tiger-aurora", Name: "Tiger Aurora", Kind: domain.MilestoneSkin,
			Requires: domain.MilestoneRequirement{XP: 3000, Level: 12},
		},
		{
			ID: "skin:dragon-ember", Name: "Dragon Ember", Kind: domain.MilestoneSkin,
			Requires: domain.MilestoneRequirement{Streak: 14},
		},
		{
			ID: "skin:wolf-midnight", Name: "Wolf Midnight", Kind: domain.MilestoneSkin,
			Requires: domain.MilestoneRequirement{Streak: 7, XP: 1200},
		},
		{
			ID: "skin:bear-regal", Name: "Bear Regal", Kind: domain.MilestoneSkin,
			Requires: domain.MilestoneRequirement{Level: 15},
		},

		// ── Badges ─────────────────────────────────────────────────────
		{
			ID: "badge:first-win", Name: "First Win", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{LevelClears: 1},
		},
		{
			ID: "badge:streak-7", Name: "7 Day Streak", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{Streak: 7},
		},
		{
			ID: "badge:streak-30", Name: "30 Day Streak", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{Streak: 30},
		},
		{
			ID: "badge:xp-5k", Name: "5,000 XP", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{XP: 5000},
		},
		{
			ID: "badge:perfect-l1", Name: "Perfect L1", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{PerfectLevels: []int{1}},
		},
		{
			ID: "badge:perfect-all", Name: "Perfect All", Kind: domain.MilestoneBadge,
			Requires: domain.MilestoneRequirement{PerfectLevels: []int{1, 2, 3}},
		},

		// ── Boosts ─────────────────────────────────────────────────────
		{
			ID: "boost:pro-xp-1p", Name: "Pro XP Boost", Kind: domain.MilestoneBoost,
			Requires: domain.MilestoneRequirement{Pro: true, Streak: 10},
			Meta:     map[string]float64{"xpBonus": 0.01},
		},
	}
}
