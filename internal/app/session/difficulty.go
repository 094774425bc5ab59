package session

import "github.com/whylee-play/whylee/internal/domain"

// Adjuster picks the difficulty tier for the next question batch from a
// trailing performance ratio. The only state is the current tier.
type Adjuster struct {
	current domain.Difficulty
}

// NewAdjuster starts at normal difficulty.
func NewAdjuster() *Adjuster {
	return &Adjuster{current: domain.DifficultyNormal}
}

// Next maps a performance ratio in [0,1] to a tier and stores it.
// Ratios of exactly 0.85 and 0.5 land on normal (strict comparisons).
func (a *Adjuster) Next(ratio float64) domain.Difficulty {
	switch {
	case ratio > 0.85:
		a.current = domain.DifficultyHard
	case ratio < 0.5:
		a.current = domain.DifficultyEasy
	default:
		a.current = domain.DifficultyNormal
	}
	return a.current
}

// Current returns the stored tier.
func (a *Adjuster) Current() domain.Difficulty { return a.current }
