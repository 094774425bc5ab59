// Package domain holds the core Whylee types.
// Domain types are pure — no infrastructure dependency.
package domain

import "fmt"

// ─── Difficulty ─────────────────────────────────────────────────────────────

// Difficulty is the tier a question belongs to.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the three known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}

// ─── Question ───────────────────────────────────────────────────────────────

// MaxChoices is the largest allowed answer set per question.
const MaxChoices = 4

// MinChoices is the smallest allowed answer set per question.
const MinChoices = 2

// Question is a single multiple-choice question. Immutable once loaded;
// the session engine only ever reads it.
type Question struct {
	Text         string     `json:"text"`
	Choices      []string   `json:"choices"`
	CorrectIndex int        `json:"correct_index"`
	Explanation  string     `json:"explanation,omitempty"`
	Level        int        `json:"level"`
	Difficulty   Difficulty `json:"difficulty"`
}

// Validate checks the structural invariants of a question.
// A violation is fatal to the session that receives the question —
// the engine never substitutes or repairs data it was given.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty question text", ErrMalformedQuestion)
	}
	if len(q.Choices) < MinChoices || len(q.Choices) > MaxChoices {
		return fmt.Errorf("%w: %d choices (want %d-%d)", ErrMalformedQuestion, len(q.Choices), MinChoices, MaxChoices)
	}
	for i, c := range q.Choices {
		if c == "" {
			return fmt.Errorf("%w: empty choice %d", ErrMalformedQuestion, i)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return fmt.Errorf("%w: correct index %d outside %d choices", ErrMalformedQuestion, q.CorrectIndex, len(q.Choices))
	}
	if q.Level < 1 {
		return fmt.Errorf("%w: level %d", ErrMalformedQuestion, q.Level)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", ErrMalformedQuestion, q.Difficulty)
	}
	return nil
}
