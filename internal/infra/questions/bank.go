package questions

import (
	"fmt"
	"math/rand"

	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Bank serves per-level question sets out of the SQLite question store.
// It implements the session engine's Source interface.
type Bank struct {
	db       *sqlite.DB
	perLevel int
	rng      *rand.Rand
	tier     func() domain.Difficulty // nil = serve every tier
}

// NewBank creates a bank that deals perLevel questions per level.
// The seed fixes the shuffle order, which keeps replays reproducible.
func NewBank(db *sqlite.DB, perLevel int, seed int64) *Bank {
	return &Bank{
		db:       db,
		perLevel: perLevel,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// FilterBy installs a difficulty hook, typically the session adjuster's
// Current method. The bank consults it once per level.
func (b *Bank) FilterBy(tier func() domain.Difficulty) {
	b.tier = tier
}

// QuestionsForLevel returns a shuffled set for the level. When the hook
// is installed and enough questions carry the current tier, only those
// are dealt; otherwise the whole level pool is used. Short pools are
// padded by recycling earlier questions rather than failing the level.
func (b *Bank) QuestionsForLevel(level int) ([]domain.Question, error) {
	pool, err := b.db.QuestionsForLevel(level)
	if err != nil {
		return nil, fmt.Errorf("load level %d: %w", level, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: level %d", domain.ErrShortLevelSet, level)
	}

	if b.tier != nil {
		if filtered := filterTier(pool, b.tier()); len(filtered) >= b.perLevel {
			pool = filtered
		}
	}

	b.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > b.perLevel {
		pool = pool[:b.perLevel]
	}
	for i := 0; len(pool) < b.perLevel; i++ {
		pool = append(pool, pool[i])
	}
	return pool, nil
}

func filterTier(pool []domain.Question, tier domain.Difficulty) []domain.Question {
	var out []domain.Question
	for _, q := range pool {
		if q.Difficulty == tier {
			out = append(out, q)
		}
	}
	return out
}
