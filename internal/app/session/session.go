// Package session implements the Whylee play-session engine.
// A session walks a fixed ladder of levels, scoring answers, applying the
// redemption rule, and accruing XP until the final level completes.
// The engine is single-writer: the host serializes all mutating calls.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whylee-play/whylee/internal/domain"
)

// NoAnswer is the sentinel choice index the host submits when the
// per-question timer expires. It is scored as incorrect, never rejected.
const NoAnswer = -1

// Rules holds the session pacing parameters.
type Rules struct {
	Levels             int `toml:"levels"`
	QuestionsPerLevel  int `toml:"questions_per_level"`
	RedemptionStreak   int `toml:"redemption_streak"`
	PerQuestionSeconds int `toml:"per_question_seconds"`
}

// XPTable holds the XP awards.
type XPTable struct {
	PerCorrect           int64 `toml:"per_correct"`
	PerLevelClearBonus   int64 `toml:"per_level_clear_bonus"`
	PerfectLevelBonus    int64 `toml:"perfect_level_bonus"`
	DailyCompletionBonus int64 `toml:"daily_completion_bonus"`
}

// Config is the rules configuration, resolved once at session start.
type Config struct {
	Rules Rules
	XP    XPTable
}

// DefaultConfig returns the production pacing: 3 levels of 12 questions,
// 3-in-a-row redemption, 10-second question timer.
func DefaultConfig() Config {
	return Config{
		Rules: Rules{
			Levels:             3,
			QuestionsPerLevel:  12,
			RedemptionStreak:   3,
			PerQuestionSeconds: 10,
		},
		XP: XPTable{
			PerCorrect:           10,
			PerLevelClearBonus:   50,
			PerfectLevelBonus:    30,
			DailyCompletionBonus: 40,
		},
	}
}

// Source supplies the ordered question set for a level. It may consult the
// difficulty adjuster between levels; the engine treats the set as opaque.
type Source interface {
	QuestionsForLevel(level int) ([]domain.Question, error)
}

// Phase is the session state-machine phase.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInLevel    Phase = "in_level"
	PhaseFinished   Phase = "finished"
)

// State is a snapshot of the engine for rendering. The host polls it after
// each call; the engine emits no events of its own.
type State struct {
	Phase          Phase             `json:"phase"`
	Level          int               `json:"level"`
	QuestionIndex  int               `json:"question_index"`
	CorrectStreak  int               `json:"correct_streak"`
	WrongCount     int               `json:"wrong_count"`
	TotalAsked     int               `json:"total_asked"`
	TotalCorrect   int               `json:"total_correct"`
	XP             int64             `json:"xp"`
	LevelClears    int               `json:"level_clears"`
	PerfectLevels  []int             `json:"perfect_levels"`
	AskedInLevel   int               `json:"asked_in_level"`
	CorrectInLevel int               `json:"correct_in_level"`
	ElapsedMS      int64             `json:"elapsed_ms"`
	Difficulty     domain.Difficulty `json:"difficulty"`
}

// Engine drives exactly one play session. Not safe for concurrent use;
// the host must funnel calls through a single control flow.
type Engine struct {
	id       string
	cfg      Config
	source   Source
	adjuster *Adjuster
	now      func() time.Time

	phase         Phase
	level         int
	qIndex        int
	correctStreak int
	wrongCount    int
	totalAsked    int
	totalCorrect  int
	xp            int64
	levelClears   int
	perfectLevels []int
	askedPerLvl   map[int]int
	correctPerLvl map[int]int
	questions     []domain.Question
	startedAt     time.Time
	result        *domain.SessionResult
}

// New creates an engine over the given source. The adjuster starts at
// normal difficulty.
func New(cfg Config, source Source) *Engine {
	return &Engine{
		id:       uuid.NewString(),
		cfg:      cfg,
		source:   source,
		adjuster: NewAdjuster(),
		now:      time.Now,
		phase:    PhaseNotStarted,
	}
}

// ID returns the session's unique identifier.
func (e *Engine) ID() string { return e.id }

// Adjuster returns the engine's difficulty adjuster, for sources that
// filter question sets by tier.
func (e *Engine) Adjuster() *Adjuster { return e.adjuster }

// Start resets all state and enters level 1. Restarting a finished
// session is allowed and begins a fresh run.
func (e *Engine) Start() error {
	if e.phase == PhaseInLevel {
		return domain.ErrSessionRunning
	}
	e.phase = PhaseNotStarted
	e.qIndex = 0
	e.correctStreak = 0
	e.wrongCount = 0
	e.totalAsked = 0
	e.totalCorrect = 0
	e.xp = 0
	e.levelClears = 0
	e.perfectLevels = nil
	e.askedPerLvl = make(map[int]int)
	e.correctPerLvl = make(map[int]int)
	e.result = nil
	e.startedAt = e.now()

	if err := e.beginLevel(1); err != nil {
		return err
	}
	e.phase = PhaseInLevel
	return nil
}

// beginLevel loads and validates the level's question set and resets
// per-level counters. The correct-answer streak resets with the level's
// pacing; wrongCount carries across levels so redemption can still earn
// back earlier mistakes.
func (e *Engine) beginLevel(level int) error {
	if level < 1 || level > e.cfg.Rules.Levels {
		return fmt.Errorf("%w: %d not in [1,%d]", domain.ErrInvalidLevel, level, e.cfg.Rules.Levels)
	}

	set, err := e.source.QuestionsForLevel(level)
	if err != nil {
		return fmt.Errorf("load level %d: %w", level, err)
	}
	if len(set) == 0 {
		return fmt.Errorf("%w: level %d", domain.ErrShortLevelSet, level)
	}
	if len(set) > e.cfg.Rules.QuestionsPerLevel {
		set = set[:e.cfg.Rules.QuestionsPerLevel]
	}
	for i, q := range set {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("level %d question %d: %w", level, i, err)
		}
	}

	e.level = level
	e.qIndex = 0
	e.correctStreak = 0
	e.askedPerLvl[level] = 0
	e.correctPerLvl[level] = 0
	e.questions = set
	return nil
}

// CurrentQuestion returns the question awaiting an answer.
func (e *Engine) CurrentQuestion() (domain.Question, error) {
	if e.phase == PhaseNotStarted {
		return domain.Question{}, domain.ErrSessionNotStarted
	}
	if e.phase == PhaseFinished {
		return domain.Question{}, domain.ErrSessionFinished
	}
	if e.qIndex >= len(e.questions) {
		return domain.Question{}, domain.ErrNoQuestion
	}
	return e.questions[e.qIndex], nil
}

// SubmitAnswer scores the current question. It returns whether the answer
// was correct; a valid wrong answer is not an error. A rejected call
// (bad index, wrong phase) leaves every counter unchanged.
func (e *Engine) SubmitAnswer(choice int, elapsed time.Duration) (bool, error) {
	if e.phase == PhaseNotStarted {
		return false, domain.ErrSessionNotStarted
	}
	if e.phase == PhaseFinished {
		return false, domain.ErrSessionFinished
	}
	q, err := e.CurrentQuestion()
	if err != nil {
		return false, err
	}
	if choice != NoAnswer && (choice < 0 || choice >= len(q.Choices)) {
		return false, fmt.Errorf("%w: %d of %d", domain.ErrInvalidIndex, choice, len(q.Choices))
	}
	_ = elapsed // recorded by the host; the engine keeps wall-clock duration

	correct := choice == q.CorrectIndex

	e.totalAsked++
	e.askedPerLvl[e.level]++

	if correct {
		e.totalCorrect++
		e.correctPerLvl[e.level]++
		e.correctStreak++
		e.xp += e.cfg.XP.PerCorrect
		// Redemption: completing a run of RedemptionStreak consecutive
		// correct answers earns back one prior mistake. The decrement fires
		// exactly once per run; a longer streak does not keep decrementing.
		// Affects the displayed mistake counter only, never the score.
		if e.correctStreak == e.cfg.Rules.RedemptionStreak && e.wrongCount > 0 {
			e.wrongCount--
		}
	} else {
		e.correctStreak = 0
		e.wrongCount++
	}

	e.qIndex++
	if e.qIndex >= len(e.questions) {
		if err := e.advanceOrFinishLevel(); err != nil {
			return correct, err
		}
	}
	return correct, nil
}

// advanceOrFinishLevel closes out the current level: perfect detection,
// clear bonuses, difficulty feedback, then either the next level or the
// terminal state.
func (e *Engine) advanceOrFinishLevel() error {
	asked := e.askedPerLvl[e.level]
	correctCount := e.correctPerLvl[e.level]

	perfect := asked == e.cfg.Rules.QuestionsPerLevel && correctCount == asked
	if perfect {
		e.perfectLevels = append(e.perfectLevels, e.level)
		e.xp += e.cfg.XP.PerfectLevelBonus
	}
	e.xp += e.cfg.XP.PerLevelClearBonus
	e.levelClears++

	// Feed the trailing-window performance into the adjuster so the next
	// batch can shift tier.
	if asked > 0 {
		e.adjuster.Next(float64(correctCount) / float64(asked))
	}

	if e.level < e.cfg.Rules.Levels {
		return e.beginLevel(e.level + 1)
	}

	e.phase = PhaseFinished
	e.xp += e.cfg.XP.DailyCompletionBonus
	finished := e.now()
	e.result = &domain.SessionResult{
		ID:            e.id,
		TotalCorrect:  e.totalCorrect,
		TotalAsked:    e.totalAsked,
		Duration:      finished.Sub(e.startedAt),
		XPEarned:      e.xp,
		PerfectLevels: append([]int(nil), e.perfectLevels...),
		LevelClears:   e.levelClears,
		FinishedAt:    finished,
	}
	return nil
}

// Result returns the terminal summary. Valid only after the session
// finished.
func (e *Engine) Result() (domain.SessionResult, error) {
	if e.result == nil {
		if e.phase == PhaseInLevel {
			return domain.SessionResult{}, domain.ErrSessionRunning
		}
		return domain.SessionResult{}, domain.ErrSessionNotStarted
	}
	return *e.result, nil
}

// State returns a snapshot for rendering progress.
func (e *Engine) State() State {
	var elapsed time.Duration
	if !e.startedAt.IsZero() {
		if e.result != nil {
			elapsed = e.result.Duration
		} else {
			elapsed = e.now().Sub(e.startedAt)
		}
	}
	return State{
		Phase:          e.phase,
		Level:          e.level,
		QuestionIndex:  e.qIndex,
		CorrectStreak:  e.correctStreak,
		WrongCount:     e.wrongCount,
		TotalAsked:     e.totalAsked,
		TotalCorrect:   e.totalCorrect,
		XP:             e.xp,
		LevelClears:    e.levelClears,
		PerfectLevels:  append([]int(nil), e.perfectLevels...),
		AskedInLevel:   e.askedPerLvl[e.level],
		CorrectInLevel: e.correctPerLvl[e.level],
		ElapsedMS:      elapsed.Milliseconds(),
		Difficulty:     e.adjuster.Current(),
	}
}
