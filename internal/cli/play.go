package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/app/session"
	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/questions"
)

func init() {
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "Shuffle seed (0 = random)")
	rootCmd.AddCommand(playCmd)
}

var playSeed int64

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a trivia session in the terminal",
	Long: `Play a full Whylee session: answer each question by number within the
time limit, clear every level, and bank the XP you earned. An expired
timer scores as a wrong answer. Enter q to abandon the run.`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, db, prog, err := openServices()
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := db.QuestionCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("question bank is empty; run 'whylee import' first")
	}

	seed := playSeed
	if seed == 0 {
		seed = cfg.Questions.ShuffleSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	bank := questions.NewBank(db, cfg.Rules.QuestionsPerLevel, seed)
	eng := session.New(cfg.SessionConfig(), bank)
	bank.FilterBy(eng.Adjuster().Current)

	if err := eng.Start(); err != nil {
		return err
	}

	fmt.Printf("Whylee — %d levels, %d questions each, %ds per question. Good luck!\n",
		cfg.Rules.Levels, cfg.Rules.QuestionsPerLevel, cfg.Rules.PerQuestionSeconds)

	lines := readLines(os.Stdin)
	timer := time.Duration(cfg.Rules.PerQuestionSeconds) * time.Second

	for {
		state := eng.State()
		if state.Phase == session.PhaseFinished {
			break
		}

		q, err := eng.CurrentQuestion()
		if err != nil {
			return err
		}

		printQuestion(state, q, cfg.Rules.QuestionsPerLevel)

		choice, elapsed, quit := readChoice(lines, timer, len(q.Choices))
		if quit {
			fmt.Println("\nRun abandoned. Nothing banked.")
			return nil
		}

		correct, err := eng.SubmitAnswer(choice, elapsed)
		if err != nil {
			return err
		}

		printVerdict(correct, choice, q)
	}

	result, err := eng.Result()
	if err != nil {
		return err
	}

	report, err := prog.Bank(result)
	if err != nil {
		return fmt.Errorf("bank session: %w", err)
	}

	printResult(result, report)
	return nil
}

// readLines feeds stdin lines into a channel so question reads can race
// the per-question timer.
func readLines(f *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
		close(ch)
	}()
	return ch
}

// readChoice blocks until the player answers, the timer expires, or the
// player quits. Returns a zero-based choice index or session.NoAnswer.
func readChoice(lines <-chan string, timeout time.Duration, numChoices int) (choice int, elapsed time.Duration, quit bool) {
	started := time.Now()
	deadline := time.After(timeout)

	for {
		select {
		case line, ok := <-lines:
			elapsed = time.Since(started)
			if !ok {
				return session.NoAnswer, elapsed, true
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				return session.NoAnswer, elapsed, false
			case strings.EqualFold(line, "q"):
				return 0, elapsed, true
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > numChoices {
				fmt.Printf("  enter 1-%d, blank to skip, or q to quit: ", numChoices)
				continue
			}
			return n - 1, elapsed, false

		case <-deadline:
			fmt.Println("\n  ⏰ Time's up!")
			return session.NoAnswer, time.Since(started), false
		}
	}
}

func printQuestion(state session.State, q domain.Question, perLevel int) {
	fmt.Printf("\n[Level %d · Q%d/%d · %s]", state.Level, state.AskedInLevel+1, perLevel, state.Difficulty)
	if state.WrongCount > 0 {
		fmt.Printf("  mistakes: %d", state.WrongCount)
	}
	if state.CorrectStreak > 1 {
		fmt.Printf("  streak: %d", state.CorrectStreak)
	}
	fmt.Printf("\n%s\n", q.Text)
	for i, c := range q.Choices {
		fmt.Printf("  %d) %s\n", i+1, c)
	}
	fmt.Print("> ")
}

func printVerdict(correct bool, choice int, q domain.Question) {
	switch {
	case correct:
		fmt.Println("  ✓ Correct!")
	case choice == session.NoAnswer:
		fmt.Printf("  ✗ No answer. It was: %s\n", q.Choices[q.CorrectIndex])
	default:
		fmt.Printf("  ✗ Wrong. It was: %s\n", q.Choices[q.CorrectIndex])
	}
	if q.Explanation != "" {
		fmt.Printf("  %s\n", q.Explanation)
	}
}

func printResult(result domain.SessionResult, report progress.BankReport) {
	fmt.Println("\n═══ Session complete ═══")
	fmt.Printf("Score:     %d/%d correct in %s\n",
		result.TotalCorrect, result.TotalAsked, result.Duration.Round(time.Second))
	fmt.Printf("Levels:    %d cleared", result.LevelClears)
	if len(result.PerfectLevels) > 0 {
		fmt.Printf(", perfect: %v", result.PerfectLevels)
	}
	fmt.Println()

	if report.AlreadyBanked {
		fmt.Println("Session was already banked.")
		return
	}

	fmt.Printf("XP banked: %d", report.XPBanked)
	if report.StreakBonus > 0 {
		fmt.Printf(" (+%d streak bonus at x%.2f)", report.StreakBonus, report.Multiplier)
	}
	fmt.Println()
	fmt.Printf("Streak:    %d day(s)\n", report.Streak.Count)

	for _, rule := range report.Milestones.Newly {
		if rule.Kind == domain.MilestoneBoost {
			continue
		}
		fmt.Printf("🏆 Unlocked %s: %s\n", rule.Kind, rule.Name)
	}
}
