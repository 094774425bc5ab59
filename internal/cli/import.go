package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whylee-play/whylee/internal/infra/questions"
)

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Clear the existing bank before importing")
	rootCmd.AddCommand(importCmd)
}

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import questions from a CSV file into the local bank",
	Long: `Import multiple-choice questions from a CSV file. With no argument the
configured questions.csv path is used. Columns:

  question, option_a, option_b, option_c, option_d, correct_index,
  explanation, level, difficulty

Trailing empty options are allowed for questions with fewer choices;
difficulty defaults to normal. One malformed row fails the whole import.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, db, _, err := openServices()
	if err != nil {
		return err
	}
	defer db.Close()

	path := cfg.Questions.CSVPath
	if len(args) == 1 {
		path = args[0]
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := questions.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if importReplace {
		removed, err := db.ClearQuestions()
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Printf("Cleared %d existing question(s).\n", removed)
		}
	}

	if err := db.InsertQuestions(parsed); err != nil {
		return err
	}

	total, err := db.QuestionCount()
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d question(s) from %s (%d in bank).\n", len(parsed), path, total)
	return nil
}
