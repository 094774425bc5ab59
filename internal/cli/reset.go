package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/whylee-play/whylee/internal/daemon"
)

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local data (progress, XP, streak, question bank)",
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	dbPath := filepath.Join(daemon.WhyleeHome(), "whylee.db")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("Nothing to reset.")
		return nil
	}

	if !resetForce && !confirm(os.Stdin, fmt.Sprintf("Delete %s and all progress?", dbPath)) {
		fmt.Println("Aborted.")
		return nil
	}

	// WAL mode leaves sidecar files next to the database.
	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	fmt.Println("All local data deleted.")
	return nil
}
