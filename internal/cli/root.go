// Package cli implements the Whylee command-line interface using Cobra.
// Each subcommand maps to one capability (play, serve, stats, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whylee",
	Short: "Whylee — the why-question trivia game",
	Long: `Whylee is a local-first trivia game about why things are the way they are.
Play timed sessions in the terminal, build a daily streak, earn XP,
and unlock skins and badges. One binary, your data stays on your machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
