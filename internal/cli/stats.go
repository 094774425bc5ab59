package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	statsCmd.Flags().IntVar(&statsSessions, "sessions", 5, "Number of recent sessions to show")
	statsCmd.Flags().IntVar(&statsLedger, "ledger", 0, "Number of recent XP ledger entries to show")
	rootCmd.AddCommand(statsCmd)
}

var (
	statsSessions int
	statsLedger   int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show player progress, streak, and session history",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, db, prog, err := openServices()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := prog.Snapshot()
	if err != nil {
		return err
	}
	plan, err := prog.Plan()
	if err != nil {
		return err
	}

	fmt.Printf("Level %d · %d XP · plan: %s\n", snap.EffectiveLevel(), snap.XP, plan)
	fmt.Printf("Day streak:     %d\n", snap.DayStreak)
	fmt.Printf("Level clears:   %d\n", snap.LevelClears)
	if len(snap.PerfectLevels) > 0 {
		fmt.Printf("Perfect levels: %v\n", snap.PerfectLevels)
	}
	fmt.Printf("Skins: %d · Badges: %d\n", len(snap.UnlockedSkins), len(snap.Badges))

	if statsSessions > 0 {
		results, err := db.ListSessionResults(statsSessions)
		if err != nil {
			return err
		}
		if len(results) > 0 {
			fmt.Println("\nRecent sessions:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tSCORE\tDURATION\tXP\tPERFECT")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%d/%d\t%s\t%d\t%v\n",
					r.FinishedAt.Format("2006-01-02 15:04"),
					r.TotalCorrect, r.TotalAsked,
					r.Duration.Round(time.Second),
					r.XPEarned,
					r.PerfectLevels,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}

	if statsLedger > 0 {
		entries, err := prog.Ledger().History(statsLedger)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			fmt.Println("\nXP ledger:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tACCOUNT\tTYPE\tAMOUNT\tSOURCE\tBALANCE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
					e.Timestamp.Format("2006-01-02 15:04"),
					e.Account, e.EntryType, e.Amount, e.Source, e.Balance,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}

	return nil
}
