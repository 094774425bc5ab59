package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/whylee-play/whylee/internal/app/milestone"
	"github.com/whylee-play/whylee/internal/domain"
)

func init() {
	rootCmd.AddCommand(milestonesCmd)
}

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Show the milestone catalog and what you have unlocked",
	RunE:  runMilestones,
}

func runMilestones(cmd *cobra.Command, args []string) error {
	_, db, prog, err := openServices()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := prog.Snapshot()
	if err != nil {
		return err
	}

	ev := milestone.Evaluate(snap, snap.UnlockedSkins, snap.Badges)
	met := make(map[string]bool)
	for _, rule := range ev.Newly {
		met[rule.ID] = true
	}
	for _, rule := range ev.AlreadyHeld {
		met[rule.ID] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MILESTONE\tKIND\tSTATUS")
	for _, rule := range milestone.Catalog() {
		status := "locked"
		switch {
		case rule.Kind == domain.MilestoneBoost && met[rule.ID]:
			status = "active"
		case met[rule.ID]:
			status = "unlocked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rule.Name, rule.Kind, status)
	}
	return w.Flush()
}
