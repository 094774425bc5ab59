package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whylee-play/whylee/internal/domain"
)

func init() {
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan [free|trial|pro]",
	Short: "Show or set the entitlement plan",
	Long: `Show the current entitlement plan, or set it. Pro (and trial) plans
enable Pro-gated milestones such as XP boosts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	_, db, prog, err := openServices()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		plan, err := prog.Plan()
		if err != nil {
			return err
		}
		fmt.Printf("Plan: %s (pro features: %v)\n", plan, plan.Pro())
		return nil
	}

	plan := domain.Plan(args[0])
	if err := prog.SetPlan(plan); err != nil {
		return err
	}
	fmt.Printf("Plan set to %s.\n", plan)
	return nil
}
