package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/infrastructure/planner"
)

func newPlanCommand(container *app.Container) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage step plans",
	}
	planCmd.AddCommand(
		newPlanNewCommand(container),
		newPlanShowCommand(container),
		newPlanListCommand(container),
		newPlanAdvanceCommand(container),
	)
	return planCmd
}

func newPlanNewCommand(container *app.Container) *cobra.Command {
	var steps []string

	cmd := &cobra.Command{
		Use:   "new <goal>",
		Short: "Create a plan from a goal and ordered steps",
		Long: `Create a plan. Each --step is "description" or "description :: command";
steps carrying a command receive a safety review at creation and plans
containing blacklisted commands are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputs []planner.StepInput
			for _, raw := range steps {
				desc, command, _ := strings.Cut(raw, "::")
				inputs = append(inputs, planner.StepInput{
					Description: strings.TrimSpace(desc),
					Command:     strings.TrimSpace(command),
				})
			}
			plan, err := container.Planner.Create(args[0], inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s created with %d steps\n", plan.ID, len(plan.Steps))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&steps, "step", nil, "plan step (repeatable, in order)")
	return cmd
}

func newPlanShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a plan and its step statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := container.Planner.Load(args[0])
			if err != nil {
				return err
			}
			printPlan(cmd, plan)
			return nil
		},
	}
}

func newPlanListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := container.Planner.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans recorded yet.")
				return nil
			}
			for _, p := range plans {
				fmt.Fprintf(out, "%s [%s] %s (%d steps)\n", p.ID, p.Status, p.Goal, len(p.Steps))
			}
			return nil
		},
	}
}

func newPlanAdvanceCommand(container *app.Container) *cobra.Command {
	var (
		failed bool
		note   string
	)

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Complete (or fail) the current step and move on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := container.Planner.Advance(args[0], !failed, note)
			if err != nil {
				return err
			}
			printPlan(cmd, plan)
			return nil
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "mark the current step failed")
	cmd.Flags().StringVar(&note, "note", "", "note recorded on the step")
	return cmd
}

func printPlan(cmd *cobra.Command, plan domain.Plan) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s [%s] %s\n", plan.ID, plan.Status, plan.Goal)
	for _, step := range plan.Steps {
		marker := " "
		if step.Status == domain.StepInProgress {
			marker = ">"
		}
		fmt.Fprintf(out, " %s %d. [%s] %s", marker, step.Index+1, step.Status, step.Description)
		if step.Command != "" {
			fmt.Fprintf(out, " ($ %s)", step.Command)
		}
		if step.Review != nil {
			fmt.Fprintf(out, " [risk: %s]", step.Review.Tier)
		}
		fmt.Fprintln(out)
	}
}
