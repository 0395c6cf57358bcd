package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
)

func newExecCommand(container *app.Container) *cobra.Command {
	var (
		workdir  string
		approver string
	)

	cmd := &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run a command through the execution guard",
		Long: `Run a command through classify, approval and execution.

GREEN commands run directly, YELLOW commands run after a notification,
RED commands block until the approval channel resolves, and blacklisted
commands never run.

Examples:
  aegis exec ls -la
  aegis exec --approver auto "git push"
  aegis exec --approver nats "rm -rf ./build"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")

			channel, err := container.ApprovalChannel(approver)
			if err != nil {
				return err
			}
			g := container.NewGuard(channel)

			report, err := g.Execute(cmd.Context(), command, workdir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[%s] %s\n", report.Classification.Tier, report.Status)
			fmt.Fprintln(out, report.Output)
			for _, advice := range report.Advice {
				fmt.Fprintf(out, "hint: %s\n", advice)
			}
			if !report.Success {
				cmd.SilenceErrors = true
				return fmt.Errorf("command did not complete: %s", report.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "dir", "", "working directory for the command")
	cmd.Flags().StringVar(&approver, "approver", "", "approval channel: auto, deny, console or nats (default from config)")
	return cmd
}
