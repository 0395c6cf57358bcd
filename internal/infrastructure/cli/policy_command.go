package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
	"github.com/aegisd/aegis-go/internal/infrastructure/policy"
)

func newPolicyCommand(container *app.Container) *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the loaded command policy",
	}
	policyCmd.AddCommand(
		newPolicyShowCommand(container),
		newPolicyCheckCommand(),
	)
	return policyCmd
}

func newPolicyShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarize the active policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			pol := container.Policy
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "blacklist patterns:    %d\n", len(pol.Blacklist.Patterns))
			fmt.Fprintf(out, "blacklist executables: %d\n", len(pol.Blacklist.Executables))
			fmt.Fprintf(out, "red patterns:          %d\n", len(pol.Classification.Red.Patterns))
			fmt.Fprintf(out, "yellow patterns:       %d\n", len(pol.Classification.Yellow.Patterns))
			fmt.Fprintf(out, "green patterns:        %d\n", len(pol.Classification.Green.Patterns))
			fmt.Fprintf(out, "allowed path globs:    %d\n", len(pol.Classification.Green.AllowedPaths))
			fmt.Fprintf(out, "approval timeout:      %ds\n", pol.Classification.Red.ApprovalTimeout)
			return nil
		},
	}
}

func newPolicyCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a policy file without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := policy.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "policy OK")
			return nil
		},
	}
}
