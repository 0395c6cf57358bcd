// Package cli wires the cobra command surface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "aegis",
		Short: "Aegis - guarded command execution for autonomous agents",
		Long: "Aegis classifies shell commands into risk tiers, holds high-risk\n" +
			"commands for human approval, and records lessons from failures.",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			container.Close()
		},
	}

	root.AddCommand(
		newExecCommand(container),
		newClassifyCommand(container),
		newLessonsCommand(container),
		newHistoryCommand(container),
		newPolicyCommand(container),
		newPlanCommand(container),
		newVersionCommand(),
	)
	return root, nil
}
