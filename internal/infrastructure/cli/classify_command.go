package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
)

func newClassifyCommand(container *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <command>...",
		Short: "Show the risk verdict for a command without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			result := container.Classifier.Classify(command)

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "tier:              %s\n", result.Tier)
			fmt.Fprintf(out, "reason:            %s\n", result.Reason)
			if result.MatchedPattern != "" {
				fmt.Fprintf(out, "matched pattern:   %s\n", result.MatchedPattern)
			}
			fmt.Fprintf(out, "requires approval: %v\n", result.RequiresApproval)
			fmt.Fprintf(out, "auto execute:      %v\n", result.AutoExecute)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	return cmd
}
