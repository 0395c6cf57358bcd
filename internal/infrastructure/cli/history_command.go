package cli

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
	"github.com/aegisd/aegis-go/internal/domain"
)

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent guarded executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := container.Knowledge.RecentTasks(limit, domain.TaskStatus(status))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history recorded yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "#%d [%s] %s (%s, %dms)\n",
					e.ID, e.Status, e.Command, humanize.Time(e.CreatedAt), e.DurationMS)
				if e.Error != "" {
					fmt.Fprintf(out, "    error: %s\n", firstLine(e.Error))
				}
				if e.LessonID != 0 {
					fmt.Fprintf(out, "    lesson: #%d\n", e.LessonID)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max entries to show")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (started, completed, failed, blocked)")
	return cmd
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
