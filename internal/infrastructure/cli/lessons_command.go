package cli

import (
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aegisd/aegis-go/internal/app"
	"github.com/aegisd/aegis-go/internal/domain"
)

func newLessonsCommand(container *app.Container) *cobra.Command {
	lessonsCmd := &cobra.Command{
		Use:   "lessons",
		Short: "Inspect and maintain the lessons-learned store",
	}
	lessonsCmd.AddCommand(
		newLessonsListCommand(container),
		newLessonsSearchCommand(container),
		newLessonsAddCommand(container),
		newLessonsApplyCommand(container),
		newLessonsDecayCommand(container),
	)
	return lessonsCmd
}

func newLessonsListCommand(container *app.Container) *cobra.Command {
	var (
		limit    int
		taskType string
		category string
		failures bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lessons ordered by relevance",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.LessonFilter{
				TaskType: taskType,
				Category: category,
				Limit:    limit,
			}
			if failures {
				failed := false
				filter.Success = &failed
			}
			lessons, err := container.Knowledge.QueryLessons(filter)
			if err != nil {
				return err
			}
			printLessons(cmd, lessons)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max lessons to show")
	cmd.Flags().StringVar(&taskType, "task-type", "", "filter by task type")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().BoolVar(&failures, "failures", false, "only show failure lessons")
	return cmd
}

func newLessonsSearchCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <error message>",
		Short: "Find lessons matching an error message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessons, err := container.Knowledge.FindLessonsForError(args[0], limit)
			if err != nil {
				return err
			}
			printLessons(cmd, lessons)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "max lessons to return")
	return cmd
}

func newLessonsAddCommand(container *app.Container) *cobra.Command {
	var (
		taskType    string
		category    string
		description string
		errMessage  string
		rootCause   string
		solution    string
		success     bool
	)

	cmd := &cobra.Command{
		Use:   "add <summary>",
		Short: "Record a lesson explicitly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := container.Knowledge.SaveLesson(domain.Lesson{
				TaskType:        taskType,
				Category:        category,
				TaskDescription: description,
				Success:         success,
				ErrorMessage:    errMessage,
				RootCause:       rootCause,
				Solution:        solution,
				LessonSummary:   args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lesson %d saved\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskType, "task-type", "reflection", "task type")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&description, "description", "", "what was attempted")
	cmd.Flags().StringVar(&errMessage, "error", "", "error message, if any")
	cmd.Flags().StringVar(&rootCause, "root-cause", "", "root cause")
	cmd.Flags().StringVar(&solution, "solution", "", "what fixed it")
	cmd.Flags().BoolVar(&success, "success", true, "whether the task ultimately succeeded")
	return cmd
}

func newLessonsApplyCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <id>",
		Short: "Mark a lesson as applied, boosting its relevance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid lesson id %q", args[0])
			}
			if err := container.Knowledge.MarkLessonApplied(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lesson %d marked applied\n", id)
			return nil
		},
	}
}

func newLessonsDecayCommand(container *app.Container) *cobra.Command {
	var (
		factor    float64
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Decay relevance of lessons not applied recently",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := container.Knowledge.DecayRelevance(factor, olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decayed %d lessons\n", n)
			return nil
		},
	}

	cmd.Flags().Float64Var(&factor, "factor", 0.95, "multiplier applied to stale lessons")
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "staleness threshold")
	return cmd
}

func printLessons(cmd *cobra.Command, lessons []domain.Lesson) {
	out := cmd.OutOrStdout()
	if len(lessons) == 0 {
		fmt.Fprintln(out, "No lessons recorded yet.")
		return
	}
	for _, l := range lessons {
		outcome := "ok"
		if !l.Success {
			outcome = "failed"
		}
		fmt.Fprintf(out, "#%d [%s] score=%.2f applied=%d %s (%s)\n",
			l.ID, outcome, l.RelevanceScore, l.TimesApplied,
			l.LessonSummary, humanize.Time(l.CreatedAt))
		if l.ErrorPattern != "" {
			fmt.Fprintf(out, "    pattern: %s\n", l.ErrorPattern)
		}
		if l.Solution != "" {
			fmt.Fprintf(out, "    solution: %s\n", l.Solution)
		}
	}
}
