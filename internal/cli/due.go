package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
)

// NewListDueCommand creates the list-due command.
func NewListDueCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list-due",
		Short: "List habits not yet done and reviews due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				due := eng.ListDue(d)
				return out.Success(due, formatDue(due))
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD, default today)")
	return cmd
}

func formatDue(due engine.Due) string {
	if due.Empty() {
		return fmt.Sprintf("Nothing due on %s\n", due.Date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Due on %s\n", due.Date)
	if len(due.Habits) > 0 {
		fmt.Fprintf(&b, "\nHabits (%d):\n", len(due.Habits))
		for _, h := range due.Habits {
			fmt.Fprintf(&b, "  %s\n", h)
		}
	}
	if len(due.Reviews) > 0 {
		fmt.Fprintf(&b, "\nReviews (%d):\n", len(due.Reviews))
		for _, r := range due.Reviews {
			fmt.Fprintf(&b, "  %s\n", r)
		}
	}
	return b.String()
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals across habits and reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				s := eng.Summary()
				return out.Success(s, formatSummary(s))
			})
		},
	}
}

func formatSummary(s engine.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary for %s\n\n", s.Date)
	fmt.Fprintf(&b, "Habits:              %d (%d done today, %d due)\n", s.Habits, s.DoneToday, s.HabitsDue)
	fmt.Fprintf(&b, "Check-ins:           %d\n", s.TotalCheckIns)
	if s.BestStreakHabit != "" {
		fmt.Fprintf(&b, "Best streak:         %d (%s)\n", s.BestStreak, s.BestStreakHabit)
	} else {
		fmt.Fprintf(&b, "Best streak:         0\n")
	}
	fmt.Fprintf(&b, "Milestones awarded:  %d\n", s.MilestonesAwarded)
	fmt.Fprintf(&b, "Review items:        %d (%d due)\n", s.Reviews, s.ReviewsDue)
	fmt.Fprintf(&b, "Mastered:            %d\n", s.Mastered)
	fmt.Fprintf(&b, "Average ease:        %.2f\n", s.AverageEase)
	return b.String()
}
