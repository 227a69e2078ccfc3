package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
	"github.com/example/progress/internal/habits"
)

// NewAddHabitCommand creates the add-habit command.
func NewAddHabitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-habit <name>",
		Short: "Start tracking a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				if err := eng.AddHabit(cmd.Context(), args[0]); err != nil {
					return err
				}
				return out.Success(map[string]string{"habit": args[0]},
					fmt.Sprintf("Added habit %q\n", args[0]))
			})
		},
	}
}

// NewRemoveHabitCommand creates the remove-habit command.
func NewRemoveHabitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-habit <name>",
		Short: "Delete a habit and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				if err := eng.RemoveHabit(cmd.Context(), args[0]); err != nil {
					return err
				}
				return out.Success(map[string]string{"habit": args[0]},
					fmt.Sprintf("Removed habit %q\n", args[0]))
			})
		},
	}
}

// checkInOutput is the JSON shape of a check-in.
type checkInOutput struct {
	Habit         string `json:"habit"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	Streak        int    `json:"streak"`
	NewMilestones []int  `json:"new_milestones"`
}

// NewCheckInCommand creates the check-in command.
func NewCheckInCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "check-in <name>",
		Short: "Mark a habit as done for a day",
		Long: `Mark a habit as done for a day (today unless --date is given).

Checking in twice for the same day is harmless and reports the existing
check-in. Back-dated check-ins may fill gaps and complete milestones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				name := args[0]
				if d.IsZero() {
					d = eng.Today()
				}
				res, err := eng.CheckIn(cmd.Context(), name, d)
				if err != nil {
					return err
				}

				data := checkInOutput{
					Habit:         name,
					Date:          d.String(),
					Status:        res.Status.String(),
					Streak:        res.Streak,
					NewMilestones: res.NewMilestones,
				}
				if data.NewMilestones == nil {
					data.NewMilestones = []int{}
				}

				var b strings.Builder
				if res.Status == habits.AlreadyRecorded {
					fmt.Fprintf(&b, "%s already checked in on %s (streak %d)\n", name, d, res.Streak)
				} else {
					fmt.Fprintf(&b, "Checked in %s on %s (streak %d)\n", name, d, res.Streak)
				}
				for _, m := range res.NewMilestones {
					fmt.Fprintf(&b, "Milestone reached: %d days\n", m)
				}
				return out.Success(data, b.String())
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to check in (YYYY-MM-DD, default today)")
	return cmd
}

// NewStreakCommand creates the streak command.
func NewStreakCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "streak <name>",
		Short: "Show a habit's current streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				streak, err := eng.Streak(args[0])
				if err != nil {
					return err
				}
				return out.Success(map[string]interface{}{"habit": args[0], "streak": streak},
					fmt.Sprintf("%d\n", streak))
			})
		},
	}
}

// NewHabitCommand creates the habit command.
func NewHabitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "habit <name>",
		Short: "Show a habit's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				snap, err := eng.Habit(args[0])
				if err != nil {
					return err
				}
				if snap.Milestones == nil {
					snap.Milestones = []int{}
				}
				return out.Success(snap, formatHabit(snap))
			})
		},
	}
}

func formatHabit(s habits.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Habit:           %s\n", s.Name)
	if s.LastDate != nil {
		fmt.Fprintf(&b, "Last check-in:   %s (%d days ago)\n", s.LastDate, *s.DaysSinceLast)
	} else {
		fmt.Fprintf(&b, "Last check-in:   never\n")
	}
	fmt.Fprintf(&b, "Streak:          %d\n", s.Streak)
	fmt.Fprintf(&b, "Longest streak:  %d\n", s.LongestStreak)
	fmt.Fprintf(&b, "Check-ins:       %d\n", s.TotalCheckIns)
	fmt.Fprintf(&b, "Milestones:      %s\n", joinInts(s.Milestones))
	return b.String()
}

func joinInts(vs []int) string {
	if len(vs) == 0 {
		return "none"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
