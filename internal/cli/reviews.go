package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
	"github.com/example/progress/internal/errs"
	sr "github.com/example/progress/internal/spaced_repetition"
)

// NewAddItemCommand creates the add-item command.
func NewAddItemCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "add-item [id]",
		Short: "Add a review item, first due the next day",
		Long: `Add a review item. It is first due the day after it is created.
A random id is generated when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				if err := eng.AddItem(cmd.Context(), id, d); err != nil {
					return err
				}
				snap, err := eng.Item(id)
				if err != nil {
					return err
				}
				return out.Success(snap, fmt.Sprintf("Added item %s (due %s)\n", id, snap.DueDate))
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "creation day (YYYY-MM-DD, default today)")
	return cmd
}

// NewRemoveItemCommand creates the remove-item command.
func NewRemoveItemCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-item <id>",
		Short: "Delete a review item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				if err := eng.RemoveItem(cmd.Context(), args[0]); err != nil {
					return err
				}
				return out.Success(map[string]string{"item": args[0]},
					fmt.Sprintf("Removed item %s\n", args[0]))
			})
		},
	}
}

// NewGradeCommand creates the grade command.
func NewGradeCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "grade <id> <quality>",
		Short: "Record a review with recall quality 0-5",
		Long: `Record a review of an item with a recall quality from 0 to 5:

  0  complete blackout
  1  incorrect, remembered on seeing the answer
  2  incorrect, answer felt familiar
  3  correct with serious difficulty
  4  correct after hesitation
  5  perfect

Grades of 3 or more count as successful recall.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return errs.New(errs.InvalidQuality, "quality", args[1])
			}
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				snap, err := eng.Grade(cmd.Context(), args[0], q, d)
				if err != nil {
					return err
				}
				return out.Success(snap, fmt.Sprintf("Graded %s: next review %s (interval %d days, ease %.2f)\n",
					snap.ID, snap.DueDate, snap.IntervalDays, snap.Ease))
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "review day (YYYY-MM-DD, default today)")
	return cmd
}

// NewItemCommand creates the item command.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "item <id>",
		Short: "Show a review item's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				snap, err := eng.Item(args[0])
				if err != nil {
					return err
				}
				return out.Success(snap, formatItem(snap))
			})
		},
	}
}

func formatItem(s sr.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Item:           %s\n", s.ID)
	fmt.Fprintf(&b, "Due:            %s\n", s.DueDate)
	fmt.Fprintf(&b, "Interval:       %d days\n", s.IntervalDays)
	fmt.Fprintf(&b, "Ease:           %.2f\n", s.Ease)
	if s.LastReviewed != nil {
		fmt.Fprintf(&b, "Last reviewed:  %s\n", s.LastReviewed)
	} else {
		fmt.Fprintf(&b, "Last reviewed:  never\n")
	}
	fmt.Fprintf(&b, "Reviews:        %d\n", s.Reviews)
	return b.String()
}
