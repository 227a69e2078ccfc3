package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/example/progress/internal/engine"
)

// LogNotifier writes reminders to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

// Remind implements Notifier.
func (n LogNotifier) Remind(_ context.Context, due engine.Due) error {
	n.Logger.Info("reminder",
		zap.Stringer("date", due.Date),
		zap.Strings("habits", due.Habits),
		zap.Strings("reviews", due.Reviews))
	return nil
}

// WriterNotifier prints one line per reminder.
type WriterNotifier struct {
	W io.Writer
}

// Remind implements Notifier.
func (n WriterNotifier) Remind(_ context.Context, due engine.Due) error {
	_, err := fmt.Fprintln(n.W, FormatReminder(due))
	return err
}

// FormatReminder renders due work as a single human-readable line.
func FormatReminder(due engine.Due) string {
	var parts []string
	if len(due.Habits) > 0 {
		parts = append(parts, fmt.Sprintf("%s due (%s)",
			plural(len(due.Habits), "habit"), strings.Join(due.Habits, ", ")))
	}
	if len(due.Reviews) > 0 {
		parts = append(parts, fmt.Sprintf("%s due (%s)",
			plural(len(due.Reviews), "review"), strings.Join(due.Reviews, ", ")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s: nothing due", due.Date)
	}
	return fmt.Sprintf("%s: %s", due.Date, strings.Join(parts, "; "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
