package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
	"github.com/example/progress/internal/scheduler"
)

// NewRemindCommand creates the remind command.
func NewRemindCommand(rootOpts *RootOptions) *cobra.Command {
	var every time.Duration
	var once bool
	var notify string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Print reminders for due work on a schedule",
		Long: `Check for due habits and reviews on a fixed interval and print a
reminder when something is due. Checks only fire inside the configured
notification hours. The store is opened only for the duration of each
check, so other commands keep working while this runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := scheduler.Config{
				Every:     rootOpts.cfg.Remind.Every,
				StartHour: rootOpts.cfg.Remind.StartHour,
				EndHour:   rootOpts.cfg.Remind.EndHour,
				Location:  time.Local,
			}
			if cmd.Flags().Changed("every") {
				cfg.Every = every
			}

			var notifier scheduler.Notifier
			switch {
			case notify == "log":
				notifier = scheduler.LogNotifier{Logger: rootOpts.logger}
			case notify != "stdout":
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid --notify %q: must be stdout or log", notify))
			case rootOpts.Format == "json":
				notifier = jsonNotifier{out: rootOpts.formatter(cmd)}
			default:
				notifier = scheduler.WriterNotifier{W: cmd.OutOrStdout()}
			}
			s := scheduler.New(rootOpts.dueSource(), notifier, cfg, rootOpts.logger)

			if once {
				_, err := s.RunOnce(cmd.Context())
				return err
			}

			if err := s.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().DurationVar(&every, "every", time.Hour, "interval between checks")
	cmd.Flags().BoolVar(&once, "once", false, "check once, ignoring notification hours, and exit")
	cmd.Flags().StringVar(&notify, "notify", "stdout", "where reminders go (stdout|log)")
	return cmd
}

// dueSource opens a short session per check.
func (o *RootOptions) dueSource() scheduler.DueSource {
	return func(ctx context.Context) (engine.Due, error) {
		s, err := o.openSession(ctx)
		if err != nil {
			return engine.Due{}, err
		}
		defer s.Close()
		return s.eng.ListDue(o.clock.Today()), nil
	}
}

type jsonNotifier struct {
	out *OutputFormatter
}

func (n jsonNotifier) Remind(_ context.Context, due engine.Due) error {
	return n.out.Success(due, "")
}
