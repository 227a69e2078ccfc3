// Package cli implements the progress command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/config"
	"github.com/example/progress/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Store      string
	Backend    string
	Today      string

	cfg    *config.Config
	clock  clock.Clock
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the progress CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Habit streaks and spaced-repetition reviews",
		Long: `Track daily habits with streaks and milestones, and schedule
flashcard-style reviews with the SM-2 algorithm.

All state lives in a single local store that is updated atomically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store path, or DSN for postgres (overrides config and "+config.EnvStore+")")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend (json|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.Today, "today", "", "pin today's date (YYYY-MM-DD); data dated after the real today will not load without it")

	// Add subcommands
	cmd.AddCommand(NewAddHabitCommand(opts))
	cmd.AddCommand(NewRemoveHabitCommand(opts))
	cmd.AddCommand(NewCheckInCommand(opts))
	cmd.AddCommand(NewStreakCommand(opts))
	cmd.AddCommand(NewHabitCommand(opts))
	cmd.AddCommand(NewAddItemCommand(opts))
	cmd.AddCommand(NewRemoveItemCommand(opts))
	cmd.AddCommand(NewGradeCommand(opts))
	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewListDueCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRemindCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd, opts
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are reported on stderr, or on stdout as a JSON envelope with --format json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		formatter.Writer = stdout
	}
	_ = formatter.Error(errorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

func (o *RootOptions) setup(logOut io.Writer) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	path := o.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
	}
	if o.Store != "" {
		if cfg.Store.Backend == store.BackendPostgres {
			cfg.Store.DSN = o.Store
		} else {
			cfg.Store.Path = o.Store
		}
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	o.cfg = cfg

	if o.Today != "" {
		d, err := civil.ParseDate(o.Today)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --today %q: want YYYY-MM-DD", o.Today))
		}
		o.clock = clock.NewFixed(d)
	} else {
		o.clock = clock.NewSystem()
	}

	logger, err := newLogger(logOut, cfg.Log.Level, o.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "logger", err)
	}
	o.logger = logger
	return nil
}

// newLogger builds a production-style JSON logger on w. Verbose forces debug.
func newLogger(w io.Writer, level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
