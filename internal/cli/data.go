package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
	"github.com/example/progress/internal/excel"
	"github.com/example/progress/internal/store"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Move the store aside and start empty",
		Long: `Move the current store file to a numbered .bak file and start with an
empty state. This is the recovery path for a corrupt store and requires
--backup. Only the json backend supports it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !backup {
				return NewExitError(ExitCommandError, "reset requires --backup")
			}
			st, err := rootOpts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			r, ok := st.(store.Resetter)
			if !ok {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("reset is not supported by the %s backend", rootOpts.cfg.Store.Backend))
			}
			path, err := r.BackupAndReset(cmd.Context())
			if err != nil {
				return err
			}
			text := "Nothing to reset\n"
			if path != "" {
				text = fmt.Sprintf("Backed up to %s\n", path)
			}
			return rootOpts.formatter(cmd).Success(map[string]string{"backup": path}, text)
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", false, "keep the old store as a .bak file")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cfg := excel.DefaultImportConfig()

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import habits, items and check-ins from .xlsx or .csv",
		Long: `Import rows of the form kind,id,date from an .xlsx or .csv file.

  habit,<name>[,<date>]   create the habit if missing; check in on date if given
  item,<id>[,<date>]      create the review item (created on date, default today)

Rows that already exist are skipped. Invalid rows are reported. All valid
rows are applied in a single commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.FilePath = args[0]
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				res, err := excel.Import(cmd.Context(), eng, cfg)
				if err != nil {
					return err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Processed %d rows: %d habits, %d items, %d check-ins added, %d skipped\n",
					res.TotalProcessed, res.HabitsCreated, res.ItemsCreated, res.CheckIns, res.Skipped)
				for _, e := range res.Errors {
					fmt.Fprintf(&b, "  %s\n", e)
				}
				return out.Success(res, b.String())
			})
		},
	}

	cmd.Flags().StringVar(&cfg.SheetName, "sheet", "", "sheet to import (default first sheet)")
	cmd.Flags().IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first data row (1-based)")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export habit and review snapshots to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(eng *engine.Engine, out *OutputFormatter) error {
				res, err := excel.Export(eng, args[0])
				if err != nil {
					return err
				}
				return out.Success(res, fmt.Sprintf("Exported %d habits and %d review items to %s\n",
					res.Habits, res.Reviews, args[0]))
			})
		},
	}
}
