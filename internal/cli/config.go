package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/progress/internal/config"
	"github.com/example/progress/internal/store"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `Write the effective configuration (defaults plus any .env,
environment and flag overrides) as YAML to --config, or to the default
location. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			}

			cfg := *rootOpts.cfg
			if cfg.Store.Path == "" && cfg.Store.Backend != store.BackendPostgres {
				cfg.Store.Path = cfg.StoreLocation()
			}
			if err := cfg.Save(path); err != nil {
				return WrapExitError(ExitCommandError, "write config", err)
			}
			return rootOpts.formatter(cmd).Success(map[string]string{"path": path},
				fmt.Sprintf("Wrote %s\n", path))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
