// Package cli implements the sheetmap command-line interface.
//
// # Commands
//
//   - render: run one reconciliation cycle, place labels and print a JSON report
//   - watch:  run cycles periodically and log their statistics
//   - check:  load every sheet, reconcile the whole map and report coloring conflicts
//   - colors: look up the cached color of a polygon
//
// All commands accept --config for a TOML settings file and --verbose (-v)
// for debug-level logging. The logger and the loaded settings travel in the
// command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/sheetmap/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCommand builds the command tree. Logs go to stderr; reports go to
// out.
func NewRootCommand(out io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "sheetmap",
		Short:        "Reconcile and label multi-sheet town maps",
		Long:         `sheetmap stitches polygons split across survey sheets, colors town sections so neighbors differ, and places non-overlapping labels.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(os.Stderr, level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Debug("config loaded", "path", configPath, "data", cfg.Data.Dir, "store", cfg.Store.Kind)

			ctx := withLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetOut(out)
	root.SetVersionTemplate(fmt.Sprintf("sheetmap %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML settings file")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newColorsCmd())

	return root
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout).ExecuteContext(ctx)
}

// configFromContext retrieves the settings loaded by the root command.
func configFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey).(*config.Config); ok {
		return c
	}
	return config.Default()
}
