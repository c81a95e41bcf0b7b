package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synconf/synconf/pkg/signature"
	"github.com/synconf/synconf/pkg/sweep"
	"github.com/synconf/synconf/pkg/telemetry"
)

var (
	// Global flags
	logLevel  string
	logFormat string
)

// Execute runs the root command with the application's registries.
func Execute(ctx context.Context, descriptors *signature.Registry, generators *sweep.Registry, version, commit, buildDate string) error {
	rootCmd := newRootCommand(descriptors, generators, version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(descriptors *signature.Registry, generators *sweep.Registry, version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "synconf",
		Short: "SynConf - Configuration Resolution Engine",
		Long: `SynConf builds one validated, fully-resolved configuration tree from
ordered, partially-overlapping sources: YAML or CUE documents layered
with dotted-path overrides.

Features:
  - Layered deep merging with REMOVE deletion and list-as-map handling
  - ((...)) interpolation: path references, environment references,
    and sandboxed Starlark expressions
  - Default completion and aggregated validation against registered
    constructor signatures
  - Parameter sweeps over the cartesian product of value lists`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	// Add subcommands
	rootCmd.AddCommand(newParseCommand(descriptors))
	rootCmd.AddCommand(newDescribeCommand(descriptors))
	rootCmd.AddCommand(newSweepCommand(descriptors, generators))

	return rootCmd
}

// newLogger builds the logger configured by the global flags.
func newLogger() (*telemetry.Logger, error) {
	cfg := telemetry.DefaultLoggingConfig()
	cfg.Level = logLevel
	cfg.Format = logFormat
	return telemetry.NewLogger(cfg)
}
