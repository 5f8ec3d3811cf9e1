// Package main provides the CLI entrypoint for dunstctl.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/control"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger

	// client is the lazily-connected org.dunst.Control caller shared by
	// every subcommand; dunstd holds all queue state in memory, so there
	// is nothing on disk for dunstctl to hydrate at startup (spec 6.4).
	client *control.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dunstctl",
	Short: "Inspect and control a running dunstd",
	Long: `dunstctl is the control and inspection client for dunstd.

It talks to a running daemon over its org.dunst.Control D-Bus interface to
list the waiting/displayed/history queues, dismiss or replay notifications,
and manage pause (Do Not Disturb) state.

Running dunstctl without a subcommand launches the interactive TUI.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/dunst/dunstctl.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// getClient returns the shared control.Client, connecting to the session
// bus on first use.
func getClient() (*control.Client, error) {
	if client != nil {
		return client, nil
	}
	c, err := control.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to reach dunstd: %w", err)
	}
	client = c
	return client, nil
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}
