package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/config"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	logFormat  string
	backend    string

	// RootCmd is the root command for automice
	RootCmd = &cobra.Command{
		Use:   "automice",
		Short: "Record and replay mouse macros",
		Long: `automice records mouse activity (moves, clicks and scrolls) with the
delay between each event, and replays it later with the same timing.

Recordings are plain JSON files and can also be kept in a local macro
library (~/.automice/automice.db) under a name.

Safe mode is on by default. A recording with no other stop rule ends on
the first event that arrives more than 10 seconds after it started. A
replay skips its remaining events once 10 seconds have passed.

Examples:
  # Record until the first click, save to a file
  automice record -o login.json --stop-on click

  # Record for 5 seconds into the library
  automice record --name login --stop-after 5s

  # Replay a file after a 2 second pause
  automice play login.json --delay 2s

  # Replay a library macro at double speed without the safety limit
  automice play --name login --speed 2 --safe=false

  # Import every macro dropped into a directory
  automice watch ~/macros`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.automice/automice.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/automice/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	RootCmd.PersistentFlags().StringVar(&backend, "backend", "", "input backend: xdotool or dry-run")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(recordCmd)
	RootCmd.AddCommand(playCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("db") {
		cfg.Database = dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getDBPath returns the database path, using the configured value or default
func getDBPath(cfg *config.Config) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.Database != "" {
		return cfg.Database, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	// Create .automice directory if it doesn't exist
	automiceDir := filepath.Join(home, ".automice")
	if err := os.MkdirAll(automiceDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create automice directory: %w", err)
	}

	return filepath.Join(automiceDir, "automice.db"), nil
}
