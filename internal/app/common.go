package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/config"
	"github.com/blackwell-systems/automice/internal/input"
	"github.com/blackwell-systems/automice/internal/logging"
	"github.com/blackwell-systems/automice/internal/store"
)

// Backend constructors. Tests swap these for fakes.
var (
	newHook = func(cfg *config.Config, logger *slog.Logger) input.Hook {
		return &input.XInputHook{Command: cfg.XInput.Command, Logger: logger}
	}

	newController = func(cfg *config.Config, logger *slog.Logger) input.Controller {
		if cfg.Backend == config.BackendDryRun {
			return input.NewLogController(logger)
		}
		return input.NewXDoToolController(cfg.XDoTool.Command)
	}
)

// environment is what every command needs once flags are parsed.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &environment{cfg: cfg, logger: logger}, nil
}

// openStore opens the macro library, creating the schema if needed.
func (e *environment) openStore() (*store.Store, error) {
	path, err := getDBPath(e.cfg)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// commandContext returns the command's context, falling back to Background
// when the command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isFile reports whether arg names an existing regular file.
func isFile(arg string) bool {
	info, err := os.Stat(arg)
	return err == nil && info.Mode().IsRegular()
}
