// Package config loads the automice configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported synthesis backends.
const (
	BackendXDoTool = "xdotool"
	BackendDryRun  = "dry-run"
)

// Config is the top-level automice configuration.
type Config struct {
	Database string       `yaml:"database"`
	Backend  string       `yaml:"backend"`
	Log      LogConfig    `yaml:"log"`
	Record   RecordConfig `yaml:"record"`
	Play     PlayConfig   `yaml:"play"`
	XInput   ToolConfig   `yaml:"xinput"`
	XDoTool  ToolConfig   `yaml:"xdotool"`
}

// LogConfig selects the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// RecordConfig holds defaults for `automice record`.
type RecordConfig struct {
	Delay     time.Duration `yaml:"delay"`
	StopAfter time.Duration `yaml:"stop_after"`
	StopOn    string        `yaml:"stop_on"`
	Safe      *bool         `yaml:"safe"` // pointer to distinguish unset from false; default true
}

// PlayConfig holds defaults for `automice play`.
type PlayConfig struct {
	Delay time.Duration `yaml:"delay"`
	Safe  *bool         `yaml:"safe"` // default true
	Speed float64       `yaml:"speed"`
}

// ToolConfig names an external binary.
type ToolConfig struct {
	Command string `yaml:"command"`
}

// SafeEnabled reports whether the capture safety limit applies.
func (r RecordConfig) SafeEnabled() bool {
	if r.Safe == nil {
		return true
	}
	return *r.Safe
}

// SafeEnabled reports whether the replay safety limit applies.
func (p PlayConfig) SafeEnabled() bool {
	if p.Safe == nil {
		return true
	}
	return *p.Safe
}

// Dir returns the automice config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/automice if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "automice"), nil
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses an automice configuration file. A missing file is
// not an error; defaults are returned instead. String values may reference
// environment variables with ${VAR}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendXDoTool
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Play.Speed == 0 {
		c.Play.Speed = 1
	}
	if c.XInput.Command == "" {
		c.XInput.Command = "xinput"
	}
	if c.XDoTool.Command == "" {
		c.XDoTool.Command = "xdotool"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendXDoTool, BackendDryRun:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendXDoTool, BackendDryRun)
	}
	if _, err := NormalizeLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := NormalizeFormat(c.Log.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Record.Delay < 0 || c.Record.StopAfter < 0 || c.Play.Delay < 0 {
		return fmt.Errorf("config: delays must not be negative")
	}
	switch c.Record.StopOn {
	case "", "move", "click", "scroll":
	default:
		return fmt.Errorf("config: record.stop_on %q must be move, click or scroll", c.Record.StopOn)
	}
	if c.Play.Speed < 0 {
		return fmt.Errorf("config: play.speed must be positive, got %v", c.Play.Speed)
	}
	return nil
}

// NormalizeLogLevel validates and canonicalizes a log level name.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes a log format name.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "console":
		return "text", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
