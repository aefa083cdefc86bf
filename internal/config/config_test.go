package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("AUTOMICE_TEST_DB", "/srv/macros.db")
	path := writeConfig(t, `
database: ${AUTOMICE_TEST_DB}
backend: dry-run
log:
  level: debug
  format: json
record:
  delay: 3s
  stop_after: 1m
  stop_on: click
  safe: false
play:
  delay: 500ms
  speed: 2
xinput:
  command: /usr/bin/xinput
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database != "/srv/macros.db" {
		t.Errorf("Database = %q, want expanded env value", cfg.Database)
	}
	if cfg.Backend != BackendDryRun {
		t.Errorf("Backend = %q, want dry-run", cfg.Backend)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Record.Delay != 3*time.Second || cfg.Record.StopAfter != time.Minute {
		t.Errorf("Record delays = %v / %v", cfg.Record.Delay, cfg.Record.StopAfter)
	}
	if cfg.Record.StopOn != "click" {
		t.Errorf("Record.StopOn = %q, want click", cfg.Record.StopOn)
	}
	if cfg.Record.SafeEnabled() {
		t.Error("Record.SafeEnabled() should be false when set to false")
	}
	if !cfg.Play.SafeEnabled() {
		t.Error("Play.SafeEnabled() should default to true")
	}
	if cfg.Play.Delay != 500*time.Millisecond || cfg.Play.Speed != 2 {
		t.Errorf("Play = %+v", cfg.Play)
	}
	if cfg.XInput.Command != "/usr/bin/xinput" {
		t.Errorf("XInput.Command = %q", cfg.XInput.Command)
	}
	if cfg.XDoTool.Command != "xdotool" {
		t.Errorf("XDoTool.Command = %q, want default", cfg.XDoTool.Command)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != BackendXDoTool {
		t.Errorf("Backend = %q, want xdotool", cfg.Backend)
	}
	if !cfg.Record.SafeEnabled() || !cfg.Play.SafeEnabled() {
		t.Error("safe mode should default to on")
	}
	if cfg.Play.Speed != 1 {
		t.Errorf("Play.Speed = %v, want 1", cfg.Play.Speed)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad backend", "backend: robot\n", "unknown backend"},
		{"bad level", "log:\n  level: loud\n", "log level"},
		{"bad format", "log:\n  format: xml\n", "log format"},
		{"bad stop_on", "record:\n  stop_on: keypress\n", "stop_on"},
		{"negative delay", "play:\n  delay: -1s\n", "negative"},
		{"negative speed", "play:\n  speed: -2\n", "speed"},
		{"bad yaml", "record: [\n", "parse"},
		{"bad duration", "record:\n  delay: soon\n", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "automice") {
		t.Errorf("Dir() = %q", dir)
	}
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() failed: %v", err)
	}
	if path != filepath.Join("/tmp/xdg", "automice", "config.yaml") {
		t.Errorf("DefaultPath() = %q", path)
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := map[string]string{"": "info", "INFO": "info", "warning": "warn", "debug": "debug", "error": "error"}
	for in, want := range tests {
		got, err := NormalizeLogLevel(in)
		if err != nil || got != want {
			t.Errorf("NormalizeLogLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
