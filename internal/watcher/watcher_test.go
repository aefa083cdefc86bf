package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/automice/internal/logging"
	"github.com/blackwell-systems/automice/internal/store"
)

const validMacro = `[{"type":"move","x":10,"y":20,"delay":0.0},{"type":"click","x":10,"y":20,"button":"left","pressed":true,"delay":0.1}]`

type importResult struct {
	name string
	err  error
}

// startWatcher runs a watcher over dir and returns a channel of import results.
func startWatcher(t *testing.T, st *store.Store, dir string) <-chan importResult {
	t.Helper()

	results := make(chan importResult, 16)
	w, err := New(st, dir,
		WithDebounce(20*time.Millisecond),
		WithLogger(logging.Discard()),
		WithNotify(func(name, path string, err error) {
			results <- importResult{name: name, err: err}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop after cancel")
		}
	})
	return results
}

func waitFor(t *testing.T, results <-chan importResult) importResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import")
		return importResult{}
	}
}

func TestNew_NilLibrary(t *testing.T) {
	if _, err := New(nil, t.TempDir()); err == nil {
		t.Error("New(nil) expected error, got nil")
	}
}

func TestNew_NotADirectory(t *testing.T) {
	st := setupTestStore(t)
	file := filepath.Join(t.TempDir(), "file.json")
	if err := os.WriteFile(file, []byte("[]"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := New(st, file); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := New(st, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestRunImportsExistingAndNewFiles(t *testing.T) {
	st := setupTestStore(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "existing.json"), []byte(validMacro), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	results := startWatcher(t, st, dir)

	r := waitFor(t, results)
	if r.err != nil || r.name != "existing" {
		t.Fatalf("initial import = %+v, want existing without error", r)
	}

	if err := os.WriteFile(filepath.Join(dir, "dropped.json"), []byte(validMacro), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r = waitFor(t, results)
	if r.err != nil || r.name != "dropped" {
		t.Fatalf("watched import = %+v, want dropped without error", r)
	}

	m, log, err := st.GetMacro("dropped")
	if err != nil {
		t.Fatalf("GetMacro() error = %v", err)
	}
	if len(log) != 2 {
		t.Errorf("imported %d events, want 2", len(log))
	}
	if m.Source != filepath.Join(dir, "dropped.json") {
		t.Errorf("Source = %q, want the file path", m.Source)
	}

	if _, _, err := st.GetMacro("notes"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("non-json files should be ignored, GetMacro(notes) error = %v", err)
	}
}

func TestRunSkipsBadFiles(t *testing.T) {
	st := setupTestStore(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"not":"a list"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	results := startWatcher(t, st, dir)

	r := waitFor(t, results)
	if r.err == nil {
		t.Fatal("expected an import error for a corrupt file")
	}
	if _, _, err := st.GetMacro("broken"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("corrupt file should not be stored, GetMacro() error = %v", err)
	}

	// The watcher survives and keeps importing.
	if err := os.WriteFile(filepath.Join(dir, "good.json"), []byte(validMacro), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		r = waitFor(t, results)
		if r.name == "good" {
			break
		}
	}
	if r.err != nil {
		t.Errorf("good file import error = %v", r.err)
	}
}

func TestMacroName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/login.json", "login"},
		{"relative/Form.Fill.JSON", "Form.Fill"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := MacroName(tt.path); got != tt.want {
			t.Errorf("MacroName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsMacroFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.json", true},
		{"/dir/B.JSON", true},
		{"a.txt", false},
		{".a.json.123.tmp", false},
		{".hidden.json", false},
	}
	for _, tt := range tests {
		if got := isMacroFile(tt.path); got != tt.want {
			t.Errorf("isMacroFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDeliverGivesUpAfterRunReturns(t *testing.T) {
	ready := make(chan string) // nobody reads
	done := make(chan struct{})
	close(done)

	returned := make(chan bool, 1)
	go func() { returned <- deliver("late.json", ready, done) }()

	select {
	case delivered := <-returned:
		if delivered {
			t.Error("deliver() reported success with no reader")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deliver() blocked after the event loop exited")
	}
}

func TestDeliverHandsPathToEventLoop(t *testing.T) {
	ready := make(chan string, 1)
	if !deliver("a.json", ready, make(chan struct{})) {
		t.Fatal("deliver() = false, want true")
	}
	if got := <-ready; got != "a.json" {
		t.Errorf("delivered %q, want a.json", got)
	}
}

func TestScheduleCoalescesWrites(t *testing.T) {
	st := setupTestStore(t)
	w, err := New(st, t.TempDir(), WithDebounce(50*time.Millisecond), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ready := make(chan string, 4)
	done := make(chan struct{})
	defer close(done)

	for i := 0; i < 3; i++ {
		w.schedule("burst.json", ready, done)
	}

	select {
	case got := <-ready:
		if got != "burst.json" {
			t.Errorf("delivered %q, want burst.json", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced path was never delivered")
	}
	select {
	case extra := <-ready:
		t.Errorf("burst should coalesce into one delivery, got extra %q", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
