package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/store"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 250 * time.Millisecond

// Library is the part of the macro store the watcher writes to.
type Library interface {
	SaveMacro(name string, log macro.Log, source string) (*store.Macro, error)
}

// Watcher imports macro files from a directory into a Library.
type Watcher struct {
	lib      Library
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	notify   func(name, path string, err error)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for import messages.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithNotify registers a callback invoked after every import attempt. err
// is nil when the macro was saved.
func WithNotify(fn func(name, path string, err error)) Option {
	return func(w *Watcher) { w.notify = fn }
}

// New creates a new Watcher for dir.
func New(lib Library, dir string, opts ...Option) (*Watcher, error) {
	if lib == nil {
		return nil, fmt.Errorf("library cannot be nil")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	w := &Watcher{
		lib:      lib,
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the directory until ctx is cancelled. It returns nil on
// cancellation and an error only if the watch cannot be established or the
// event stream closes unexpectedly.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	ready := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		w.stopPending()
	}()

	w.logger.Info("watching for macros", "dir", w.dir, "debounce", w.debounce)
	w.importExisting()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", "dir", w.dir)
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("fsnotify event stream closed")
			}
			if !isMacroFile(ev.Name) || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ev.Name, ready, done)

		case path := <-ready:
			w.importFile(path)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error stream closed")
			}
			w.logger.Warn("watch error", "dir", w.dir, "error", err)
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		deliver(path, ready, done)
	})
}

// deliver hands path to the event loop unless Run has already returned.
func deliver(path string, ready chan<- string, done <-chan struct{}) bool {
	select {
	case ready <- path:
		return true
	case <-done:
		return false
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list watch directory", "dir", w.dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isMacroFile(entry.Name()) {
			continue
		}
		w.importFile(filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) importFile(path string) {
	name := MacroName(path)

	log, err := macro.Load(path)
	if err == nil {
		_, err = w.lib.SaveMacro(name, log, path)
	}

	if err != nil {
		w.logger.Warn("skipping macro file", "path", path, "error", err)
	} else {
		w.logger.Info("imported macro", "name", name, "events", len(log), "path", path)
	}

	if w.notify != nil {
		w.notify(name, path, err)
	}
}

// MacroName returns the library name for a macro file: its base name
// without extension.
func MacroName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isMacroFile(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}
