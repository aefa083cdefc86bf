package watcher

import (
	"testing"

	"github.com/blackwell-systems/automice/internal/store"
)

// setupTestStore returns an empty macro library backed by in-memory SQLite.
// It is closed automatically when the test ends.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	lib, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open macro library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}
