package app

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/store"
)

func TestListEmptyLibrary(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No macros found.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestImportListExportDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeMacro(t, dir, "checkout.json")

	out, err := executeCommand(t, dir, "import", path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, `Imported "checkout" (2 events)`) {
		t.Errorf("unexpected import output:\n%s", out)
	}

	if _, err := executeCommand(t, dir, "import", path, "--name", "renamed"); err != nil {
		t.Fatalf("import --name failed: %v", err)
	}

	out, err = executeCommand(t, dir, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"checkout", "renamed", path} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	exported := filepath.Join(dir, "out.json")
	if _, err := executeCommand(t, dir, "export", "checkout", "-o", exported); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	log, err := macro.Load(exported)
	if err != nil {
		t.Fatalf("exported file should load: %v", err)
	}
	if len(log) != 2 {
		t.Errorf("exported %d events, want 2", len(log))
	}

	out, err = executeCommand(t, dir, "delete", "checkout")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, `Deleted macro "checkout"`) {
		t.Errorf("unexpected delete output:\n%s", out)
	}
	if _, err := executeCommand(t, dir, "delete", "checkout"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestShowFile(t *testing.T) {
	dir := t.TempDir()
	path := writeMacro(t, dir, "m.json")

	out, err := executeCommand(t, dir, "show", path)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"2 events", "(10, 20)", "left down"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestExportRequiresOutput(t *testing.T) {
	if _, err := executeCommand(t, t.TempDir(), "export", "x"); err == nil {
		t.Error("expected error without -o")
	}
}

func TestImportInvalidFile(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, dir, "import", filepath.Join(dir, "missing.json"))
	var loadErr *macro.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("expected *macro.LoadError, got %v", err)
	}
}
