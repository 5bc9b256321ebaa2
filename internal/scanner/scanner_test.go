package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jfries/batchlens/internal/domain"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanFiltersAndRecurses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"))
	writeFile(t, filepath.Join(root, "b.TXT"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.md"))
	writeFile(t, filepath.Join(root, "ignored.exe"))
	writeFile(t, filepath.Join(root, "noext"))

	paths, err := New(nil).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("expected absolute path, got %s", p)
		}
	}
}

func TestScanCustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"))
	writeFile(t, filepath.Join(root, "b.csv"))

	paths, err := New([]string{"csv"}).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "b.csv" {
		t.Fatalf("expected only b.csv, got %v", paths)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New(nil).Scan(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.pdf")
	writeFile(t, file)

	_, err := New(nil).Scan(file)
	if !errors.Is(err, domain.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestScanUnreadableSubdirYieldsPartial(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are ignored for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.txt"))
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.txt"))
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	paths, err := New(nil).Scan(root)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if !IsPartial(err) {
		t.Errorf("expected IsPartial to report true")
	}
	if len(paths) != 1 {
		t.Fatalf("expected the readable file in partial results, got %v", paths)
	}
}

func TestScanDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.txt"))
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "m.txt"))

	first, err := New(nil).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := New(nil).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 paths each run")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("order differs at %d: %s vs %s", i, first[i], second[i])
		}
	}
}
