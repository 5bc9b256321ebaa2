package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/scanner"
)

func newLibrary(f *fixture) *LibraryService {
	return NewLibraryService(f.folders, f.documents, scanner.New(nil), nil, nil)
}

func TestRegisterFolderScansDocuments(t *testing.T) {
	f := newFixture(t)
	lib := newLibrary(f)
	ctx := context.Background()

	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.md", "ignored.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("body"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	folder, added, err := lib.RegisterFolder(ctx, dir, "")
	if err != nil {
		t.Fatalf("RegisterFolder: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	if folder.Name != filepath.Base(dir) {
		t.Errorf("name = %q, want folder basename", folder.Name)
	}

	// Registering the same path again reuses the folder and adds nothing
	again, added, err := lib.RegisterFolder(ctx, dir, "")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.ID != folder.ID {
		t.Errorf("re-register created a new folder")
	}
	if added != 0 {
		t.Errorf("re-register added = %d, want 0", added)
	}
}

func TestRescanPicksUpNewDocuments(t *testing.T) {
	f := newFixture(t)
	lib := newLibrary(f)
	ctx := context.Background()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("body"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	folder, _, err := lib.RegisterFolder(ctx, dir, "")
	if err != nil {
		t.Fatalf("RegisterFolder: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("body"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	added, err := lib.Rescan(ctx, folder.ID)
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
}

func TestRescanUnknownFolder(t *testing.T) {
	f := newFixture(t)
	lib := newLibrary(f)

	_, err := lib.Rescan(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	lib := newLibrary(f)
	ctx := context.Background()

	folder, _, err := lib.RegisterFolder(ctx, t.TempDir(), "")
	if err != nil {
		t.Fatalf("RegisterFolder: %v", err)
	}

	doc, err := lib.UploadDocument(ctx, folder.ID, "report.txt", []byte("uploaded body"))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if doc.FolderID != folder.ID {
		t.Errorf("folder id = %q, want %q", doc.FolderID, folder.ID)
	}
	data, err := os.ReadFile(doc.Filepath)
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(data) != "uploaded body" {
		t.Errorf("file content = %q", data)
	}

	// Duplicate filenames and unsupported extensions are rejected
	if _, err := lib.UploadDocument(ctx, folder.ID, "report.txt", []byte("x")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("duplicate upload err = %v, want ErrValidation", err)
	}
	if _, err := lib.UploadDocument(ctx, folder.ID, "image.png", []byte("x")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unsupported upload err = %v, want ErrValidation", err)
	}
}
