// Package scanner walks registered folder trees and reports the documents
// they contain. Traversal errors on individual entries never abort the walk:
// the caller gets whatever was gathered plus an error describing what was
// skipped.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jfries/batchlens/internal/domain"
)

// DefaultExtensions is the fixed set of supported document formats.
var DefaultExtensions = []string{".pdf", ".txt", ".md", ".docx", ".doc", ".rtf", ".html", ".htm"}

// Scanner filters a directory tree down to supported document files.
type Scanner struct {
	extensions map[string]struct{}
}

// New creates a Scanner for the given extension allow-list (lower-cased,
// leading dot). An empty list uses DefaultExtensions.
func New(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return &Scanner{extensions: set}
}

// Supported reports whether a filename's extension is in the allow-list.
func (s *Scanner) Supported(name string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scan returns the absolute paths of all supported documents under root,
// recursing into subdirectories, sorted for deterministic ordering.
//
// The root must exist and be a directory; otherwise ErrNotFound or
// ErrNotADirectory is returned. Unreadable entries partway through the walk
// are skipped: the gathered partial result is returned together with an
// error wrapping ErrPermissionDenied, and the caller decides whether the
// partial result is usable.
func (s *Scanner) Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scan root %s: %w", root, domain.ErrNotFound)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("scan root %s: %w", root, domain.ErrPermissionDenied)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s: %w", root, domain.ErrNotADirectory)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	var blocked []string

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Record the inaccessible entry and keep walking siblings
			blocked = append(blocked, path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if s.Supported(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})

	sort.Strings(paths)

	if walkErr != nil {
		return paths, walkErr
	}
	if len(blocked) > 0 {
		return paths, fmt.Errorf("%d entries unreadable under %s (first: %s): %w",
			len(blocked), root, blocked[0], domain.ErrPermissionDenied)
	}
	return paths, nil
}

// IsPartial reports whether a Scan error still came with usable results.
func IsPartial(err error) bool {
	return errors.Is(err, domain.ErrPermissionDenied)
}
