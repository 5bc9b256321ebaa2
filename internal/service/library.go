package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/scanner"
	"github.com/jfries/batchlens/internal/storage"
)

// LibraryService maintains the document library: folder registration,
// rescans, and uploads. Scanning only records metadata; content stays on
// disk until a batch stages it.
type LibraryService struct {
	folders   *repository.FolderRepository
	documents *repository.DocumentRepository
	scan      *scanner.Scanner
	store     storage.ObjectStorage // optional archival copy of uploads
	log       *logger.Logger
}

// NewLibraryService creates a LibraryService. store may be nil when object
// storage is disabled.
func NewLibraryService(
	folders *repository.FolderRepository,
	documents *repository.DocumentRepository,
	scan *scanner.Scanner,
	store storage.ObjectStorage,
	log *logger.Logger,
) *LibraryService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &LibraryService{
		folders:   folders,
		documents: documents,
		scan:      scan,
		store:     store,
		log:       log,
	}
}

// RegisterFolder registers a directory and scans it for documents. The
// folder row is created even when the scan ends in a partial result; the
// error is returned alongside whatever was registered so the caller can
// report both.
func (s *LibraryService) RegisterFolder(ctx context.Context, path, name string) (*domain.Folder, int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, 0, err
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	folder, err := s.folders.GetByPath(ctx, abs)
	if errors.Is(err, domain.ErrNotFound) {
		folder = &domain.Folder{
			ID:        uuid.New().String(),
			Path:      abs,
			Name:      name,
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.folders.Create(ctx, folder); err != nil {
			return nil, 0, fmt.Errorf("failed to create folder: %w", err)
		}
	} else if err != nil {
		return nil, 0, err
	}

	added, scanErr := s.scanInto(ctx, folder)
	return folder, added, scanErr
}

// Rescan walks an existing folder again and registers documents that
// appeared since the last scan.
func (s *LibraryService) Rescan(ctx context.Context, folderID string) (int, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return 0, err
	}
	if !folder.IsActive {
		return 0, fmt.Errorf("folder %s is deactivated: %w", folderID, domain.ErrValidation)
	}
	return s.scanInto(ctx, folder)
}

// scanInto runs the scanner and creates document rows for new paths.
// Partial scan results are still registered; the scan error propagates.
func (s *LibraryService) scanInto(ctx context.Context, folder *domain.Folder) (int, error) {
	paths, scanErr := s.scan.Scan(folder.Path)
	if scanErr != nil && len(paths) == 0 {
		return 0, scanErr
	}

	added := 0
	for _, path := range paths {
		_, err := s.documents.GetByPath(ctx, path)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return added, err
		}

		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		doc := &domain.Document{
			ID:        uuid.New().String(),
			Filename:  filepath.Base(path),
			Filepath:  path,
			FolderID:  folder.ID,
			FileSize:  size,
			CreatedAt: time.Now(),
		}
		if err := s.documents.Create(ctx, doc); err != nil {
			return added, fmt.Errorf("failed to register %s: %w", path, err)
		}
		added++
	}

	s.log.WithFields(logger.Fields{
		logger.FieldFolder: folder.Path,
		logger.FieldCount:  added,
	}).Info("Folder scan registered documents")
	return added, scanErr
}

// UploadDocument writes an uploaded file into the folder's directory,
// registers it, and archives a copy to object storage when configured.
func (s *LibraryService) UploadDocument(ctx context.Context, folderID, filename string, data []byte) (*domain.Document, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !s.scan.Supported(filename) {
		return nil, fmt.Errorf("unsupported document type %s: %w", filepath.Ext(filename), domain.ErrValidation)
	}

	path := filepath.Join(folder.Path, filepath.Base(filename))
	if _, err := s.documents.GetByPath(ctx, path); err == nil {
		return nil, fmt.Errorf("document %s already exists: %w", filename, domain.ErrValidation)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write uploaded file: %w", err)
	}

	doc := &domain.Document{
		ID:        uuid.New().String(),
		Filename:  filepath.Base(filename),
		Filepath:  path,
		FolderID:  folder.ID,
		FileSize:  int64(len(data)),
		CreatedAt: time.Now(),
	}

	if s.store != nil {
		key := fmt.Sprintf("uploads/%s/%s", folder.ID, doc.Filename)
		if err := s.store.UploadBytes(ctx, key, data, contentTypeFor(filename)); err != nil {
			// Archival copy is best effort; the on-disk file is canonical
			s.log.WithField("key", key).WithError(err).Warn("Failed to archive upload to object storage")
		} else {
			doc.StorageKey = key
		}
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to register uploaded document: %w", err)
	}
	return doc, nil
}

func contentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".txt", ".rtf":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
