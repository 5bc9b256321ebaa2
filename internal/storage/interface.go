package storage

import (
	"context"
	"io"
)

// ObjectStorage is the archival store for uploaded documents.
type ObjectStorage interface {
	// Upload streams an object into storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// UploadBytes stores an in-memory object
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error

	// Download retrieves an object; the caller closes the reader
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for an object
	GetURL(key string) string

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present
	Exists(ctx context.Context, key string) (bool, error)
}
