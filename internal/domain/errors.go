package domain

import "errors"

// Sentinel errors shared across the orchestrator. Callers match them with
// errors.Is; the API layer maps them to HTTP statuses.
var (
	// ErrNotFound indicates a folder, batch, task, or document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotADirectory indicates a scan root exists but is a regular file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrPermissionDenied indicates filesystem traversal was blocked.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation indicates malformed content encoding that could not be repaired.
	ErrValidation = errors.New("validation failed")

	// ErrPartialWrite indicates staging stopped partway. Recoverable: a later
	// staging attempt completes the remainder.
	ErrPartialWrite = errors.New("partial write")

	// ErrStoreUnavailable indicates the secondary store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStagingInProgress indicates another staging run already holds the batch.
	ErrStagingInProgress = errors.New("staging already in progress")

	// ErrBatchNotStageable indicates the batch state forbids the requested transition.
	ErrBatchNotStageable = errors.New("batch cannot be staged in its current state")

	// ErrEmptyConfiguration indicates the batch snapshot has no active prompts
	// or no active connections, so no work matrix can exist.
	ErrEmptyConfiguration = errors.New("no active prompts or connections configured")
)
