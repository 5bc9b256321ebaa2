package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/task"
	"github.com/jfries/batchlens/internal/worker"
)

// BatchService owns the batch state machine: creation with an immutable
// configuration snapshot, staging dispatch, and archival. Staging runs on
// the worker pool; callers get a task ID back immediately and poll.
type BatchService struct {
	batches     *repository.BatchRepository
	folders     *repository.FolderRepository
	prompts     *repository.PromptRepository
	connections *repository.ConnectionRepository
	sync        *Synchronizer
	registry    *task.Registry
	pool        *worker.Pool
	log         *logger.Logger

	// inflight serializes staging per batch: at most one STAGING run at a
	// time, competing requests are rejected rather than queued.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewBatchService creates a BatchService.
func NewBatchService(
	batches *repository.BatchRepository,
	folders *repository.FolderRepository,
	prompts *repository.PromptRepository,
	connections *repository.ConnectionRepository,
	synchronizer *Synchronizer,
	registry *task.Registry,
	pool *worker.Pool,
	log *logger.Logger,
) *BatchService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &BatchService{
		batches:     batches,
		folders:     folders,
		prompts:     prompts,
		connections: connections,
		sync:        synchronizer,
		registry:    registry,
		pool:        pool,
		log:         log,
		inflight:    make(map[string]struct{}),
	}
}

// Create creates a batch in draft state, capturing the configuration
// snapshot at this instant. Empty connection or prompt selections default
// to every currently active row; the resolved ID lists are copied onto the
// batch so later configuration edits cannot change it.
func (s *BatchService) Create(ctx context.Context, name string, folderIDs, connectionIDs, promptIDs []string) (*domain.Batch, error) {
	if len(folderIDs) == 0 {
		return nil, fmt.Errorf("batch needs at least one folder: %w", domain.ErrEmptyConfiguration)
	}
	for _, id := range folderIDs {
		if _, err := s.folders.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("folder %s: %w", id, err)
		}
	}

	if len(connectionIDs) == 0 {
		conns, err := s.connections.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active connections: %w", err)
		}
		for _, c := range conns {
			connectionIDs = append(connectionIDs, c.ID)
		}
	}
	if len(promptIDs) == 0 {
		prompts, err := s.prompts.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active prompts: %w", err)
		}
		for _, p := range prompts {
			promptIDs = append(promptIDs, p.ID)
		}
	}

	batch := &domain.Batch{
		ID:   uuid.New().String(),
		Name: name,
		Config: domain.BatchConfig{
			FolderIDs:     folderIDs,
			ConnectionIDs: connectionIDs,
			PromptIDs:     promptIDs,
		},
		Status:    domain.BatchStatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

// Get retrieves a batch by ID.
func (s *BatchService) Get(ctx context.Context, id string) (*domain.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// List returns batches, excluding archived ones unless asked.
func (s *BatchService) List(ctx context.Context, includeArchived bool) ([]domain.Batch, error) {
	return s.batches.List(ctx, includeArchived)
}

// Stage dispatches a staging run for the batch to the worker pool and
// returns the task ID to poll. A concurrent request for the same batch
// observes ErrStagingInProgress; it is never run in parallel with the
// first. Re-staging a staged or failed batch is allowed and converges.
func (s *BatchService) Stage(ctx context.Context, batchID string) (string, error) {
	batch, release, err := s.acquire(ctx, batchID)
	if err != nil {
		return "", err
	}

	taskID := s.registry.Create(0)
	jobCtx := logger.WithFields(context.Background(), logger.Fields{
		logger.FieldBatchID: batchID,
		logger.FieldTaskID:  taskID,
	})

	submitErr := s.pool.Submit(func(poolCtx context.Context) {
		defer release()
		s.runStaging(jobCtx, batch, taskID)
	})
	if submitErr != nil {
		release()
		// Roll the row back out of staging so a retry is possible
		if err := s.batches.UpdateStatus(ctx, batchID, batch.Status, batch.LastError); err != nil {
			s.log.WithField(logger.FieldBatchID, batchID).WithError(err).Error("Failed to revert batch status after dispatch failure")
		}
		return "", fmt.Errorf("failed to dispatch staging job: %w", submitErr)
	}
	return taskID, nil
}

// StageSync runs staging inline and returns the summary. Used by the CLI
// where fire-and-poll makes no sense.
func (s *BatchService) StageSync(ctx context.Context, batchID string) (*StagingSummary, error) {
	batch, release, err := s.acquire(ctx, batchID)
	if err != nil {
		return nil, err
	}
	defer release()

	taskID := s.registry.Create(0)
	return s.runStaging(ctx, batch, taskID), nil
}

// acquire takes the per-batch staging slot and transitions the row to
// STAGING. On success the returned batch still carries its pre-staging
// status for rollback, and release must be called exactly once.
func (s *BatchService) acquire(ctx context.Context, batchID string) (*domain.Batch, func(), error) {
	s.mu.Lock()
	if _, busy := s.inflight[batchID]; busy {
		s.mu.Unlock()
		return nil, nil, domain.ErrStagingInProgress
	}
	s.inflight[batchID] = struct{}{}
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.inflight, batchID)
		s.mu.Unlock()
	}

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		release()
		return nil, nil, err
	}
	if !batch.Status.Stageable() {
		release()
		if batch.Status == domain.BatchStatusStaging {
			return nil, nil, domain.ErrStagingInProgress
		}
		return nil, nil, domain.ErrBatchNotStageable
	}

	// Store-level guard: catches a competing process that slipped past the
	// in-memory set.
	err = s.batches.CasStatus(ctx, batchID,
		[]domain.BatchStatus{domain.BatchStatusDraft, domain.BatchStatusFailedStaging, domain.BatchStatusStaged},
		domain.BatchStatusStaging)
	if err != nil {
		release()
		if errors.Is(err, domain.ErrBatchNotStageable) {
			return nil, nil, domain.ErrStagingInProgress
		}
		return nil, nil, err
	}
	return batch, release, nil
}

// runStaging executes the synchronizer and settles both the task entry and
// the batch row. Errors are recorded on the batch for operator visibility,
// never thrown past this point.
func (s *BatchService) runStaging(ctx context.Context, batch *domain.Batch, taskID string) *StagingSummary {
	summary, err := s.sync.StageBatch(ctx, batch, taskID)
	if err != nil {
		errText := err.Error()
		if uerr := s.batches.UpdateStatus(ctx, batch.ID, domain.BatchStatusFailedStaging, errText); uerr != nil {
			s.log.WithField(logger.FieldBatchID, batch.ID).WithError(uerr).Error("Failed to record staging failure")
		}
		s.registry.Fail(taskID, errText)
		if summary == nil {
			summary = &StagingSummary{Error: errText}
		}
		return summary
	}

	if uerr := s.batches.UpdateStatus(ctx, batch.ID, domain.BatchStatusStaged, ""); uerr != nil {
		s.log.WithField(logger.FieldBatchID, batch.ID).WithError(uerr).Error("Failed to mark batch staged")
	}
	if uerr := s.batches.SetDocumentCount(ctx, batch.ID, summary.DocumentsPrepared); uerr != nil {
		s.log.WithField(logger.FieldBatchID, batch.ID).WithError(uerr).Error("Failed to cache document count")
	}
	s.registry.Complete(taskID)
	return summary
}

// Archive moves a batch to the archived state. Batches currently staging
// cannot be archived.
func (s *BatchService) Archive(ctx context.Context, batchID string) error {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Status == domain.BatchStatusStaging {
		return domain.ErrStagingInProgress
	}
	return s.batches.UpdateStatus(ctx, batchID, domain.BatchStatusArchived, batch.LastError)
}
