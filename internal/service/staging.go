package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/task"
)

// StagingSummary reports the outcome of one staging attempt with explicit
// counts, so partial success is never collapsed into a boolean.
type StagingSummary struct {
	DocumentsPrepared int    `json:"documents_prepared"`
	DocumentsTotal    int    `json:"documents_total"`
	ResponsesQueued   int    `json:"responses_queued"`
	ResponsesSkipped  int    `json:"responses_skipped"`
	AlreadyComplete   bool   `json:"already_complete"`
	Error             string `json:"error,omitempty"`
}

// String renders the operator-facing "N/M documents prepared" form.
func (s *StagingSummary) String() string {
	return fmt.Sprintf("%d/%d documents prepared, %d responses queued, %d skipped",
		s.DocumentsPrepared, s.DocumentsTotal, s.ResponsesQueued, s.ResponsesSkipped)
}

// Synchronizer materializes a batch's documents and response placeholders
// into the secondary store. Writes are idempotent under retry: existence is
// re-checked by natural key before every insert, because no constraint can
// span the two stores. Within one document, the staged content row is
// written before any response row referencing it.
type Synchronizer struct {
	documents   *repository.DocumentRepository
	prompts     *repository.PromptRepository
	connections *repository.ConnectionRepository
	stagedDocs  *repository.StagedDocRepository
	responses   *repository.ResponseRepository
	registry    *task.Registry
	log         *logger.Logger
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(
	documents *repository.DocumentRepository,
	prompts *repository.PromptRepository,
	connections *repository.ConnectionRepository,
	stagedDocs *repository.StagedDocRepository,
	responses *repository.ResponseRepository,
	registry *task.Registry,
	log *logger.Logger,
) *Synchronizer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Synchronizer{
		documents:   documents,
		prompts:     prompts,
		connections: connections,
		stagedDocs:  stagedDocs,
		responses:   responses,
		registry:    registry,
		log:         log,
	}
}

// StageBatch runs the staging algorithm for a batch against its frozen
// configuration snapshot. On partial failure the summary still carries the
// counts achieved so far and the error wraps ErrPartialWrite; a later
// attempt detects the already-written rows and completes the remainder.
func (s *Synchronizer) StageBatch(ctx context.Context, batch *domain.Batch, taskID string) (*StagingSummary, error) {
	cfg := batch.Config

	docs, err := s.documents.ListByFolders(ctx, cfg.FolderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	prompts, err := s.prompts.ListByIDs(ctx, cfg.PromptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	conns, err := s.connections.ListByIDs(ctx, cfg.ConnectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}

	// Pre-load what the secondary store already holds for this batch so the
	// matrix builder can drop terminal triples and retries converge instead
	// of compounding duplicates.
	stagedByDoc, err := s.stagedDocMap(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect staged documents: %w", domain.ErrStoreUnavailable)
	}
	terminal, err := s.responses.TerminalStatusByUnit(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect response records: %w", domain.ErrStoreUnavailable)
	}

	matrix := BuildMatrix(docs, prompts, conns, func(docID, promptID, connID string) bool {
		sd, ok := stagedByDoc[docID]
		if !ok {
			return false
		}
		_, done := terminal[[3]string{sd.ID, promptID, connID}]
		return done
	})
	if matrix.EmptyConfig {
		return nil, domain.ErrEmptyConfiguration
	}

	summary := &StagingSummary{
		DocumentsTotal:   len(docs),
		ResponsesSkipped: matrix.Skipped,
		AlreadyComplete:  matrix.AllDone(),
	}
	s.registry.SetTotal(taskID, len(matrix.Pending))

	// Group pending units per document, preserving matrix order
	unitsByDoc := make(map[string][]WorkUnit, len(docs))
	for _, u := range matrix.Pending {
		unitsByDoc[u.DocumentID] = append(unitsByDoc[u.DocumentID], u)
	}

	var firstErr error
	for _, doc := range docs {
		staged, err := s.ensureStagedDocument(ctx, batch.ID, &doc, stagedByDoc[doc.ID])
		if err != nil {
			s.log.WithFields(logger.Fields{
				logger.FieldBatchID: batch.ID,
				"document_id":       doc.ID,
			}).WithError(err).Error("Failed to stage document")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		summary.DocumentsPrepared++

		for _, unit := range unitsByDoc[doc.ID] {
			created, err := s.ensureResponseRecord(ctx, batch.ID, staged.ID, taskID, unit)
			if err != nil {
				s.log.WithFields(logger.Fields{
					logger.FieldBatchID: batch.ID,
					"doc_id":            staged.ID,
					"prompt_id":         unit.PromptID,
					"connection_id":     unit.ConnectionID,
				}).WithError(err).Error("Failed to queue response record")
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if created {
				summary.ResponsesQueued++
			} else {
				summary.ResponsesSkipped++
			}
			s.registry.Advance(taskID, 1)
		}
	}

	if firstErr != nil {
		summary.Error = firstErr.Error()
		return summary, fmt.Errorf("staging incomplete (%s): %v: %w", summary, firstErr, domain.ErrPartialWrite)
	}

	s.log.WithFields(logger.Fields{
		logger.FieldBatchID: batch.ID,
		logger.FieldTaskID:  taskID,
	}).Info("Staging completed: " + summary.String())
	return summary, nil
}

func (s *Synchronizer) stagedDocMap(ctx context.Context, batchID string) (map[string]*domain.StagedDocument, error) {
	staged, err := s.stagedDocs.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	byDoc := make(map[string]*domain.StagedDocument, len(staged))
	for i := range staged {
		byDoc[staged[i].DocumentID] = &staged[i]
	}
	return byDoc, nil
}

// ensureStagedDocument writes the document's content row if it is missing
// and validates (repairing when necessary) the encoding if it exists.
func (s *Synchronizer) ensureStagedDocument(ctx context.Context, batchID string, doc *domain.Document, cached *domain.StagedDocument) (*domain.StagedDocument, error) {
	existing := cached
	if existing == nil {
		found, err := s.stagedDocs.GetByNaturalKey(ctx, batchID, doc.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("existence check failed: %w", err)
		}
		existing = found
	}

	if existing != nil {
		if err := checkEncoded(existing.ContentEncoded, existing.ContentHash, existing.ContentLength); err == nil {
			return existing, nil
		}
		// Malformed encoding: repair by re-deriving from source bytes,
		// never by truncating what is stored.
		raw, err := os.ReadFile(doc.Filepath)
		if err != nil {
			return nil, fmt.Errorf("cannot repair staged content, source unreadable: %w", err)
		}
		if err := s.stagedDocs.UpdateContent(ctx, existing.ID, encodeContent(raw), hashContent(raw), int64(len(raw))); err != nil {
			return nil, fmt.Errorf("failed to repair staged content: %w", err)
		}
		s.log.WithFields(logger.Fields{
			logger.FieldBatchID: batchID,
			"document_id":       doc.ID,
		}).Warn("Repaired malformed staged content encoding")
		return existing, nil
	}

	raw, err := os.ReadFile(doc.Filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	staged := &domain.StagedDocument{
		ID:             uuid.New().String(),
		BatchID:        batchID,
		DocumentID:     doc.ID,
		Filename:       doc.Filename,
		ContentEncoded: encodeContent(raw),
		ContentHash:    hashContent(raw),
		ContentLength:  int64(len(raw)),
		CreatedAt:      time.Now(),
	}
	if err := s.stagedDocs.Create(ctx, staged); err != nil {
		return nil, fmt.Errorf("failed to write staged document: %w", err)
	}
	return staged, nil
}

// ensureResponseRecord inserts a queued placeholder for the work unit
// unless a row with the same natural key already exists. Returns whether a
// new row was created.
func (s *Synchronizer) ensureResponseRecord(ctx context.Context, batchID, stagedDocID, taskID string, unit WorkUnit) (bool, error) {
	_, err := s.responses.GetByNaturalKey(ctx, stagedDocID, unit.PromptID, unit.ConnectionID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("existence check failed: %w", err)
	}

	rec := &domain.ResponseRecord{
		ID:           uuid.New().String(),
		DocID:        stagedDocID,
		PromptID:     unit.PromptID,
		ConnectionID: unit.ConnectionID,
		BatchID:      batchID,
		TaskID:       taskID,
		Status:       domain.ResponseStatusQueued,
		CreatedAt:    time.Now(),
	}
	if err := s.responses.Create(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to queue response record: %w", err)
	}
	return true, nil
}
