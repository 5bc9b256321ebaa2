package service

import (
	"context"

	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
)

// Progress is the aggregate view over both stores. Units are
// (document, prompt, connection) triples throughout — the same granularity
// the staging queue uses. When the secondary store cannot be queried the
// primary-store view is returned with Degraded set instead of an error:
// a known batch always gets some answer.
type Progress struct {
	BatchID          string             `json:"batch_id,omitempty"`
	BatchStatus      domain.BatchStatus `json:"batch_status,omitempty"`
	TotalUnits       int64              `json:"total_units"`
	ProcessedUnits   int64              `json:"processed_units"`
	OutstandingUnits int64              `json:"outstanding_units"`
	Percent          float64            `json:"percent"`
	DocumentCount    int64              `json:"document_count"`
	ActiveBatches    int64              `json:"active_batches,omitempty"`
	Degraded         bool               `json:"degraded"`
}

// ProgressService computes progress by reading the primary store and,
// best-effort, the secondary store.
type ProgressService struct {
	batches   *repository.BatchRepository
	documents *repository.DocumentRepository
	responses *repository.ResponseRepository
	log       *logger.Logger
}

// NewProgressService creates a ProgressService.
func NewProgressService(
	batches *repository.BatchRepository,
	documents *repository.DocumentRepository,
	responses *repository.ResponseRepository,
	log *logger.Logger,
) *ProgressService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ProgressService{
		batches:   batches,
		documents: documents,
		responses: responses,
		log:       log,
	}
}

// Batch returns progress for one batch. The batch itself must exist in the
// primary store; only the secondary-store counts are best-effort.
func (s *ProgressService) Batch(ctx context.Context, batchID string) (*Progress, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		BatchID:       batch.ID,
		BatchStatus:   batch.Status,
		DocumentCount: int64(batch.DocumentCount),
	}

	counts, err := s.responses.StatusCounts(ctx, batchID)
	if err != nil {
		// Fall back to what the primary store alone can tell us: the
		// snapshot dimensions give the expected total.
		s.log.WithField(logger.FieldBatchID, batchID).WithError(err).Warn("Secondary store unreachable, returning degraded progress")
		p.Degraded = true
		p.TotalUnits = int64(batch.DocumentCount) *
			int64(len(batch.Config.PromptIDs)) *
			int64(len(batch.Config.ConnectionIDs))
		p.OutstandingUnits = p.TotalUnits
		return p, nil
	}

	s.fill(p, counts)
	return p, nil
}

// Global returns progress across all batches.
func (s *ProgressService) Global(ctx context.Context) (*Progress, error) {
	p := &Progress{}

	byStatus, err := s.batches.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, n := range byStatus {
		if status != domain.BatchStatusArchived {
			p.ActiveBatches += n
		}
	}

	var total int64
	if _, docTotal, err := s.documents.List(ctx, 1, 0); err == nil {
		total = docTotal
	}
	p.DocumentCount = total

	counts, err := s.responses.StatusCounts(ctx, "")
	if err != nil {
		s.log.WithError(err).Warn("Secondary store unreachable, returning degraded progress")
		p.Degraded = true
		return p, nil
	}

	s.fill(p, counts)
	return p, nil
}

func (s *ProgressService) fill(p *Progress, counts map[domain.ResponseStatus]int64) {
	for status, n := range counts {
		p.TotalUnits += n
		if status.IsTerminal() {
			p.ProcessedUnits += n
		}
	}
	p.OutstandingUnits = p.TotalUnits - p.ProcessedUnits
	if p.TotalUnits > 0 {
		p.Percent = float64(p.ProcessedUnits) / float64(p.TotalUnits) * 100
	}
}
