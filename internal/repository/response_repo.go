package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
)

// ResponseRepository handles response placeholder records in the secondary
// store. The orchestrator only creates rows with status queued; later status
// transitions belong to the external processing service.
type ResponseRepository struct {
	db *gorm.DB
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Create inserts a response placeholder row.
func (r *ResponseRepository) Create(ctx context.Context, rec *domain.ResponseRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetByNaturalKey retrieves a response record by its work-unit key
// (staged document, prompt, connection).
func (r *ResponseRepository) GetByNaturalKey(ctx context.Context, docID, promptID, connectionID string) (*domain.ResponseRecord, error) {
	var rec domain.ResponseRecord
	if err := r.db.WithContext(ctx).
		First(&rec, "doc_id = ? AND prompt_id = ? AND connection_id = ?", docID, promptID, connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListByBatch returns all response records for a batch.
func (r *ResponseRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.ResponseRecord, error) {
	var recs []domain.ResponseRecord
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// StatusCounts returns response counts grouped by status, batch-scoped when
// batchID is non-empty, global otherwise. The progress aggregator treats a
// failure here as store unavailability, not a fatal error.
func (r *ResponseRepository) StatusCounts(ctx context.Context, batchID string) (map[domain.ResponseStatus]int64, error) {
	type row struct {
		Status domain.ResponseStatus
		N      int64
	}
	q := r.db.WithContext(ctx).Model(&domain.ResponseRecord{}).
		Select("status, count(*) as n").
		Group("status")
	if batchID != "" {
		q = q.Where("batch_id = ?", batchID)
	}
	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.ResponseStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}

// TerminalStatusByUnit returns, for every response record of the batch that
// already has a terminal status, its (document, prompt, connection) key.
// The matrix builder uses this as its skip predicate input.
func (r *ResponseRepository) TerminalStatusByUnit(ctx context.Context, batchID string) (map[[3]string]domain.ResponseStatus, error) {
	var recs []domain.ResponseRecord
	if err := r.db.WithContext(ctx).
		Select("doc_id", "prompt_id", "connection_id", "status").
		Where("batch_id = ? AND status IN ?", batchID,
			[]domain.ResponseStatus{domain.ResponseStatusSuccess, domain.ResponseStatusFailure}).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[[3]string]domain.ResponseStatus, len(recs))
	for _, rec := range recs {
		out[[3]string{rec.DocID, rec.PromptID, rec.ConnectionID}] = rec.Status
	}
	return out, nil
}
