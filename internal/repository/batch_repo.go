package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
)

// BatchRepository handles batch lifecycle persistence in the primary store.
type BatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new batch row with its configuration snapshot.
func (r *BatchRepository) Create(ctx context.Context, batch *domain.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// GetByID retrieves a batch by its ID.
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var batch domain.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// List returns batches, newest first, excluding archived ones unless asked.
func (r *BatchRepository) List(ctx context.Context, includeArchived bool) ([]domain.Batch, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if !includeArchived {
		q = q.Where("status <> ?", domain.BatchStatusArchived)
	}
	var batches []domain.Batch
	if err := q.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// UpdateStatus transitions a batch to the given status, recording the
// staging error text (empty clears it) and document count when provided.
func (r *BatchRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, lastError string) error {
	res := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": lastError,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CasStatus transitions a batch only if it currently holds one of the
// expected statuses. Returns ErrBatchNotStageable when the guard fails,
// which serializes competing staging attempts at the store level.
func (r *BatchRepository) CasStatus(ctx context.Context, id string, from []domain.BatchStatus, to domain.BatchStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing batch from a state conflict
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Batch{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrBatchNotStageable
	}
	return nil
}

// SetDocumentCount caches the number of documents staged for the batch.
func (r *BatchRepository) SetDocumentCount(ctx context.Context, id string, count int) error {
	return r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("id = ?", id).
		Update("document_count", count).Error
}

// CountByStatus returns batch counts grouped by status.
func (r *BatchRepository) CountByStatus(ctx context.Context) (map[domain.BatchStatus]int64, error) {
	type row struct {
		Status domain.BatchStatus
		N      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.BatchStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
