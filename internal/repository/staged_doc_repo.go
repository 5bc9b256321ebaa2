package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
)

// StagedDocRepository handles staged document content in the secondary store.
type StagedDocRepository struct {
	db *gorm.DB
}

// NewStagedDocRepository creates a new StagedDocRepository.
func NewStagedDocRepository(db *gorm.DB) *StagedDocRepository {
	return &StagedDocRepository{db: db}
}

// Create inserts a staged document row.
func (r *StagedDocRepository) Create(ctx context.Context, doc *domain.StagedDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByNaturalKey retrieves a staged document by (batch, document). This is
// the existence check that makes staging idempotent: no constraint spans the
// two stores, so the synchronizer re-checks before every insert.
func (r *StagedDocRepository) GetByNaturalKey(ctx context.Context, batchID, documentID string) (*domain.StagedDocument, error) {
	var doc domain.StagedDocument
	if err := r.db.WithContext(ctx).
		First(&doc, "batch_id = ? AND document_id = ?", batchID, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// UpdateContent rewrites the encoded content of an existing staged row,
// used when validation finds a malformed encoding that must be repaired.
func (r *StagedDocRepository) UpdateContent(ctx context.Context, id, encoded, hash string, length int64) error {
	return r.db.WithContext(ctx).Model(&domain.StagedDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_encoded": encoded,
			"content_hash":    hash,
			"content_length":  length,
		}).Error
}

// ListByBatch returns all staged documents for a batch.
func (r *StagedDocRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.StagedDocument, error) {
	var docs []domain.StagedDocument
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("filename").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByBatch returns the number of staged documents for a batch.
func (r *StagedDocRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.StagedDocument{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return count, err
}
