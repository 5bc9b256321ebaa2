package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository handles document metadata operations in the primary store.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Upsert creates a document keyed by (filename, filepath), keeping the
// existing row untouched on conflict since documents are immutable.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filename"}, {Name: "filepath"}},
		DoNothing: true,
	}).Create(doc).Error
}

// GetByID retrieves a document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// GetByPath retrieves a document by its filesystem path.
func (r *DocumentRepository) GetByPath(ctx context.Context, filepath string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "filepath = ?", filepath).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListByFolders returns all documents belonging to the given folders,
// ordered by path so staging work is deterministic across retries.
func (r *DocumentRepository) ListByFolders(ctx context.Context, folderIDs []string) ([]domain.Document, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var docs []domain.Document
	if err := r.db.WithContext(ctx).
		Where("folder_id IN ?", folderIDs).
		Order("filepath").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// List returns documents with pagination.
func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]domain.Document, int64, error) {
	var docs []domain.Document
	var total int64

	if err := r.db.WithContext(ctx).Model(&domain.Document{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("filepath").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// CountByFolders returns the number of documents under the given folders.
func (r *DocumentRepository) CountByFolders(ctx context.Context, folderIDs []string) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("folder_id IN ?", folderIDs).
		Count(&count).Error
	return count, err
}
