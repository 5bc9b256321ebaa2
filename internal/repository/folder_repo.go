package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderRepository handles folder data operations in the primary store.
type FolderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a new FolderRepository.
func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create inserts a new folder record.
func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

// Upsert creates or updates a folder record keyed by its path.
func (r *FolderRepository) Upsert(ctx context.Context, folder *domain.Folder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "is_active", "updated_at"}),
	}).Create(folder).Error
}

// GetByID retrieves a folder by its ID.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*domain.Folder, error) {
	var folder domain.Folder
	if err := r.db.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// GetByPath retrieves a folder by its filesystem path.
func (r *FolderRepository) GetByPath(ctx context.Context, path string) (*domain.Folder, error) {
	var folder domain.Folder
	if err := r.db.WithContext(ctx).First(&folder, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// ListActive returns all folders eligible for scanning.
func (r *FolderRepository) ListActive(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("path").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// List returns all folders.
func (r *FolderRepository) List(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder
	if err := r.db.WithContext(ctx).Order("path").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// SetActive toggles a folder's active flag.
func (r *FolderRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Folder{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
