package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
)

// PromptRepository handles prompt operations in the primary store.
type PromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a new PromptRepository.
func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// Create inserts a new prompt record.
func (r *PromptRepository) Create(ctx context.Context, prompt *domain.Prompt) error {
	return r.db.WithContext(ctx).Create(prompt).Error
}

// Update saves an edited prompt record.
func (r *PromptRepository) Update(ctx context.Context, prompt *domain.Prompt) error {
	return r.db.WithContext(ctx).Save(prompt).Error
}

// GetByID retrieves a prompt by its ID.
func (r *PromptRepository) GetByID(ctx context.Context, id string) (*domain.Prompt, error) {
	var prompt domain.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &prompt, nil
}

// ListActive returns active prompts ordered by creation time for
// deterministic matrix computation.
func (r *PromptRepository) ListActive(ctx context.Context) ([]domain.Prompt, error) {
	var prompts []domain.Prompt
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at, id").Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

// ListByIDs returns prompts matching the given IDs in a stable order.
func (r *PromptRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Prompt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var prompts []domain.Prompt
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at, id").Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

// List returns all prompts.
func (r *PromptRepository) List(ctx context.Context) ([]domain.Prompt, error) {
	var prompts []domain.Prompt
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

// SetActive toggles a prompt's active flag.
func (r *PromptRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Prompt{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
