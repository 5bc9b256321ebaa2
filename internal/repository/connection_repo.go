package repository

import (
	"context"
	"errors"

	"github.com/jfries/batchlens/internal/domain"
	"gorm.io/gorm"
)

// ConnectionRepository handles provider connection operations in the primary store.
type ConnectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Create inserts a new connection record.
func (r *ConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

// Update saves an edited connection record.
func (r *ConnectionRepository) Update(ctx context.Context, conn *domain.Connection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

// Delete removes a connection record.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Connection{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a connection by its ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	var conn domain.Connection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// ListActive returns active connections ordered by name for deterministic
// matrix computation.
func (r *ConnectionRepository) ListActive(ctx context.Context) ([]domain.Connection, error) {
	var conns []domain.Connection
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// ListByIDs returns the connections matching the given IDs, ordered by name.
func (r *ConnectionRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Connection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var conns []domain.Connection
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// List returns all connections.
func (r *ConnectionRepository) List(ctx context.Context) ([]domain.Connection, error) {
	var conns []domain.Connection
	if err := r.db.WithContext(ctx).Order("name").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}
