package history

import (
	"context"

	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates debug history persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a history repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a session row. History rows are never updated afterwards.
func (r *Repository) Insert(ctx context.Context, item *models.DebugHistoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ListByUser returns the user's sessions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.DebugHistoryItem, error) {
	var items []models.DebugHistoryItem
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID loads a single session row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DebugHistoryItem, error) {
	var item models.DebugHistoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
