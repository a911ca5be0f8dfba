package usage

import (
	"context"
	"time"

	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsulates debug usage persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a usage repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Transact runs fn against a transaction-scoped repository. The row lock
// taken by FindForUpdate holds until the transaction commits.
func (r *Repository) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// EnsureRow inserts a zeroed counter row for the user if none exists yet.
func (r *Repository) EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error {
	day := DayStart(now)
	month := MonthStart(now)
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO debug_usage (user_id, debug_count, last_reset_date, month_start_date)
		      VALUES (?, 0, ?, ?)
		      ON CONFLICT (user_id) DO NOTHING`, userID, day, month).
		Error
}

// FindForUpdate loads the user's counter row with a row lock so concurrent
// consumers serialize on the check-and-increment.
func (r *Repository) FindForUpdate(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error) {
	var row models.DebugUsage
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByUserID loads the counter row without locking.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error) {
	var row models.DebugUsage
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Save overwrites the counter columns.
func (r *Repository) Save(ctx context.Context, row *models.DebugUsage) error {
	return r.db.WithContext(ctx).
		Model(&models.DebugUsage{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"debug_count":      row.DebugCount,
			"last_reset_date":  row.LastResetDate,
			"month_start_date": row.MonthStartDate,
		}).Error
}

// DayStart truncates to the UTC calendar day.
func DayStart(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart truncates to the first day of the UTC calendar month.
func MonthStart(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}
