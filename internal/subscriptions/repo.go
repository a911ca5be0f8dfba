package subscriptions

import (
	"context"
	"time"

	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/debugly/debugly-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates subscription persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscriptions repo bound to the provided GORM DB.
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

// EnsureRow inserts a default free-plan row for the user if none exists yet.
func (r *Repository) EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO user_subscriptions (user_id, plan, starts_at, is_active)
		      VALUES (?, 'free', ?, TRUE)
		      ON CONFLICT (user_id) DO NOTHING`, userID, now).
		Error
}

// FindByUserID loads the user's subscription row.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	var row models.UserSubscription
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SetCustomerID stores the gateway customer reference on the user's row.
func (r *Repository) SetCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("user_id = ?", userID).
		UpdateColumn("razorpay_customer_id", customerID).Error
}

// ActivatePlan overwrites the subscription row after a verified payment.
func (r *Repository) ActivatePlan(ctx context.Context, userID uuid.UUID, plan enums.SubscriptionPlan, subscriptionID string, startsAt, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"plan":                     plan,
			"razorpay_subscription_id": subscriptionID,
			"starts_at":                startsAt,
			"expires_at":               expiresAt,
			"is_active":                true,
			"updated_at":               time.Now().UTC(),
		}).Error
}

// DeactivateExpired flips is_active off for paid rows whose expiry passed.
// Returns the number of rows touched.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("is_active = TRUE AND expires_at IS NOT NULL AND expires_at < ?", now).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
