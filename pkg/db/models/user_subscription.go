package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/debugly/debugly-backend/pkg/enums"
)

// UserSubscription persists the current plan and billing references per user.
// One row per user; the verify step overwrites it on re-upgrade, it is never
// deleted.
type UserSubscription struct {
	ID                     uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                 uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Plan                   enums.SubscriptionPlan `gorm:"column:plan;type:subscription_plan;not null;default:'free'"`
	StartsAt               time.Time              `gorm:"column:starts_at;not null"`
	ExpiresAt              *time.Time             `gorm:"column:expires_at"`
	RazorpayCustomerID     *string                `gorm:"column:razorpay_customer_id"`
	RazorpaySubscriptionID *string                `gorm:"column:razorpay_subscription_id"`
	IsActive               bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model onto the legacy table.
func (UserSubscription) TableName() string {
	return "user_subscriptions"
}
