package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/debugly/debugly-backend/pkg/razorpay"
)

// PlanDTO is the wire shape a purchasable plan is advertised with.
type PlanDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Description    string `json:"description"`
	RazorpayPlanID string `json:"razorpay_plan_id"`
}

// PlanToDTO maps a catalog plan to its wire shape. Amount is in paise.
func PlanToDTO(plan plans.Plan) PlanDTO {
	return PlanDTO{
		ID:             plan.ID.String(),
		Name:           plan.Name,
		Amount:         plan.AmountPaise,
		Currency:       plan.Currency,
		Description:    plan.Description,
		RazorpayPlanID: plan.RazorpayPlanID,
	}
}

// CheckoutDTO carries everything the client needs to open the gateway UI.
type CheckoutDTO struct {
	Key          string                 `json:"key"`
	Subscription *razorpay.Subscription `json:"subscription"`
}

// SubscriptionDTO mirrors the stored subscription row.
type SubscriptionDTO struct {
	ID                     uuid.UUID  `json:"id"`
	UserID                 uuid.UUID  `json:"user_id"`
	Plan                   string     `json:"plan"`
	StartsAt               time.Time  `json:"starts_at"`
	ExpiresAt              *time.Time `json:"expires_at"`
	RazorpayCustomerID     *string    `json:"razorpay_customer_id"`
	RazorpaySubscriptionID *string    `json:"razorpay_subscription_id"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// UsageDTO mirrors the stored usage counter row.
type UsageDTO struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	DebugCount     int       `json:"debug_count"`
	LastResetDate  string    `json:"last_reset_date"`
	MonthStartDate string    `json:"month_start_date"`
}

// PlanLimitsDTO advertises the quota dimensions of one tier. Nil means
// the dimension has no cap.
type PlanLimitsDTO struct {
	Daily   *int `json:"daily"`
	Monthly *int `json:"monthly"`
}

// StatusDTO is the get_user_subscription wire shape.
type StatusDTO struct {
	Subscription SubscriptionDTO          `json:"subscription"`
	Usage        UsageDTO                 `json:"usage"`
	Limits       map[string]PlanLimitsDTO `json:"limits"`
}

// VerifyDTO is the verify_subscription wire shape.
type VerifyDTO struct {
	Success bool   `json:"success"`
	Plan    string `json:"plan"`
}

func subscriptionToDTO(row *models.UserSubscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:                     row.ID,
		UserID:                 row.UserID,
		Plan:                   row.Plan.String(),
		StartsAt:               row.StartsAt,
		ExpiresAt:              row.ExpiresAt,
		RazorpayCustomerID:     row.RazorpayCustomerID,
		RazorpaySubscriptionID: row.RazorpaySubscriptionID,
		IsActive:               row.IsActive,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func usageToDTO(row *models.DebugUsage) UsageDTO {
	const dateLayout = "2006-01-02"
	return UsageDTO{
		ID:             row.ID,
		UserID:         row.UserID,
		DebugCount:     row.DebugCount,
		LastResetDate:  row.LastResetDate.UTC().Format(dateLayout),
		MonthStartDate: row.MonthStartDate.UTC().Format(dateLayout),
	}
}

func limitsDTO(catalog *plans.Catalog) map[string]PlanLimitsDTO {
	out := make(map[string]PlanLimitsDTO, len(catalog.All()))
	for _, plan := range catalog.All() {
		entry := PlanLimitsDTO{}
		if plan.DailyLimit != plans.UnlimitedQuota {
			limit := plan.DailyLimit
			entry.Daily = &limit
		}
		if plan.MonthlyLimit != plans.UnlimitedQuota {
			limit := plan.MonthlyLimit
			entry.Monthly = &limit
		}
		out[plan.ID.String()] = entry
	}
	return out
}
