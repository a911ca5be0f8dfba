package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/debugly/debugly-backend/pkg/enums"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/debugly/debugly-backend/pkg/metrics"
	"github.com/debugly/debugly-backend/pkg/razorpay"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// paidTermYears is how long a verified payment activates a plan for.
const paidTermYears = 1

type subscriptionRepository interface {
	EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error)
	SetCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error
	ActivatePlan(ctx context.Context, userID uuid.UUID, plan enums.SubscriptionPlan, subscriptionID string, startsAt, expiresAt time.Time) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type gateway interface {
	CreateCustomer(ctx context.Context, name, email string) (*razorpay.Customer, error)
	CreateSubscription(ctx context.Context, planID, customerID string) (*razorpay.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*razorpay.Subscription, error)
}

type usageReader interface {
	Usage(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DebugUsage, error)
}

// ServiceParams groups dependencies for the subscriptions service.
type ServiceParams struct {
	Repo        subscriptionRepository
	UserRepo    userRepository
	ProfileRepo profileRepository
	Gateway     gateway
	Usage       usageReader
	Catalog     *plans.Catalog
	Razorpay    config.RazorpayConfig
	Metrics     *metrics.BillingMetrics
	Logger      *logger.Logger
}

// Service drives the billing handshake and subscription state.
type Service interface {
	// GetPlans lists the purchasable tiers.
	GetPlans() []PlanDTO
	// CreateCheckout ensures a gateway customer exists and opens a gateway
	// subscription the client can pay against.
	CreateCheckout(ctx context.Context, userID uuid.UUID, planID string) (*CheckoutDTO, error)
	// Verify re-fetches the subscription from the gateway and activates the
	// mapped plan. Replaying an already-verified reference is a no-op.
	Verify(ctx context.Context, userID uuid.UUID, subscriptionID string) (*VerifyDTO, error)
	// Status reports the stored subscription, the usage counters, and the
	// static limits table.
	Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error)
	// EffectivePlan resolves the plan that currently governs the user's
	// quota, falling back to free on expiry or deactivation.
	EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (plans.Plan, error)
}

type service struct {
	repo        subscriptionRepository
	userRepo    userRepository
	profileRepo profileRepository
	gateway     gateway
	usage       usageReader
	catalog     *plans.Catalog
	razorpayCfg config.RazorpayConfig
	metrics     *metrics.BillingMetrics
	logg        *logger.Logger
}

// NewService builds a subscriptions service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Usage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage reader is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan catalog is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:        params.Repo,
		userRepo:    params.UserRepo,
		profileRepo: params.ProfileRepo,
		gateway:     params.Gateway,
		usage:       params.Usage,
		catalog:     params.Catalog,
		razorpayCfg: params.Razorpay,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

func (s *service) GetPlans() []PlanDTO {
	purchasable := s.catalog.Purchasable()
	out := make([]PlanDTO, 0, len(purchasable))
	for _, plan := range purchasable {
		out = append(out, PlanToDTO(plan))
	}
	return out
}

func (s *service) CreateCheckout(ctx context.Context, userID uuid.UUID, planID string) (*CheckoutDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	tier, err := enums.ParseSubscriptionPlan(planID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid plan")
	}
	plan, ok := s.catalog.Get(tier)
	if !ok || !plan.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid plan")
	}
	if s.gateway == nil || !s.razorpayCfg.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment service not configured")
	}
	if plan.RazorpayPlanID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription plan not configured")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	now := time.Now().UTC()
	if err := s.repo.EnsureRow(ctx, userID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize subscription")
	}
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}

	customerID, err := s.ensureCustomer(ctx, row, user)
	if err != nil {
		return nil, err
	}

	sub, err := s.gateway.CreateSubscription(ctx, plan.RazorpayPlanID, customerID)
	if err != nil {
		return nil, err
	}

	return &CheckoutDTO{
		Key:          s.razorpayCfg.KeyID,
		Subscription: sub,
	}, nil
}

// ensureCustomer reuses the stored gateway customer or registers a new one.
func (s *service) ensureCustomer(ctx context.Context, row *models.UserSubscription, user *models.User) (string, error) {
	if row.RazorpayCustomerID != nil && strings.TrimSpace(*row.RazorpayCustomerID) != "" {
		return *row.RazorpayCustomerID, nil
	}

	name := user.Email
	if s.profileRepo != nil {
		profile, err := s.profileRepo.FindByUserID(ctx, user.ID)
		if err == nil && profile.Username != nil && strings.TrimSpace(*profile.Username) != "" {
			name = *profile.Username
		}
	}

	customer, err := s.gateway.CreateCustomer(ctx, name, user.Email)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store customer reference")
	}
	return customer.ID, nil
}

func (s *service) Verify(ctx context.Context, userID uuid.UUID, subscriptionID string) (*VerifyDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	trimmed := strings.TrimSpace(subscriptionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing subscription ID")
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment service not configured")
	}

	now := time.Now().UTC()
	if err := s.repo.EnsureRow(ctx, userID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize subscription")
	}
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}

	// Replays of an already-verified reference must not extend the expiry.
	if row.IsActive && row.RazorpaySubscriptionID != nil && *row.RazorpaySubscriptionID == trimmed {
		s.metrics.IncVerification("replayed")
		return &VerifyDTO{Success: true, Plan: row.Plan.String()}, nil
	}

	// Never trust the client-reported plan; re-fetch from the gateway.
	sub, err := s.gateway.GetSubscription(ctx, trimmed)
	if err != nil {
		s.metrics.IncVerification("gateway_error")
		return nil, err
	}

	plan, ok := s.catalog.FindByRazorpayPlanID(sub.PlanID)
	if !ok {
		s.metrics.IncVerification("unmapped_plan")
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "gateway plan does not match any configured plan")
	}
	if !sub.IsSettled() {
		s.metrics.IncVerification("unsettled")
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "payment not confirmed by gateway")
	}

	expiresAt := now.AddDate(paidTermYears, 0, 0)
	if err := s.repo.ActivatePlan(ctx, userID, plan.ID, trimmed, now, expiresAt); err != nil {
		s.metrics.IncVerification("persistence_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate plan")
	}

	s.metrics.IncVerification("verified")
	s.logg.Info(s.logg.WithPlan(ctx, plan.ID.String()), "subscription verified and activated")
	return &VerifyDTO{Success: true, Plan: plan.ID.String()}, nil
}

func (s *service) Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	now := time.Now().UTC()
	if err := s.repo.EnsureRow(ctx, userID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize subscription")
	}
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}

	usageRow, err := s.usage.Usage(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &StatusDTO{
		Subscription: subscriptionToDTO(row),
		Usage:        usageToDTO(usageRow),
		Limits:       limitsDTO(s.catalog),
	}, nil
}

func (s *service) EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (plans.Plan, error) {
	if userID == uuid.Nil {
		return plans.Plan{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if err := s.repo.EnsureRow(ctx, userID, now); err != nil {
		return plans.Plan{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize subscription")
	}
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return plans.Plan{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}

	tier := row.Plan
	if !row.IsActive || (row.ExpiresAt != nil && row.ExpiresAt.Before(now)) {
		tier = enums.SubscriptionPlanFree
	}

	plan, ok := s.catalog.Get(tier)
	if !ok {
		plan, _ = s.catalog.Get(enums.SubscriptionPlanFree)
	}
	return plan, nil
}
