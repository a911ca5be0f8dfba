package usage

import (
	"context"
	"errors"
	"time"

	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/pkg/db/models"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshot reports the user's counter state after an operation.
type Snapshot struct {
	Plan         plans.Plan
	Used         int
	DailyLimit   int
	MonthlyLimit int
	// Remaining is plans.UnlimitedQuota when the active dimension has no cap.
	Remaining int
}

// Tx is the transaction-scoped persistence surface for a consume cycle.
type Tx interface {
	EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error
	FindForUpdate(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error)
	Save(ctx context.Context, row *models.DebugUsage) error
}

type usageStore interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
	EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error)
}

// ServiceParams groups dependencies for the usage service.
type ServiceParams struct {
	Store  usageStore
	Logger *logger.Logger
}

// Service enforces per-plan debug quotas.
type Service interface {
	// Consume atomically checks the quota and burns one unit. The unit is
	// spent as soon as Consume returns nil, regardless of what the caller
	// does with it afterwards.
	Consume(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (Snapshot, error)
	// Peek reports the counter state without consuming, applying any due
	// calendar reset in memory only.
	Peek(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (Snapshot, error)
	// Usage returns the raw stored counter row, creating it if absent.
	Usage(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DebugUsage, error)
}

type service struct {
	store usageStore
	logg  *logger.Logger
}

// NewService builds a usage service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		store: params.Store,
		logg:  params.Logger,
	}, nil
}

func (s *service) Consume(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (Snapshot, error) {
	if userID == uuid.Nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	// Unlimited tiers bypass the counter entirely. Leaving the row untouched
	// keeps its reset markers stale, so a later downgrade starts from a clean
	// window instead of inheriting counts accrued while unmetered.
	if plan.IsUnlimited() {
		return buildSnapshot(0, plan), nil
	}

	snapshot, err := s.consumeOnce(ctx, userID, plan, now)
	if err == nil {
		return snapshot, nil
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeQuota) {
		return Snapshot{}, err
	}

	// Transient persistence failures get one retry before the request fails.
	s.logg.Warn(ctx, "usage consume failed, retrying once: "+err.Error())
	snapshot, retryErr := s.consumeOnce(ctx, userID, plan, now)
	if retryErr != nil {
		if pkgerrors.HasCode(retryErr, pkgerrors.CodeQuota) {
			return Snapshot{}, retryErr
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, retryErr, "record debug usage")
	}
	return snapshot, nil
}

func (s *service) consumeOnce(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (Snapshot, error) {
	var snapshot Snapshot
	err := s.store.Transact(ctx, func(tx Tx) error {
		if err := tx.EnsureRow(ctx, userID, now); err != nil {
			return err
		}
		row, err := tx.FindForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		applyResets(row, plan, now)

		if exceeded(row.DebugCount, plan) {
			snapshot = buildSnapshot(row.DebugCount, plan)
			return pkgerrors.New(pkgerrors.CodeQuota, quotaMessage(plan))
		}

		row.DebugCount++
		if err := tx.Save(ctx, row); err != nil {
			return err
		}

		snapshot = buildSnapshot(row.DebugCount, plan)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (s *service) Peek(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (Snapshot, error) {
	row, err := s.Usage(ctx, userID, now)
	if err != nil {
		return Snapshot{}, err
	}
	applyResets(row, plan, now)
	return buildSnapshot(row.DebugCount, plan), nil
}

func (s *service) Usage(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DebugUsage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	row, err := s.store.FindByUserID(ctx, userID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load debug usage")
	}
	if err := s.store.EnsureRow(ctx, userID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize debug usage")
	}
	row, err = s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load debug usage")
	}
	return row, nil
}

// applyResets zeroes the counter when the plan's active window has rolled
// over. The reset markers always advance so a plan switch starts clean.
func applyResets(row *models.DebugUsage, plan plans.Plan, now time.Time) {
	day := DayStart(now)
	month := MonthStart(now)

	if plan.DailyLimit != plans.UnlimitedQuota && day.After(DayStart(row.LastResetDate)) {
		row.DebugCount = 0
	}
	if plan.MonthlyLimit != plans.UnlimitedQuota && month.After(MonthStart(row.MonthStartDate)) {
		row.DebugCount = 0
	}

	row.LastResetDate = day
	row.MonthStartDate = month
}

func exceeded(count int, plan plans.Plan) bool {
	if plan.DailyLimit != plans.UnlimitedQuota && count >= plan.DailyLimit {
		return true
	}
	if plan.MonthlyLimit != plans.UnlimitedQuota && count >= plan.MonthlyLimit {
		return true
	}
	return false
}

func buildSnapshot(count int, plan plans.Plan) Snapshot {
	snapshot := Snapshot{
		Plan:         plan,
		Used:         count,
		DailyLimit:   plan.DailyLimit,
		MonthlyLimit: plan.MonthlyLimit,
		Remaining:    plans.UnlimitedQuota,
	}
	if plan.DailyLimit != plans.UnlimitedQuota {
		snapshot.Remaining = max(plan.DailyLimit-count, 0)
	} else if plan.MonthlyLimit != plans.UnlimitedQuota {
		snapshot.Remaining = max(plan.MonthlyLimit-count, 0)
	}
	return snapshot
}

func quotaMessage(plan plans.Plan) string {
	if plan.DailyLimit != plans.UnlimitedQuota {
		return "daily debug limit reached"
	}
	return "monthly debug limit reached"
}
