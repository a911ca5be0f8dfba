package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/debugly/debugly-backend/pkg/logger"
)

// SubscriptionExpiryJobParams configure the expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger     *logger.Logger
	Repository subscriptionExpiryRepo
}

type subscriptionExpiryRepo interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewSubscriptionExpiryJob builds the job that flips lapsed paid
// subscriptions back to inactive. The quota service already treats an expired
// row as free; this sweep keeps the stored state honest for status reads.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	repo subscriptionExpiryRepo
	now  func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	deactivated, err := j.repo.DeactivateExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("subscription expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":            now,
		"rows_deactivated": deactivated,
	})
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return nil
}
