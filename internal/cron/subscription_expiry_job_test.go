package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/debugly/debugly-backend/pkg/logger"
)

func TestSubscriptionExpiryJobDeactivatesLapsedRows(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeSubscriptionExpiryRepo{deactivated: 7}
	job := newSubscriptionExpiryJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !repo.lastNow.Equal(now) {
		t.Fatalf("expected sweep as of %s, got %s", now, repo.lastNow)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestSubscriptionExpiryJobPropagatesErrors(t *testing.T) {
	repo := &fakeSubscriptionExpiryRepo{err: errors.New("boom")}
	job := newSubscriptionExpiryJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newSubscriptionExpiryJob(t *testing.T, repo *fakeSubscriptionExpiryRepo) *subscriptionExpiryJob {
	t.Helper()
	jobIface, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionExpiryJob: %v", err)
	}
	job, ok := jobIface.(*subscriptionExpiryJob)
	if !ok {
		t.Fatalf("expected subscriptionExpiryJob, got %T", jobIface)
	}
	return job
}

type fakeSubscriptionExpiryRepo struct {
	lastNow     time.Time
	deactivated int64
	err         error
	called      int
}

func (f *fakeSubscriptionExpiryRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	f.called++
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	return f.deactivated, nil
}
