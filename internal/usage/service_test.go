package usage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/db/models"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.DebugUsage

	failSaves int
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[uuid.UUID]*models.DebugUsage)}
}

func (s *stubStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn((*stubTx)(s))
}

func (s *stubStore) EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*stubTx)(s).EnsureRow(ctx, userID, now)
}

func (s *stubStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

type stubTx stubStore

func (s *stubTx) EnsureRow(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if _, ok := s.rows[userID]; ok {
		return nil
	}
	s.rows[userID] = &models.DebugUsage{
		ID:             uuid.New(),
		UserID:         userID,
		DebugCount:     0,
		LastResetDate:  DayStart(now),
		MonthStartDate: MonthStart(now),
	}
	return nil
}

func (s *stubTx) FindForUpdate(ctx context.Context, userID uuid.UUID) (*models.DebugUsage, error) {
	row, ok := s.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubTx) Save(ctx context.Context, row *models.DebugUsage) error {
	if s.failSaves > 0 {
		s.failSaves--
		return errors.New("connection reset")
	}
	copied := *row
	s.rows[row.UserID] = &copied
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testService(t *testing.T, store *stubStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Store: store, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testPlans() (plans.Plan, plans.Plan, plans.Plan) {
	catalog := plans.NewCatalog(config.RazorpayConfig{ProPlanID: "plan_pro", ProPlusPlanID: "plan_pro_plus"})
	free, _ := catalog.Get("free")
	pro, _ := catalog.Get("pro")
	proPlus, _ := catalog.Get("pro_plus")
	return free, pro, proPlus
}

func TestConsumeEnforcesDailyLimit(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= free.DailyLimit; i++ {
		snapshot, err := svc.Consume(ctx, userID, free, now)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if snapshot.Used != i {
			t.Fatalf("expected used=%d, got %d", i, snapshot.Used)
		}
	}

	_, err := svc.Consume(ctx, userID, free, now)
	if !pkgerrors.HasCode(err, pkgerrors.CodeQuota) {
		t.Fatalf("expected quota error, got %v", err)
	}

	// A denied request must not burn a unit.
	row, err := store.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("find row: %v", err)
	}
	if row.DebugCount != free.DailyLimit {
		t.Fatalf("expected count to stay at %d, got %d", free.DailyLimit, row.DebugCount)
	}
}

func TestConsumeResetsOnNewDay(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	day1 := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)

	for i := 0; i < free.DailyLimit; i++ {
		if _, err := svc.Consume(ctx, userID, free, day1); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}
	if _, err := svc.Consume(ctx, userID, free, day1); !pkgerrors.HasCode(err, pkgerrors.CodeQuota) {
		t.Fatalf("expected quota error, got %v", err)
	}

	day2 := time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)
	snapshot, err := svc.Consume(ctx, userID, free, day2)
	if err != nil {
		t.Fatalf("consume after day rollover: %v", err)
	}
	if snapshot.Used != 1 {
		t.Fatalf("expected used=1 after reset, got %d", snapshot.Used)
	}
}

func TestConsumeResetsOnNewMonth(t *testing.T) {
	_, pro, _ := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	march := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := svc.Consume(ctx, userID, pro, march); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	april := time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC)
	snapshot, err := svc.Consume(ctx, userID, pro, april)
	if err != nil {
		t.Fatalf("consume after month rollover: %v", err)
	}
	if snapshot.Used != 1 {
		t.Fatalf("expected used=1 after monthly reset, got %d", snapshot.Used)
	}
}

func TestConsumeUnlimitedPlanSkipsCounter(t *testing.T) {
	_, _, proPlus := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	for i := 0; i < 50; i++ {
		snapshot, err := svc.Consume(ctx, userID, proPlus, now)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if snapshot.Remaining != plans.UnlimitedQuota {
			t.Fatalf("expected unlimited remaining, got %d", snapshot.Remaining)
		}
	}

	// The counter row must stay untouched, not even created.
	if _, err := store.FindByUserID(ctx, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected no usage row for unlimited plan, got err=%v", err)
	}
}

func TestConsumeAfterDowngradeFromUnlimitedStartsClean(t *testing.T) {
	free, _, proPlus := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		if _, err := svc.Consume(ctx, userID, proPlus, now); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	// Same-day downgrade to free gets the full daily allowance.
	later := now.Add(time.Hour)
	for i := 1; i <= free.DailyLimit; i++ {
		snapshot, err := svc.Consume(ctx, userID, free, later)
		if err != nil {
			t.Fatalf("free consume %d after downgrade: %v", i, err)
		}
		if snapshot.Used != i {
			t.Fatalf("expected used=%d, got %d", i, snapshot.Used)
		}
	}
	if _, err := svc.Consume(ctx, userID, free, later); !pkgerrors.HasCode(err, pkgerrors.CodeQuota) {
		t.Fatalf("expected quota error after allowance, got %v", err)
	}
}

func TestConsumeConcurrentRequestsNeverOverrun(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	attempts := free.DailyLimit + 1
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Consume(ctx, userID, free, now)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted, denied := 0, 0
	for err := range results {
		switch {
		case err == nil:
			granted++
		case pkgerrors.HasCode(err, pkgerrors.CodeQuota):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if granted != free.DailyLimit || denied != 1 {
		t.Fatalf("expected %d granted and 1 denied, got %d/%d", free.DailyLimit, granted, denied)
	}

	row, err := store.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("find row: %v", err)
	}
	if row.DebugCount != free.DailyLimit {
		t.Fatalf("expected stored count %d, got %d", free.DailyLimit, row.DebugCount)
	}
}

func TestConsumeRetriesTransientFailureOnce(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	store.failSaves = 1
	svc := testService(t, store)

	snapshot, err := svc.Consume(context.Background(), uuid.New(), free, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if snapshot.Used != 1 {
		t.Fatalf("expected used=1, got %d", snapshot.Used)
	}
}

func TestConsumeGivesUpAfterSecondFailure(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	store.failSaves = 2
	svc := testService(t, store)

	_, err := svc.Consume(context.Background(), uuid.New(), free, time.Now().UTC())
	if !pkgerrors.HasCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	free, _, _ := testPlans()
	store := newStubStore()
	svc := testService(t, store)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	if _, err := svc.Consume(ctx, userID, free, now); err != nil {
		t.Fatalf("consume: %v", err)
	}

	snapshot, err := svc.Peek(ctx, userID, free, now)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if snapshot.Used != 1 || snapshot.Remaining != free.DailyLimit-1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	row, err := store.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("find row: %v", err)
	}
	if row.DebugCount != 1 {
		t.Fatalf("peek must not change the stored count, got %d", row.DebugCount)
	}
}

func TestUsageCreatesRowWhenMissing(t *testing.T) {
	store := newStubStore()
	svc := testService(t, store)
	userID := uuid.New()

	row, err := svc.Usage(context.Background(), userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if row.UserID != userID || row.DebugCount != 0 {
		t.Fatalf("unexpected row %+v", row)
	}
}
