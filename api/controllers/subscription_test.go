package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/debugly/debugly-backend/api/middleware"
	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/internal/subscriptions"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubSubscriptionService struct {
	plans      []subscriptions.PlanDTO
	checkout   *subscriptions.CheckoutDTO
	verify     *subscriptions.VerifyDTO
	status     *subscriptions.StatusDTO
	err        error
	lastPlan   string
	lastSubID  string
	lastAction string
}

func (s *stubSubscriptionService) GetPlans() []subscriptions.PlanDTO {
	s.lastAction = "get_plans"
	return s.plans
}

func (s *stubSubscriptionService) CreateCheckout(ctx context.Context, userID uuid.UUID, planID string) (*subscriptions.CheckoutDTO, error) {
	s.lastAction = "create_subscription"
	s.lastPlan = planID
	return s.checkout, s.err
}

func (s *stubSubscriptionService) Verify(ctx context.Context, userID uuid.UUID, subscriptionID string) (*subscriptions.VerifyDTO, error) {
	s.lastAction = "verify_subscription"
	s.lastSubID = subscriptionID
	return s.verify, s.err
}

func (s *stubSubscriptionService) Status(ctx context.Context, userID uuid.UUID) (*subscriptions.StatusDTO, error) {
	s.lastAction = "get_user_subscription"
	return s.status, s.err
}

func (s *stubSubscriptionService) EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (plans.Plan, error) {
	return plans.Plan{}, nil
}

func postSubscription(t *testing.T, handler http.HandlerFunc, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/subscription", bytes.NewReader([]byte(body)))
	if authed {
		req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestSubscriptionGetPlans(t *testing.T) {
	svc := &stubSubscriptionService{plans: []subscriptions.PlanDTO{{ID: "pro", Amount: 9900}}}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"get_plans"}`, true)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Plans []subscriptions.PlanDTO `json:"plans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Plans) != 1 || payload.Plans[0].ID != "pro" {
		t.Fatalf("unexpected plans payload %+v", payload.Plans)
	}
}

func TestSubscriptionVerifyPassesSubscriptionID(t *testing.T) {
	svc := &stubSubscriptionService{verify: &subscriptions.VerifyDTO{Success: true, Plan: "pro"}}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"verify_subscription","subscriptionId":"sub_123"}`, true)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSubID != "sub_123" {
		t.Fatalf("expected subscription id passthrough, got %q", svc.lastSubID)
	}
	var payload subscriptions.VerifyDTO
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success || payload.Plan != "pro" {
		t.Fatalf("unexpected verify payload %+v", payload)
	}
}

func TestSubscriptionCreatePassesPlanID(t *testing.T) {
	svc := &stubSubscriptionService{checkout: &subscriptions.CheckoutDTO{Key: "key"}}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"create_subscription","planId":"pro"}`, true)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastPlan != "pro" {
		t.Fatalf("expected plan id passthrough, got %q", svc.lastPlan)
	}
}

func TestSubscriptionCreateRequiresAuth(t *testing.T) {
	svc := &stubSubscriptionService{checkout: &subscriptions.CheckoutDTO{Key: "key"}}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"create_subscription","planId":"pro"}`, false)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSubscriptionInvalidAction(t *testing.T) {
	svc := &stubSubscriptionService{}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"upgrade_me"}`, true)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "Invalid action" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestSubscriptionVerifyErrorShape(t *testing.T) {
	svc := &stubSubscriptionService{err: pkgerrors.New(pkgerrors.CodeVerification, "payment not confirmed by gateway")}
	resp := postSubscription(t, Subscription(svc, nil), `{"action":"verify_subscription","subscriptionId":"sub_123"}`, true)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "payment not confirmed by gateway" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}
