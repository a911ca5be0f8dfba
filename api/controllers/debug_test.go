package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/debugly/debugly-backend/api/middleware"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubDebugService struct {
	result   string
	err      error
	lastCode string
	lastUser uuid.UUID
}

func (s *stubDebugService) Debug(ctx context.Context, userID uuid.UUID, code, title string) (string, error) {
	s.lastUser = userID
	s.lastCode = code
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func TestDebugCodeReturnsFlatPayload(t *testing.T) {
	svc := &stubDebugService{result: "fixed code"}
	handler := DebugCode(svc, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/debug-code", bytes.NewReader([]byte(`{"code":"broken code"}`)))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["debuggedCode"] != "fixed code" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if svc.lastUser != userID {
		t.Fatalf("expected user %s passed through, got %s", userID, svc.lastUser)
	}
	if svc.lastCode != "broken code" {
		t.Fatalf("unexpected code %q", svc.lastCode)
	}
}

func TestDebugCodeRequiresAuthenticatedUser(t *testing.T) {
	handler := DebugCode(&stubDebugService{result: "ok"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/debug-code", bytes.NewReader([]byte(`{"code":"x"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] == "" {
		t.Fatalf("expected flat error payload, got %v", payload)
	}
}

func TestDebugCodeQuotaErrorShape(t *testing.T) {
	svc := &stubDebugService{err: pkgerrors.New(pkgerrors.CodeQuota, "daily debug limit reached")}
	handler := DebugCode(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/debug-code", bytes.NewReader([]byte(`{"code":"x"}`)))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "daily debug limit reached" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}
