package debugger

import (
	"context"
	"strings"
	"time"

	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/internal/usage"
	"github.com/debugly/debugly-backend/pkg/db/models"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/debugly/debugly-backend/pkg/metrics"
	"github.com/google/uuid"
)

type quotaService interface {
	Consume(ctx context.Context, userID uuid.UUID, plan plans.Plan, now time.Time) (usage.Snapshot, error)
}

type planResolver interface {
	EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (plans.Plan, error)
}

type modelClient interface {
	DebugCode(ctx context.Context, code string) (string, error)
}

type historyAppender interface {
	Append(ctx context.Context, userID uuid.UUID, code, result, title string) (*models.DebugHistoryItem, error)
}

// ServiceParams groups dependencies for the debugger service.
type ServiceParams struct {
	Quota   quotaService
	Plans   planResolver
	Model   modelClient
	History historyAppender
	Metrics *metrics.DebugMetrics
	Logger  *logger.Logger
}

// Service runs the gated debug pipeline.
type Service interface {
	// Debug burns one quota unit, invokes the model, and records the
	// session. The unit stays spent even when the model call fails.
	Debug(ctx context.Context, userID uuid.UUID, code, title string) (string, error)
}

type service struct {
	quota   quotaService
	plans   planResolver
	model   modelClient
	history historyAppender
	metrics *metrics.DebugMetrics
	logg    *logger.Logger
}

// NewService builds a debugger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Quota == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quota service is required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan resolver is required")
	}
	if params.Model == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model client is required")
	}
	if params.History == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "history appender is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		quota:   params.Quota,
		plans:   params.Plans,
		model:   params.Model,
		history: params.History,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) Debug(ctx context.Context, userID uuid.UUID, code, title string) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(code) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid or missing code in request body")
	}

	now := time.Now().UTC()
	plan, err := s.plans.EffectivePlan(ctx, userID, now)
	if err != nil {
		return "", err
	}
	ctx = s.logg.WithPlan(ctx, plan.ID.String())

	if _, err := s.quota.Consume(ctx, userID, plan, now); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeQuota) {
			s.metrics.IncQuotaDenial(plan.ID.String())
		}
		return "", err
	}

	started := time.Now()
	result, err := s.model.DebugCode(ctx, code)
	s.metrics.ObserveModelDuration(time.Since(started))
	if err != nil {
		// The consumed unit is not refunded; a failed upstream call still
		// counts against the quota.
		s.metrics.IncInvocation(plan.ID.String(), "upstream_error")
		return "", err
	}
	s.metrics.IncInvocation(plan.ID.String(), "success")

	// The result is served even when the history write fails.
	if _, histErr := s.history.Append(ctx, userID, code, result, title); histErr != nil {
		s.logg.Error(ctx, "failed to record debug session", histErr)
	}

	return result, nil
}
