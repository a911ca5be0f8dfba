package history

import (
	"context"
	"errors"
	"strings"

	"github.com/debugly/debugly-backend/pkg/db/models"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTitle is used when the caller does not name the session.
const DefaultTitle = "Untitled Debug Session"

type historyRepository interface {
	Insert(ctx context.Context, item *models.DebugHistoryItem) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.DebugHistoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DebugHistoryItem, error)
}

// ServiceParams groups dependencies for the history service.
type ServiceParams struct {
	Repo historyRepository
}

// Service exposes the append-only debug session log.
type Service interface {
	Append(ctx context.Context, userID uuid.UUID, code, result, title string) (*models.DebugHistoryItem, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.DebugHistoryItem, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*models.DebugHistoryItem, error)
}

type service struct {
	repo historyRepository
}

// NewService builds a history service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "history repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Append records a completed debug session.
func (s *service) Append(ctx context.Context, userID uuid.UUID, code, result, title string) (*models.DebugHistoryItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if strings.TrimSpace(result) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "result is required")
	}

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		trimmedTitle = DefaultTitle
	}

	item := &models.DebugHistoryItem{
		UserID: userID,
		Code:   code,
		Result: result,
		Title:  trimmedTitle,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append debug history")
	}
	return item, nil
}

// List returns the user's sessions, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.DebugHistoryItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	items, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list debug history")
	}
	return items, nil
}

// Get loads a single session. Sessions belonging to other users read as
// not found rather than forbidden.
func (s *service) Get(ctx context.Context, userID, itemID uuid.UUID) (*models.DebugHistoryItem, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "debug session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load debug session")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "debug session not found")
	}
	return item, nil
}
