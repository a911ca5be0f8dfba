package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/debugly/debugly-backend/pkg/db/models"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxUsernameLen = 64

type profileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, username, avatarURL *string) error
}

// ProfileDTO is the transport shape for the public profile fields.
type ProfileDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  *string   `json:"username,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileDTO carries the mutable fields. Nil means leave unchanged.
type UpdateProfileDTO struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ServiceParams groups dependencies for the profile service.
type ServiceParams struct {
	Repo profileRepository
}

// Service reads and mutates the per-user profile row.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, update UpdateProfileDTO) (*ProfileDTO, error)
}

type service struct {
	repo profileRepository
}

// NewService builds a profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return fromModel(profile), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, update UpdateProfileDTO) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	username := update.Username
	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username cannot be blank")
		}
		if len(trimmed) > maxUsernameLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is too long")
		}
		username = &trimmed
	}

	if username == nil && update.AvatarURL == nil {
		return s.Get(ctx, userID)
	}

	if err := s.repo.Update(ctx, userID, username, update.AvatarURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Get(ctx, userID)
}

func fromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:        p.ID,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
}
