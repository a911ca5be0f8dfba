package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the public-facing user metadata. Its primary key doubles as
// the owning user id.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  *string   `gorm:"column:username"`
	AvatarURL *string   `gorm:"column:avatar_url"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
