package models

import (
	"time"

	"github.com/google/uuid"
)

// DebugHistoryItem persists one completed debug session. Rows are append-only:
// nothing in the service updates or deletes them.
type DebugHistoryItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Code      string    `gorm:"column:code;type:text;not null"`
	Result    string    `gorm:"column:result;type:text;not null"`
	Title     string    `gorm:"column:title;not null;default:'Untitled Debug Session'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName maps the model onto the legacy table.
func (DebugHistoryItem) TableName() string {
	return "debug_history"
}
