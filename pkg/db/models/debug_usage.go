package models

import (
	"time"

	"github.com/google/uuid"
)

// DebugUsage tracks consumed debug calls per user. DebugCount only moves up
// within a reset window; the quota service zeroes it when the calendar day
// (free) or calendar month (pro) rolls over.
type DebugUsage struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	DebugCount     int       `gorm:"column:debug_count;not null;default:0"`
	LastResetDate  time.Time `gorm:"column:last_reset_date;type:date;not null"`
	MonthStartDate time.Time `gorm:"column:month_start_date;type:date;not null"`
}

// TableName maps the model onto the legacy table.
func (DebugUsage) TableName() string {
	return "debug_usage"
}
