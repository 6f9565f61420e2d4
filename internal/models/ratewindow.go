package models

import "time"

// AIRateWindow is the fixed one-minute counter bucket for AI-assist calls.
// Keyed by (user, minute-aligned window start); past windows are never
// matched again and are purged only for storage hygiene.
type AIRateWindow struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_window" json:"user_id"`
	WindowStart  time.Time `gorm:"not null;uniqueIndex:idx_user_window" json:"window_start"`
	RequestCount int       `gorm:"not null;default:0" json:"request_count"`
}

func (AIRateWindow) TableName() string { return "ai_rate_windows" }
