package models

import (
	"time"

	"github.com/google/uuid"
)

// Represents one recorded API interaction, written asynchronously
type AnalyticsEvent struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time  `gorm:"index" json:"timestamp"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ClientID   string     `gorm:"index" json:"client_id"`
	EventType  string     `gorm:"index" json:"event_type"`
	Method     string     `json:"method"`
	Endpoint   string     `gorm:"index" json:"endpoint"`
	StatusCode int        `gorm:"index" json:"status_code"`
	DurationMs int        `json:"duration_ms"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
