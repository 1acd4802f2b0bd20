package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Represents a saved place weather is fetched for
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Timezone  string    `gorm:"default:'UTC'" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	return nil
}

func (Location) TableName() string {
	return "locations"
}
