package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	LocationID  uuid.UUID `gorm:"type:uuid;index;not null" json:"location_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `gorm:"index;not null" json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Outdoor     bool      `gorm:"default:false" json:"outdoor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	return nil
}

func (Event) TableName() string {
	return "events"
}
