package repository

import (
	"context"
	"strings"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *storage.Postgres
}

func NewEventRepository(db *storage.Postgres) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.DB.WithContext(ctx).Create(event).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &event, err
}

func (r *EventRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("starts_at ASC").
		Find(&events).Error

	return events, err
}

// Retrieves events starting within the given horizon
func (r *EventRepository) FindUpcoming(ctx context.Context, userID uuid.UUID, until time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND starts_at BETWEEN ? AND ?", userID, time.Now(), until).
		Order("starts_at ASC").
		Find(&events).Error

	return events, err
}

// likeEscaper neutralizes LIKE metacharacters so user text matches
// literally inside the pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Case-insensitive title search scoped to the owner
func (r *EventRepository) SearchByTitle(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND title ILIKE ?", userID, "%"+likeEscaper.Replace(query)+"%").
		Order("starts_at ASC").
		Limit(limit).
		Find(&events).Error

	return events, err
}

func (r *EventRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Event{}).Error
}
