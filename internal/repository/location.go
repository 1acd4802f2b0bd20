package repository

import (
	"context"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository struct {
	db *storage.Postgres
}

func NewLocationRepository(db *storage.Postgres) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	return r.db.DB.WithContext(ctx).Create(location).Error
}

func (r *LocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&location).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &location, err
}

// Retrieves all locations owned by a user
func (r *LocationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	var locations []models.Location
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&locations).Error

	return locations, err
}

func (r *LocationRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Location{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *LocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Location{}).Error
}
