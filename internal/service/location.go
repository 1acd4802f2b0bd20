package service

import (
	"context"
	"errors"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrNotOwner     = errors.New("resource belongs to another user")
	ErrInvalidInput = errors.New("invalid input")
)

type LocationService struct {
	repo *repository.LocationRepository
}

func NewLocationService(repo *repository.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) Create(ctx context.Context, userID uuid.UUID, name string, latitude, longitude float64, timezone string) (*models.Location, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, ErrInvalidInput
	}
	if timezone == "" {
		timezone = "UTC"
	}

	location := &models.Location{
		UserID:    userID,
		Name:      name,
		Latitude:  latitude,
		Longitude: longitude,
		Timezone:  timezone,
	}

	if err := s.repo.Create(ctx, location); err != nil {
		return nil, err
	}

	return location, nil
}

// Retrieves a location, enforcing ownership
func (s *LocationService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrNotFound
	}
	if location.UserID != userID {
		return nil, ErrNotOwner
	}

	return location, nil
}

func (s *LocationService) List(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *LocationService) Update(ctx context.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	return s.repo.Update(ctx, id, updates)
}

func (s *LocationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
