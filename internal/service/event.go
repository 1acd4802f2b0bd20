package service

import (
	"context"
	"time"

	"github.com/atmoslabs/weatherhub/internal/models"
	"github.com/atmoslabs/weatherhub/internal/repository"
	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/google/uuid"
)

type EventService struct {
	repo      *repository.EventRepository
	locations *LocationService
}

func NewEventService(repo *repository.EventRepository, locations *LocationService) *EventService {
	return &EventService{
		repo:      repo,
		locations: locations,
	}
}

type CreateEventInput struct {
	LocationID  uuid.UUID
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	Outdoor     bool
}

func (s *EventService) Create(ctx context.Context, userID uuid.UUID, input CreateEventInput) (*models.Event, error) {
	if input.Title == "" || input.StartsAt.IsZero() {
		return nil, ErrInvalidInput
	}
	if !input.EndsAt.IsZero() && input.EndsAt.Before(input.StartsAt) {
		return nil, ErrInvalidInput
	}

	// The location must exist and belong to the same user.
	if _, err := s.locations.Get(ctx, userID, input.LocationID); err != nil {
		return nil, err
	}

	event := &models.Event{
		UserID:      userID,
		LocationID:  input.LocationID,
		Title:       input.Title,
		Description: input.Description,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Outdoor:     input.Outdoor,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *EventService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}
	if event.UserID != userID {
		return nil, ErrNotOwner
	}

	return event, nil
}

func (s *EventService) List(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *EventService) Upcoming(ctx context.Context, userID uuid.UUID, horizon time.Duration) ([]models.Event, error) {
	if horizon <= 0 {
		horizon = 7 * 24 * time.Hour
	}

	return s.repo.FindUpcoming(ctx, userID, time.Now().Add(horizon))
}

// Search runs a title search with the query sanitized first; user-supplied
// text never reaches the store raw.
func (s *EventService) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Event, error) {
	query = security.SanitizeForSecurity(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	return s.repo.SearchByTitle(ctx, userID, query, limit)
}

func (s *EventService) Update(ctx context.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	return s.repo.Update(ctx, id, updates)
}

func (s *EventService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
