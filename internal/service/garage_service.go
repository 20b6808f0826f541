package service

import (
	"context"
	"strings"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
)

// BikeInput describes a bike a user adds to their garage.
type BikeInput struct {
	Brand        string
	Model        string
	Year         int
	Registration string
}

// GarageService manages the bikes a user owns.
type GarageService interface {
	AddBike(ctx context.Context, userID uuid.UUID, input BikeInput) (*domain.UserBike, error)
	ListBikes(ctx context.Context, userID uuid.UUID) ([]*domain.UserBike, error)
}

type garageService struct {
	store repository.Store
}

func NewGarageService(store repository.Store) GarageService {
	return &garageService{store: store}
}

func (s *garageService) AddBike(ctx context.Context, userID uuid.UUID, input BikeInput) (*domain.UserBike, error) {
	if err := validateBike(input); err != nil {
		return nil, err
	}

	bike := newUserBike(userID, input, time.Now())
	if err := s.store.Garage().Create(ctx, bike); err != nil {
		return nil, err
	}
	return bike, nil
}

func (s *garageService) ListBikes(ctx context.Context, userID uuid.UUID) ([]*domain.UserBike, error) {
	return s.store.Garage().ListByUser(ctx, userID)
}

func validateBike(input BikeInput) error {
	if strings.TrimSpace(input.Brand) == "" || strings.TrimSpace(input.Model) == "" || input.Year <= 0 {
		return domain.Invalid("brand, model and year are required")
	}
	return nil
}

func newUserBike(userID uuid.UUID, input BikeInput, now time.Time) *domain.UserBike {
	return &domain.UserBike{
		ID:           uuid.New(),
		UserID:       userID,
		Brand:        strings.TrimSpace(input.Brand),
		Model:        strings.TrimSpace(input.Model),
		Year:         input.Year,
		Registration: strings.ToUpper(strings.TrimSpace(input.Registration)),
		CreatedAt:    now,
	}
}
