package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceInput struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
}

type BookingInput struct {
	MechanicID uuid.UUID
	ServiceID  *uuid.UUID
	Date       time.Time
	Notes      string
}

// MechanicService covers the mechanic directory and direct bookings.
type MechanicService interface {
	AddService(ctx context.Context, identity domain.Identity, input ServiceInput) (*domain.MechanicService, error)
	ListMechanics(ctx context.Context) ([]*domain.MechanicListing, error)
	CreateBooking(ctx context.Context, identity domain.Identity, input BookingInput) (*domain.Booking, error)
	ListMyBookings(ctx context.Context, identity domain.Identity) ([]*domain.Booking, error)
}

type mechanicService struct {
	store repository.Store
}

func NewMechanicService(store repository.Store) MechanicService {
	return &mechanicService{store: store}
}

func (s *mechanicService) AddService(ctx context.Context, identity domain.Identity, input ServiceInput) (*domain.MechanicService, error) {
	if !identity.IsMechanic() {
		return nil, domain.Forbidden("only mechanics can add services")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.Invalid("service name is required")
	}
	if input.BasePrice.IsNegative() {
		return nil, domain.Invalid("base price must not be negative")
	}

	offering := &domain.MechanicService{
		ID:          uuid.New(),
		MechanicID:  identity.MechanicID.UUID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BasePrice:   input.BasePrice,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Mechanics().AddService(ctx, offering); err != nil {
		return nil, err
	}
	return offering, nil
}

func (s *mechanicService) ListMechanics(ctx context.Context) ([]*domain.MechanicListing, error) {
	return s.store.Mechanics().List(ctx)
}

func (s *mechanicService) CreateBooking(ctx context.Context, identity domain.Identity, input BookingInput) (*domain.Booking, error) {
	if input.Date.IsZero() {
		return nil, domain.Invalid("booking date is required")
	}

	if _, err := s.store.Mechanics().FindByID(ctx, input.MechanicID); err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, domain.NotFound("mechanic not found")
		}
		return nil, err
	}

	booking := &domain.Booking{
		ID:         uuid.New(),
		CustomerID: identity.UserID,
		MechanicID: input.MechanicID,
		Date:       input.Date,
		Notes:      input.Notes,
		Status:     domain.BookingStatusPending,
		CreatedAt:  time.Now(),
	}

	if input.ServiceID != nil {
		offering, err := s.store.Mechanics().FindService(ctx, *input.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrMechanicServiceNotFound) {
				return nil, domain.NotFound("service not found")
			}
			return nil, err
		}
		if offering.MechanicID != input.MechanicID {
			return nil, domain.Invalid("service is not offered by this mechanic")
		}
		booking.ServiceID = uuid.NullUUID{UUID: offering.ID, Valid: true}
	}

	if err := s.store.Mechanics().CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *mechanicService) ListMyBookings(ctx context.Context, identity domain.Identity) ([]*domain.Booking, error) {
	return s.store.Mechanics().ListBookingsByCustomer(ctx, identity.UserID)
}
