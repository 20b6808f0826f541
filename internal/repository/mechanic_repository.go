package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bike-bazaar/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMechanicNotFound        = errors.New("mechanic not found")
	ErrMechanicServiceNotFound = errors.New("mechanic service not found")
)

// MechanicRepository covers the mechanic directory, service offerings and bookings.
type MechanicRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.MechanicProfile, error)
	List(ctx context.Context) ([]*domain.MechanicListing, error)
	AddService(ctx context.Context, service *domain.MechanicService) error
	FindService(ctx context.Context, id uuid.UUID) (*domain.MechanicService, error)
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error)
}

type mechanicRepository struct {
	db sqlx.ExtContext
}

func NewMechanicRepository(db sqlx.ExtContext) MechanicRepository {
	return &mechanicRepository{db: db}
}

func (r *mechanicRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MechanicProfile, error) {
	profile := &domain.MechanicProfile{}
	err := sqlx.GetContext(ctx, r.db, profile, `
		SELECT id, user_id, experience_years, shop_address, hourly_rate, is_mobile_service, is_verified, created_at
		FROM mechanic_profiles
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("failed to find mechanic: %w", err)
	}

	return profile, nil
}

// List returns every mechanic with the services they offer.
func (r *mechanicRepository) List(ctx context.Context) ([]*domain.MechanicListing, error) {
	mechanics := []*domain.MechanicListing{}
	err := sqlx.SelectContext(ctx, r.db, &mechanics, `
		SELECT mp.id, mp.user_id, mp.experience_years, mp.shop_address, mp.hourly_rate,
		       mp.is_mobile_service, mp.is_verified, mp.created_at, u.name, u.phone
		FROM mechanic_profiles mp
		JOIN users u ON u.id = mp.user_id
		ORDER BY mp.is_verified DESC, mp.experience_years DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mechanics: %w", err)
	}

	services := []*domain.MechanicService{}
	err = sqlx.SelectContext(ctx, r.db, &services, `
		SELECT id, mechanic_id, name, description, base_price, created_at
		FROM mechanic_services
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mechanic services: %w", err)
	}

	byMechanic := make(map[uuid.UUID]*domain.MechanicListing, len(mechanics))
	for _, m := range mechanics {
		m.Services = []*domain.MechanicService{}
		byMechanic[m.ID] = m
	}
	for _, s := range services {
		if m, ok := byMechanic[s.MechanicID]; ok {
			m.Services = append(m.Services, s)
		}
	}

	return mechanics, nil
}

func (r *mechanicRepository) AddService(ctx context.Context, service *domain.MechanicService) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mechanic_services (id, mechanic_id, name, description, base_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, service.ID, service.MechanicID, service.Name, service.Description, service.BasePrice, service.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add mechanic service: %w", err)
	}

	return nil
}

func (r *mechanicRepository) FindService(ctx context.Context, id uuid.UUID) (*domain.MechanicService, error) {
	service := &domain.MechanicService{}
	err := sqlx.GetContext(ctx, r.db, service, `
		SELECT id, mechanic_id, name, description, base_price, created_at
		FROM mechanic_services
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMechanicServiceNotFound
		}
		return nil, fmt.Errorf("failed to find mechanic service: %w", err)
	}

	return service, nil
}

func (r *mechanicRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, customer_id, mechanic_id, service_id, date, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, booking.ID, booking.CustomerID, booking.MechanicID, booking.ServiceID, booking.Date,
		booking.Notes, booking.Status, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *mechanicRepository) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	bookings := []*domain.Booking{}
	err := sqlx.SelectContext(ctx, r.db, &bookings, `
		SELECT id, customer_id, mechanic_id, service_id, date, notes, status, created_at
		FROM bookings
		WHERE customer_id = $1
		ORDER BY date DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}
