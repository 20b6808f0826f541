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

var ErrUserBikeNotFound = errors.New("bike not found")

// GarageRepository stores the bikes users own.
type GarageRepository interface {
	Create(ctx context.Context, bike *domain.UserBike) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UserBike, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserBike, error)
}

type garageRepository struct {
	db sqlx.ExtContext
}

func NewGarageRepository(db sqlx.ExtContext) GarageRepository {
	return &garageRepository{db: db}
}

func (r *garageRepository) Create(ctx context.Context, bike *domain.UserBike) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_bikes (id, user_id, brand, model, year, registration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, bike.ID, bike.UserID, bike.Brand, bike.Model, bike.Year, bike.Registration, bike.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add bike: %w", err)
	}

	return nil
}

func (r *garageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserBike, error) {
	bike := &domain.UserBike{}
	err := sqlx.GetContext(ctx, r.db, bike, `
		SELECT id, user_id, brand, model, year, registration, created_at
		FROM user_bikes
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserBikeNotFound
		}
		return nil, fmt.Errorf("failed to find bike: %w", err)
	}

	return bike, nil
}

func (r *garageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserBike, error) {
	bikes := []*domain.UserBike{}
	err := sqlx.SelectContext(ctx, r.db, &bikes, `
		SELECT id, user_id, brand, model, year, registration, created_at
		FROM user_bikes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bikes: %w", err)
	}

	return bikes, nil
}
