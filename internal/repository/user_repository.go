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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists for this user")
)

// UserRepository defines the interface for user and role profile data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error
	CreateMechanicProfile(ctx context.Context, profile *domain.MechanicProfile) error
	FindSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error)
	FindMechanicProfile(ctx context.Context, userID uuid.UUID) (*domain.MechanicProfile, error)
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error)
}

type userRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, name, phone, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := sqlx.GetContext(ctx, r.db, user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := &domain.User{}
	err := sqlx.GetContext(ctx, r.db, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

func (r *userRepository) CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error {
	query := `
		INSERT INTO seller_profiles (id, user_id, business_name, gst_number, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.BusinessName, profile.GSTNumber, profile.IsVerified, profile.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create seller profile: %w", err)
	}

	return nil
}

func (r *userRepository) CreateMechanicProfile(ctx context.Context, profile *domain.MechanicProfile) error {
	query := `
		INSERT INTO mechanic_profiles (id, user_id, experience_years, shop_address, hourly_rate, is_mobile_service, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.ExperienceYears, profile.ShopAddress,
		profile.HourlyRate, profile.IsMobileService, profile.IsVerified, profile.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create mechanic profile: %w", err)
	}

	return nil
}

func (r *userRepository) FindSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error) {
	profile := &domain.SellerProfile{}
	err := sqlx.GetContext(ctx, r.db, profile, `
		SELECT id, user_id, business_name, gst_number, is_verified, created_at
		FROM seller_profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find seller profile: %w", err)
	}

	return profile, nil
}

func (r *userRepository) FindMechanicProfile(ctx context.Context, userID uuid.UUID) (*domain.MechanicProfile, error) {
	profile := &domain.MechanicProfile{}
	err := sqlx.GetContext(ctx, r.db, profile, `
		SELECT id, user_id, experience_years, shop_address, hourly_rate, is_mobile_service, is_verified, created_at
		FROM mechanic_profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find mechanic profile: %w", err)
	}

	return profile, nil
}

// ResolveIdentity loads the user and every role profile they hold in one round trip.
func (r *userRepository) ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error) {
	query := `
		SELECT u.id AS user_id, u.email, u.name,
		       sp.id AS seller_id,
		       mp.id AS mechanic_id,
		       (ap.user_id IS NOT NULL) AS is_admin
		FROM users u
		LEFT JOIN seller_profiles sp ON sp.user_id = u.id
		LEFT JOIN mechanic_profiles mp ON mp.user_id = u.id
		LEFT JOIN admin_profiles ap ON ap.user_id = u.id
		WHERE u.id = $1
	`

	identity := &domain.Identity{}
	if err := sqlx.GetContext(ctx, r.db, identity, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	return identity, nil
}
