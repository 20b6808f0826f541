package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for password hashing
	BcryptCost = 10

	// Default token lifetimes
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// Account roles accepted at registration.
const (
	RoleUser     = "user"
	RoleSeller   = "seller"
	RoleMechanic = "mechanic"
)

// RegisterInput is everything needed to open an account. Role-specific fields are
// only read for their role.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string

	BusinessName string
	GSTNumber    string

	ExperienceYears *int
	ShopAddress     string
	HourlyRate      *decimal.Decimal
	IsMobileService bool

	Bike *BikeInput
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
	Roles        domain.Roles
}

// UserService defines the interface for accounts, authentication and identity resolution
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error)
}

// Claims represents the JWT claims. Roles are informational for clients; the
// server re-resolves them from profiles on every request.
type Claims struct {
	UserID uuid.UUID    `json:"user_id"`
	Email  string       `json:"email"`
	Roles  domain.Roles `json:"roles"`
	jwt.RegisteredClaims
}

type userService struct {
	store      repository.Store
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewUserService creates a new instance of UserService. Zero lifetimes fall back to the defaults.
func NewUserService(store repository.Store, jwtSecret string, accessTTL, refreshTTL time.Duration) UserService {
	if accessTTL <= 0 {
		accessTTL = AccessTokenExpiration
	}
	if refreshTTL <= 0 {
		refreshTTL = RefreshTokenExpiration
	}
	return &userService{
		store:      store,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates the user and the profile for their role in one transaction.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.Profile, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = RoleUser
	}
	if err := validateRegistration(role, input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.Conflict("user with this email already exists")
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &domain.Profile{User: user}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserAlreadyExists) {
				return domain.Conflict("user with this email already exists")
			}
			return err
		}

		switch role {
		case RoleSeller:
			profile.Seller = &domain.SellerProfile{
				ID:           uuid.New(),
				UserID:       user.ID,
				BusinessName: strings.TrimSpace(input.BusinessName),
				GSTNumber:    strings.TrimSpace(input.GSTNumber),
				IsVerified:   strings.TrimSpace(input.GSTNumber) != "",
				CreatedAt:    now,
			}
			return tx.Users().CreateSellerProfile(ctx, profile.Seller)
		case RoleMechanic:
			profile.Mechanic = &domain.MechanicProfile{
				ID:              uuid.New(),
				UserID:          user.ID,
				ExperienceYears: *input.ExperienceYears,
				ShopAddress:     strings.TrimSpace(input.ShopAddress),
				HourlyRate:      *input.HourlyRate,
				IsMobileService: input.IsMobileService,
				CreatedAt:       now,
			}
			return tx.Users().CreateMechanicProfile(ctx, profile.Mechanic)
		default:
			if input.Bike == nil {
				return nil
			}
			return tx.Garage().Create(ctx, newUserBike(user.ID, *input.Bike, now))
		}
	})
	if err != nil {
		return nil, err
	}

	profile.Roles = domain.Roles{IsSeller: profile.Seller != nil, IsMechanic: profile.Mechanic != nil}
	return profile, nil
}

func validateRegistration(role string, input RegisterInput) error {
	switch role {
	case RoleUser:
		if input.Bike != nil {
			return validateBike(*input.Bike)
		}
	case RoleSeller:
		if strings.TrimSpace(input.BusinessName) == "" {
			return domain.Invalid("business name is required for sellers")
		}
	case RoleMechanic:
		if input.ExperienceYears == nil || strings.TrimSpace(input.ShopAddress) == "" || input.HourlyRate == nil {
			return domain.Invalid("experience years, shop address and hourly rate are required for mechanics")
		}
		if *input.ExperienceYears < 0 || input.HourlyRate.IsNegative() {
			return domain.Invalid("experience years and hourly rate must not be negative")
		}
	default:
		return domain.Invalid("invalid role %q", role)
	}
	return nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.store.Users().ResolveIdentity(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}

	accessToken, err := s.generateAccessToken(user, identity.Roles())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		Roles:        identity.Roles(),
	}, nil
}

// Logout revokes the refresh token. Unknown tokens count as already logged out.
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.store.RefreshTokens().Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	refreshToken, err := s.store.RefreshTokens().FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return "", ErrTokenExpired
	}

	user, err := s.store.Users().FindByID(ctx, refreshToken.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	identity, err := s.store.Users().ResolveIdentity(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve roles: %w", err)
	}

	newAccessToken, err := s.generateAccessToken(user, identity.Roles())
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return newAccessToken, nil
}

func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	identity, err := s.store.Users().ResolveIdentity(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}

	profile := &domain.Profile{User: user, Roles: identity.Roles()}

	if identity.IsSeller() {
		if profile.Seller, err = s.store.Users().FindSellerProfile(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to load seller profile: %w", err)
		}
	}
	if identity.IsMechanic() {
		if profile.Mechanic, err = s.store.Users().FindMechanicProfile(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to load mechanic profile: %w", err)
		}
	}

	return profile, nil
}

// ResolveIdentity builds the per-request identity from the profile tables.
func (s *userService) ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error) {
	identity, err := s.store.Users().ResolveIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}
	return identity, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (s *userService) generateAccessToken(user *domain.User, roles domain.Roles) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *userService) generateRefreshToken(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	if err := s.store.RefreshTokens().Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return refreshToken.Token, nil
}
