package transport

import (
	"errors"
	"net/http"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BikeRequest is a bike for the user's garage
type BikeRequest struct {
	Brand        string `json:"brand" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Year         int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Registration string `json:"registration"`
}

func (b *BikeRequest) input() service.BikeInput {
	return service.BikeInput{Brand: b.Brand, Model: b.Model, Year: b.Year, Registration: b.Registration}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" validate:"omitempty,oneof=user seller mechanic"`

	BusinessName string `json:"business_name"`
	GSTNumber    string `json:"gst_number"`

	ExperienceYears *int             `json:"experience_years" validate:"omitempty,gte=0"`
	ShopAddress     string           `json:"shop_address"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate" validate:"omitempty,gte=0"`
	IsMobileService bool             `json:"is_mobile_service"`

	Bike *BikeRequest `json:"bike"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
	Roles        domain.Roles `json:"roles"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserHandler handles accounts, authentication and the user's garage
type UserHandler struct {
	userService   service.UserService
	garageService service.GarageService
	logger        *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, garageService service.GarageService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		garageService: garageService,
		logger:        logger,
	}
}

// RegisterRoutes registers the auth and user routes. protected authenticates the caller and resolves their identity.
func (h *UserHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)
		r.Post("/logout", h.Logout)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(protected)
		r.Get("/profile", h.GetProfile)
		r.Get("/garage", h.ListGarage)
		r.Post("/garage", h.AddBike)
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	input := service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		Phone:           req.Phone,
		Role:            req.Role,
		BusinessName:    req.BusinessName,
		GSTNumber:       req.GSTNumber,
		ExperienceYears: req.ExperienceYears,
		ShopAddress:     req.ShopAddress,
		HourlyRate:      req.HourlyRate,
		IsMobileService: req.IsMobileService,
	}
	if req.Bike != nil {
		bike := req.Bike.input()
		input.Bike = &bike
	}

	profile, err := h.userService.Register(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "register user", err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", profile.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, profile)
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		respondWithServiceError(w, r, h.logger, "login", err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", result.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
		Roles:        result.Roles,
	})
}

// Logout revokes the given refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, r, h.logger, "logout", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// RefreshToken handles token refresh
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	newAccessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrTokenExpired):
			middleware.RespondWithError(w, http.StatusUnauthorized, "refresh token expired")
		default:
			respondWithServiceError(w, r, h.logger, "refresh token", err)
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{AccessToken: newAccessToken})
}

// GetProfile returns the caller with their role profiles
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "get user profile", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) ListGarage(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	bikes, err := h.garageService.ListBikes(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list garage", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bikes)
}

func (h *UserHandler) AddBike(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req BikeRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	bike, err := h.garageService.AddBike(r.Context(), identity.UserID, req.input())
	if err != nil {
		respondWithServiceError(w, r, h.logger, "add bike", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, bike)
}
