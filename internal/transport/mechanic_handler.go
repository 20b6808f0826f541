package transport

import (
	"net/http"
	"time"

	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AddServiceRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"gte=0"`
}

type CreateBookingRequest struct {
	MechanicID uuid.UUID  `json:"mechanic_id" validate:"required"`
	ServiceID  *uuid.UUID `json:"service_id"`
	Date       time.Time  `json:"date" validate:"required"`
	Notes      string     `json:"notes" validate:"max=1000"`
}

// MechanicHandler serves the mechanic directory and bookings
type MechanicHandler struct {
	mechanicService service.MechanicService
	logger          *zap.Logger
}

func NewMechanicHandler(mechanicService service.MechanicService, logger *zap.Logger) *MechanicHandler {
	return &MechanicHandler{mechanicService: mechanicService, logger: logger}
}

func (h *MechanicHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Route("/api/mechanics", func(r chi.Router) {
		r.Get("/", h.ListMechanics)
		r.With(protected, middleware.RequireMechanic(h.logger)).Post("/services", h.AddService)
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(protected)
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListMyBookings)
	})
}

func (h *MechanicHandler) ListMechanics(w http.ResponseWriter, r *http.Request) {
	mechanics, err := h.mechanicService.ListMechanics(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list mechanics", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, mechanics)
}

func (h *MechanicHandler) AddService(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req AddServiceRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	offering, err := h.mechanicService.AddService(r.Context(), identity, service.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "add service", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, offering)
}

func (h *MechanicHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	booking, err := h.mechanicService.CreateBooking(r.Context(), identity, service.BookingInput{
		MechanicID: req.MechanicID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Notes:      req.Notes,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "create booking", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, booking)
}

func (h *MechanicHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	bookings, err := h.mechanicService.ListMyBookings(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list bookings", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bookings)
}
