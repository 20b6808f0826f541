package transport

import (
	"context"
	"net/http"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RequestInspectionRequest struct {
	Type          string           `json:"type" validate:"omitempty,oneof=INSPECTION SERVICE inspection service"`
	ProductID     *uuid.UUID       `json:"product_id"`
	UserBikeID    *uuid.UUID       `json:"user_bike_id"`
	ServiceType   string           `json:"service_type"`
	OfferAmount   *decimal.Decimal `json:"offer_amount" validate:"omitempty,gte=0"`
	Message       string           `json:"message" validate:"max=1000"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
}

type UpdateInspectionStatusRequest struct {
	Status          domain.InspectionStatus `json:"status" validate:"required"`
	RejectionReason string                  `json:"rejection_reason"`
}

type SubmitReportRequest struct {
	Scores         map[string]int `json:"scores" validate:"required,dive,gte=0,lte=10"`
	OverallComment string         `json:"overall_comment"`
}

// InspectionHandler serves the inspection and service request workflow
type InspectionHandler struct {
	inspectionService service.InspectionService
	logger            *zap.Logger
}

func NewInspectionHandler(inspectionService service.InspectionService, logger *zap.Logger) *InspectionHandler {
	return &InspectionHandler{inspectionService: inspectionService, logger: logger}
}

func (h *InspectionHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Route("/api/inspections", func(r chi.Router) {
		r.Use(protected)

		r.Post("/request", h.RequestInspection)
		r.Get("/my-inspections", h.ListMine)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMechanic(h.logger))
			r.Get("/available", h.ListAvailable)
			r.Get("/mechanic", h.ListMechanic)
			r.Put("/{id}/status", h.UpdateStatus)
			r.Post("/{id}/report", h.SubmitReport)
		})

		r.With(middleware.RequireSeller(h.logger)).Get("/seller", h.ListSeller)
		r.Get("/{id}", h.GetInspection)
		r.Put("/{id}/cancel", h.Cancel)
	})
}

func (h *InspectionHandler) RequestInspection(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req RequestInspectionRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	inspection, err := h.inspectionService.RequestInspection(r.Context(), identity, service.InspectionRequest{
		Type:          req.Type,
		ProductID:     req.ProductID,
		UserBikeID:    req.UserBikeID,
		ServiceType:   req.ServiceType,
		OfferAmount:   req.OfferAmount,
		Message:       req.Message,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "request inspection", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, inspection)
}

func (h *InspectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateInspectionStatusRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	view, err := h.inspectionService.UpdateInspectionStatus(r.Context(), identity, id, req.Status, req.RejectionReason)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "update inspection status", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *InspectionHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req SubmitReportRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	view, err := h.inspectionService.SubmitInspectionReport(r.Context(), identity, id, domain.InspectionReport{
		Scores:         req.Scores,
		OverallComment: req.OverallComment,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "submit inspection report", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *InspectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	view, err := h.inspectionService.CancelInspection(r.Context(), identity, id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "cancel inspection", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *InspectionHandler) GetInspection(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	view, err := h.inspectionService.GetInspection(r.Context(), identity, id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "get inspection", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *InspectionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list inspections", h.inspectionService.ListMyInspections)
}

func (h *InspectionHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list available inspections", h.inspectionService.ListAvailableInspections)
}

func (h *InspectionHandler) ListMechanic(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list assigned inspections", h.inspectionService.ListMechanicInspections)
}

func (h *InspectionHandler) ListSeller(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list seller inspections", h.inspectionService.ListSellerInspections)
}

type inspectionLister func(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error)

func (h *InspectionHandler) list(w http.ResponseWriter, r *http.Request, action string, fetch inspectionLister) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	views, err := fetch(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, action, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, views)
}
