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
	"go.uber.org/zap"
)

// InspectionRequest is a buyer's request for a bike inspection or a service of their own bike.
type InspectionRequest struct {
	Type          string
	ProductID     *uuid.UUID
	UserBikeID    *uuid.UUID
	ServiceType   string
	OfferAmount   *decimal.Decimal
	Message       string
	ScheduledDate *time.Time
}

// InspectionService runs the request workflow between buyers and mechanics.
type InspectionService interface {
	RequestInspection(ctx context.Context, identity domain.Identity, req InspectionRequest) (*domain.Inspection, error)
	UpdateInspectionStatus(ctx context.Context, identity domain.Identity, id uuid.UUID, status domain.InspectionStatus, rejectionReason string) (*domain.InspectionView, error)
	SubmitInspectionReport(ctx context.Context, identity domain.Identity, id uuid.UUID, report domain.InspectionReport) (*domain.InspectionView, error)
	CancelInspection(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.InspectionView, error)
	GetInspection(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.InspectionView, error)
	ListMyInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error)
	ListMechanicInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error)
	ListAvailableInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error)
	ListSellerInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error)
}

type inspectionService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewInspectionService(store repository.Store, logger *zap.Logger) InspectionService {
	return &inspectionService{store: store, logger: logger, now: time.Now}
}

func (s *inspectionService) RequestInspection(ctx context.Context, identity domain.Identity, req InspectionRequest) (*domain.Inspection, error) {
	inspectionType := domain.InspectionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if inspectionType == "" {
		inspectionType = domain.InspectionTypeInspection
	}

	if req.OfferAmount != nil && req.OfferAmount.LessThan(domain.MinOfferAmount) {
		return nil, domain.Invalid("minimum offer amount is %s", domain.MinOfferAmount.String())
	}

	now := s.now()
	inspection := &domain.Inspection{
		ID:            uuid.New(),
		BuyerID:       identity.UserID,
		Type:          inspectionType,
		Status:        domain.InspectionStatusPending,
		Message:       req.Message,
		ScheduledDate: req.ScheduledDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.OfferAmount != nil {
		inspection.OfferAmount = decimal.NewNullDecimal(*req.OfferAmount)
	}

	switch inspectionType {
	case domain.InspectionTypeInspection:
		if err := s.targetProduct(ctx, req.ProductID); err != nil {
			return nil, err
		}
		inspection.ProductID = uuid.NullUUID{UUID: *req.ProductID, Valid: true}

	case domain.InspectionTypeService:
		serviceType := strings.TrimSpace(req.ServiceType)
		if req.UserBikeID == nil || serviceType == "" {
			return nil, domain.Invalid("user bike and service type are required for a service request")
		}
		if err := s.targetBike(ctx, identity.UserID, *req.UserBikeID); err != nil {
			return nil, err
		}
		inspection.UserBikeID = uuid.NullUUID{UUID: *req.UserBikeID, Valid: true}
		inspection.ServiceType = serviceType

	default:
		return nil, domain.Invalid("invalid request type %q", req.Type)
	}

	if err := s.store.Inspections().Create(ctx, inspection); err != nil {
		return nil, err
	}

	s.logger.Info("Inspection requested",
		zap.String("inspection_id", inspection.ID.String()),
		zap.String("buyer_id", identity.UserID.String()),
		zap.String("type", string(inspection.Type)),
	)
	return inspection, nil
}

func (s *inspectionService) targetProduct(ctx context.Context, productID *uuid.UUID) error {
	if productID == nil {
		return domain.Invalid("product is required for an inspection request")
	}

	product, err := s.store.Products().FindByID(ctx, *productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.NotFound("product not found")
		}
		return err
	}
	if !product.IsBike() {
		return domain.Invalid("inspections are only available for bikes")
	}
	return nil
}

func (s *inspectionService) targetBike(ctx context.Context, userID, bikeID uuid.UUID) error {
	bike, err := s.store.Garage().FindByID(ctx, bikeID)
	if err != nil {
		if errors.Is(err, repository.ErrUserBikeNotFound) {
			return domain.NotFound("bike not found")
		}
		return err
	}
	if bike.UserID != userID {
		return domain.Forbidden("you can only request service for your own bike")
	}
	return nil
}

func (s *inspectionService) find(ctx context.Context, id uuid.UUID) (*domain.InspectionView, error) {
	view, err := s.store.Inspections().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInspectionNotFound) {
			return nil, domain.NotFound("inspection not found")
		}
		return nil, err
	}
	return view, nil
}

// UpdateInspectionStatus lets a mechanic claim an open request or reject one they hold.
// Claiming is a single conditional write, so of several concurrent accepts exactly one wins.
func (s *inspectionService) UpdateInspectionStatus(ctx context.Context, identity domain.Identity, id uuid.UUID, status domain.InspectionStatus, rejectionReason string) (*domain.InspectionView, error) {
	if status != domain.InspectionStatusAccepted && status != domain.InspectionStatusRejected {
		return nil, domain.Invalid("status must be ACCEPTED or REJECTED")
	}
	if !identity.IsMechanic() {
		return nil, domain.Forbidden("only mechanics can update inspection status")
	}

	view, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	mechanicID := identity.MechanicID.UUID
	reason := strings.TrimSpace(rejectionReason)

	switch {
	case view.MechanicID.Valid && !view.AssignedTo(identity.MechanicID):
		return nil, domain.Forbidden("this request is assigned to another mechanic")

	case !view.MechanicID.Valid:
		if status != domain.InspectionStatusAccepted {
			return nil, domain.Forbidden("must accept to act on an open request")
		}
		if view.Status != domain.InspectionStatusPending {
			return nil, domain.BadRequest("request is no longer open")
		}
		if err := s.store.Inspections().Claim(ctx, id, mechanicID); err != nil {
			if errors.Is(err, repository.ErrInspectionStateChanged) {
				return nil, domain.Conflict("request was already claimed by another mechanic")
			}
			return nil, err
		}
		s.logger.Info("Inspection claimed",
			zap.String("inspection_id", id.String()),
			zap.String("mechanic_id", mechanicID.String()),
		)

	case status == domain.InspectionStatusAccepted:
		if view.Status != domain.InspectionStatusAccepted {
			return nil, domain.BadRequest("cannot accept a request that is %s", view.Status)
		}
		return view, nil

	default:
		if reason == "" {
			return nil, domain.Invalid("rejection reason is required")
		}
		if view.Status != domain.InspectionStatusAccepted {
			return nil, domain.BadRequest("cannot reject a request that is %s", view.Status)
		}
		if err := s.store.Inspections().Reject(ctx, id, mechanicID, reason); err != nil {
			if errors.Is(err, repository.ErrInspectionStateChanged) {
				return nil, domain.Conflict("inspection status changed, reload and try again")
			}
			return nil, err
		}
		s.logger.Info("Inspection rejected",
			zap.String("inspection_id", id.String()),
			zap.String("mechanic_id", mechanicID.String()),
		)
	}

	return s.find(ctx, id)
}

func (s *inspectionService) SubmitInspectionReport(ctx context.Context, identity domain.Identity, id uuid.UUID, report domain.InspectionReport) (*domain.InspectionView, error) {
	view, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.AssignedTo(identity.MechanicID) {
		return nil, domain.Forbidden("only the assigned mechanic can submit a report")
	}
	if view.Status != domain.InspectionStatusAccepted {
		return nil, domain.BadRequest("a report can only be submitted for an accepted request")
	}

	if report.Scores == nil {
		report.Scores = map[string]int{}
	}

	err = s.store.Inspections().Complete(ctx, id, identity.MechanicID.UUID, report, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrInspectionStateChanged) {
			return nil, domain.Conflict("inspection status changed, reload and try again")
		}
		return nil, err
	}

	s.logger.Info("Inspection completed", zap.String("inspection_id", id.String()))
	return s.find(ctx, id)
}

func (s *inspectionService) CancelInspection(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.InspectionView, error) {
	view, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.BuyerID != identity.UserID {
		return nil, domain.Forbidden("only the buyer can cancel this request")
	}
	if view.Status != domain.InspectionStatusPending {
		return nil, domain.BadRequest("only pending requests can be cancelled")
	}

	if err := s.store.Inspections().Cancel(ctx, id, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrInspectionStateChanged) {
			return nil, domain.Conflict("request was picked up before it could be cancelled")
		}
		return nil, err
	}

	return s.find(ctx, id)
}

// GetInspection is visible to the buyer, the assigned mechanic and the seller of the product.
// Any mechanic may look at an open request, without the buyer's phone.
func (s *inspectionService) GetInspection(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.InspectionView, error) {
	view, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case view.BuyerID == identity.UserID:
	case view.AssignedTo(identity.MechanicID):
	case identity.IsSeller() && view.SellerID != nil && *view.SellerID == identity.SellerID.UUID:
	case identity.IsMechanic() && view.IsOpen():
		view.HideBuyerContact()
	default:
		return nil, domain.Forbidden("you are not allowed to view this request")
	}

	return view, nil
}

func (s *inspectionService) ListMyInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error) {
	return s.store.Inspections().ListByBuyer(ctx, identity.UserID)
}

func (s *inspectionService) ListMechanicInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error) {
	if !identity.IsMechanic() {
		return nil, domain.Forbidden("mechanic profile not found")
	}
	return s.store.Inspections().ListByMechanic(ctx, identity.MechanicID.UUID)
}

func (s *inspectionService) ListAvailableInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error) {
	if !identity.IsMechanic() {
		return nil, domain.Forbidden("mechanic profile not found")
	}

	views, err := s.store.Inspections().ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		view.HideBuyerContact()
	}
	return views, nil
}

func (s *inspectionService) ListSellerInspections(ctx context.Context, identity domain.Identity) ([]*domain.InspectionView, error) {
	if !identity.IsSeller() {
		return nil, domain.Forbidden("seller profile not found")
	}
	return s.store.Inspections().ListBySeller(ctx, identity.SellerID.UUID)
}
