package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bike-bazaar/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInspectionNotFound = errors.New("inspection not found")
	// ErrInspectionStateChanged means a conditional transition found the row in another state.
	ErrInspectionStateChanged = errors.New("inspection state changed concurrently")
)

// InspectionRepository defines the interface for inspection data access.
// Every state transition is a single conditional UPDATE.
type InspectionRepository interface {
	Create(ctx context.Context, inspection *domain.Inspection) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InspectionView, error)
	Claim(ctx context.Context, id, mechanicID uuid.UUID) error
	Reject(ctx context.Context, id, mechanicID uuid.UUID, reason string) error
	Complete(ctx context.Context, id, mechanicID uuid.UUID, report domain.InspectionReport, completedAt time.Time) error
	Cancel(ctx context.Context, id, buyerID uuid.UUID) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.InspectionView, error)
	ListByMechanic(ctx context.Context, mechanicID uuid.UUID) ([]*domain.InspectionView, error)
	ListOpen(ctx context.Context) ([]*domain.InspectionView, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.InspectionView, error)
	CountForProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type inspectionRepository struct {
	db sqlx.ExtContext
}

func NewInspectionRepository(db sqlx.ExtContext) InspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) Create(ctx context.Context, inspection *domain.Inspection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inspections (id, buyer_id, type, product_id, user_bike_id, service_type, mechanic_id, status,
		                         offer_amount, message, scheduled_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		inspection.ID, inspection.BuyerID, inspection.Type, inspection.ProductID, inspection.UserBikeID,
		inspection.ServiceType, inspection.MechanicID, inspection.Status, inspection.OfferAmount,
		inspection.Message, inspection.ScheduledDate, inspection.CreatedAt, inspection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inspection: %w", err)
	}

	return nil
}

const inspectionViewQuery = `
	SELECT i.id, i.buyer_id, i.type, i.product_id, i.user_bike_id, i.service_type, i.mechanic_id, i.status,
	       i.offer_amount, i.message, i.scheduled_date, i.rejection_reason, i.report_data, i.completed_at,
	       i.created_at, i.updated_at,
	       p.title AS product_title, p.seller_id,
	       ub.model AS bike_model,
	       b.name AS buyer_name, b.phone AS buyer_phone,
	       mu.name AS mechanic_name, mu.phone AS mechanic_phone
	FROM inspections i
	JOIN users b ON b.id = i.buyer_id
	LEFT JOIN products p ON p.id = i.product_id
	LEFT JOIN user_bikes ub ON ub.id = i.user_bike_id
	LEFT JOIN mechanic_profiles mp ON mp.id = i.mechanic_id
	LEFT JOIN users mu ON mu.id = mp.user_id
`

func (r *inspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InspectionView, error) {
	view := &domain.InspectionView{}
	if err := sqlx.GetContext(ctx, r.db, view, inspectionViewQuery+` WHERE i.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInspectionNotFound
		}
		return nil, fmt.Errorf("failed to find inspection: %w", err)
	}

	return view, nil
}

// Claim assigns an open request to mechanicID. Of several concurrent claims exactly one succeeds;
// the others get ErrInspectionStateChanged.
func (r *inspectionRepository) Claim(ctx context.Context, id, mechanicID uuid.UUID) error {
	return r.transition(ctx, "claim inspection", `
		UPDATE inspections
		SET mechanic_id = $2, status = 'ACCEPTED', updated_at = NOW()
		WHERE id = $1 AND mechanic_id IS NULL AND status = 'PENDING'
	`, id, mechanicID)
}

func (r *inspectionRepository) Reject(ctx context.Context, id, mechanicID uuid.UUID, reason string) error {
	return r.transition(ctx, "reject inspection", `
		UPDATE inspections
		SET status = 'REJECTED', rejection_reason = $3, updated_at = NOW()
		WHERE id = $1 AND mechanic_id = $2 AND status = 'ACCEPTED'
	`, id, mechanicID, reason)
}

func (r *inspectionRepository) Complete(ctx context.Context, id, mechanicID uuid.UUID, report domain.InspectionReport, completedAt time.Time) error {
	return r.transition(ctx, "complete inspection", `
		UPDATE inspections
		SET status = 'COMPLETED', report_data = $3, completed_at = $4, updated_at = NOW()
		WHERE id = $1 AND mechanic_id = $2 AND status = 'ACCEPTED'
	`, id, mechanicID, report, completedAt)
}

func (r *inspectionRepository) Cancel(ctx context.Context, id, buyerID uuid.UUID) error {
	return r.transition(ctx, "cancel inspection", `
		UPDATE inspections
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND buyer_id = $2 AND status = 'PENDING'
	`, id, buyerID)
}

func (r *inspectionRepository) transition(ctx context.Context, action, query string, args ...interface{}) error {
	err := execAffecting(ctx, r.db, ErrInspectionStateChanged, query, args...)
	if err != nil && !errors.Is(err, ErrInspectionStateChanged) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return err
}

func (r *inspectionRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(ctx, `WHERE i.buyer_id = $1`, buyerID)
}

func (r *inspectionRepository) ListByMechanic(ctx context.Context, mechanicID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(ctx, `WHERE i.mechanic_id = $1`, mechanicID)
}

func (r *inspectionRepository) ListOpen(ctx context.Context) ([]*domain.InspectionView, error) {
	return r.list(ctx, `WHERE i.mechanic_id IS NULL AND i.status = 'PENDING'`)
}

func (r *inspectionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.InspectionView, error) {
	return r.list(ctx, `WHERE p.seller_id = $1`, sellerID)
}

func (r *inspectionRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.InspectionView, error) {
	views := []*domain.InspectionView{}
	query := inspectionViewQuery + where + ` ORDER BY i.created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &views, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}

	return views, nil
}

func (r *inspectionRepository) CountForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM inspections WHERE product_id = $1`, productID); err != nil {
		return 0, fmt.Errorf("failed to count inspections: %w", err)
	}
	return count, nil
}
