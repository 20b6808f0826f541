package service

import (
	"context"
	"errors"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles orders after checkout.
type OrderService interface {
	UpdateOrderStatus(ctx context.Context, identity domain.Identity, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	ListMyOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error)
	ListSellerOrders(ctx context.Context, identity domain.Identity) ([]*domain.SaleLine, error)
	GetOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error)
	ListProductSales(ctx context.Context, identity domain.Identity, productID uuid.UUID) ([]*domain.SaleLine, error)
}

type orderService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewOrderService(store repository.Store, logger *zap.Logger) OrderService {
	return &orderService{store: store, logger: logger}
}

func (s *orderService) findOrder(ctx context.Context, store repository.Store, orderID uuid.UUID) (*domain.Order, error) {
	order, err := store.Orders().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domain.NotFound("order not found")
		}
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus applies a status change on behalf of the buyer, a seller of one of
// the items, or an admin. A seller's change applies to the whole order.
func (s *orderService) UpdateOrderStatus(ctx context.Context, identity domain.Identity, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Invalid("invalid order status %q", status)
	}

	var (
		updated  *domain.Order
		previous domain.OrderStatus
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		order, err := s.findOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		isBuyer := order.BuyerID == identity.UserID
		isSeller := identity.IsSeller() && order.HasSeller(identity.SellerID.UUID)

		// The order's buyer is held to buyer rules even when they also sell an item in it.
		switch {
		case isBuyer:
			if status != domain.OrderStatusCancelled {
				return domain.Forbidden("buyers can only cancel orders")
			}
			if order.Status == domain.OrderStatusShipped || order.Status == domain.OrderStatusDelivered {
				return domain.BadRequest("cannot cancel an order that has been shipped or delivered")
			}
		case identity.IsAdmin, isSeller:
		default:
			return domain.Forbidden("you are not allowed to update this order")
		}

		// Cancelling restocked the items; reopening would sell them twice.
		if order.Status == domain.OrderStatusCancelled && status != domain.OrderStatusCancelled {
			return domain.BadRequest("cancelled orders cannot be reopened")
		}

		if err := tx.Orders().UpdateStatus(ctx, order.ID, order.Status, status); err != nil {
			if errors.Is(err, repository.ErrOrderStatusChanged) {
				return domain.Conflict("order status changed, reload and try again")
			}
			return err
		}

		if status == domain.OrderStatusCancelled && order.Status != domain.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := tx.Products().RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		previous = order.Status
		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", updated.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("by", identity.UserID.String()),
	)

	return updated, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error) {
	return s.store.Orders().ListByBuyer(ctx, identity.UserID)
}

func (s *orderService) ListSellerOrders(ctx context.Context, identity domain.Identity) ([]*domain.SaleLine, error) {
	if !identity.IsSeller() {
		return nil, domain.Forbidden("seller profile not found")
	}
	return s.store.Orders().ListSalesBySeller(ctx, identity.SellerID.UUID)
}

// GetOrder is visible to the buyer and to admins.
func (s *orderService) GetOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.findOrder(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != identity.UserID && !identity.IsAdmin {
		return nil, domain.Forbidden("you are not allowed to view this order")
	}
	return order, nil
}

func (s *orderService) ListProductSales(ctx context.Context, identity domain.Identity, productID uuid.UUID) ([]*domain.SaleLine, error) {
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}
	if !identity.IsSeller() || product.SellerID != identity.SellerID.UUID {
		return nil, domain.Forbidden("you can only view sales of your own listings")
	}
	return s.store.Orders().ListSalesByProduct(ctx, productID)
}
