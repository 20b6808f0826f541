package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService manages a buyer's cart and turns it into an order.
type CartService interface {
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)
	UpdateCartItem(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, cartItemID uuid.UUID) error
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
}

type cartService struct {
	store    repository.Store
	payments PaymentGateway
	logger   *zap.Logger
}

func NewCartService(store repository.Store, payments PaymentGateway, logger *zap.Logger) CartService {
	return &cartService{store: store, payments: payments, logger: logger}
}

// AddToCart appends a new line. Lines for a product already in the cart are not merged.
func (s *cartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}

	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}
	if err := checkAvailable(product, quantity); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}
	if err := s.store.Carts().Add(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func checkAvailable(product *domain.Product, quantity int) error {
	if product.IsSold {
		return domain.Conflict("product is already sold")
	}
	if quantity > product.Stock {
		return domain.Conflict("only %d items left in stock", product.Stock)
	}
	return nil
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	return s.store.Carts().ListByUser(ctx, userID)
}

func (s *cartService) ownedItem(ctx context.Context, userID, cartItemID uuid.UUID) (*domain.CartItem, error) {
	item, err := s.store.Carts().FindByID(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, domain.NotFound("cart item not found")
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.Forbidden("cart item belongs to another user")
	}
	return item, nil
}

func (s *cartService) UpdateCartItem(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}

	item, err := s.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.Products().FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}
	if err := checkAvailable(product, quantity); err != nil {
		return nil, err
	}

	if err := s.store.Carts().UpdateQuantity(ctx, item.ID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, domain.NotFound("cart item not found")
		}
		return nil, err
	}

	item.Quantity = quantity
	return item, nil
}

func (s *cartService) RemoveCartItem(ctx context.Context, userID, cartItemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, userID, cartItemID); err != nil {
		return err
	}

	if err := s.store.Carts().Delete(ctx, cartItemID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return domain.NotFound("cart item not found")
		}
		return err
	}
	return nil
}

// Checkout converts the cart into a paid order. The order, its items, the stock
// decrements and the emptied cart are written in one transaction.
func (s *cartService) Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	lines, err := s.store.Carts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.BadRequest("cart is empty")
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	paymentID, err := s.payments.Charge(ctx, userID, total)
	if err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	now := time.Now()
	order := &domain.Order{
		ID:          uuid.New(),
		BuyerID:     userID,
		TotalAmount: total,
		Status:      domain.OrderStatusPaid,
		PaymentID:   paymentID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       make([]*domain.OrderItem, 0, len(lines)),
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, line := range lines {
			item := &domain.OrderItem{
				ID:              uuid.New(),
				OrderID:         order.ID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.Product.Price,
				ProductTitle:    line.Product.Title,
				ProductType:     line.Product.Type,
				SellerID:        line.Product.SellerID,
			}
			if err := tx.Orders().AddItem(ctx, item); err != nil {
				return err
			}

			if err := tx.Products().DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return domain.Conflict("%q is no longer available in the requested quantity", line.Product.Title)
				}
				return err
			}
			order.Items = append(order.Items, item)
		}

		_, err := tx.Carts().DeleteByUser(ctx, userID)
		return err
	})
	if err != nil {
		s.logger.Error("Checkout rolled back",
			zap.String("user_id", userID.String()),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("buyer_id", userID.String()),
		zap.String("total", total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}
