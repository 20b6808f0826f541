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
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusChanged = errors.New("order status changed concurrently")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	AddItem(ctx context.Context, item *domain.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListSalesBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.SaleLine, error)
	ListSalesByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.SaleLine, error)
	// UpdateStatus moves the order from one status to another. It returns
	// ErrOrderStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
	CountItemsForProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type orderRepository struct {
	db sqlx.ExtContext
}

func NewOrderRepository(db sqlx.ExtContext) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, total_amount, status, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, order.ID, order.BuyerID, order.TotalAmount, order.Status, order.PaymentID, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) AddItem(ctx context.Context, item *domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	return nil
}

const orderColumns = `id, buyer_id, total_amount, status, payment_id, created_at, updated_at`

const orderItemsQuery = `
	SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase,
	       p.title AS product_title, p.type AS product_type, p.seller_id
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id
`

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	err := sqlx.GetContext(ctx, r.db, order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	order.Items = []*domain.OrderItem{}
	if err := sqlx.SelectContext(ctx, r.db, &order.Items, orderItemsQuery+` WHERE oi.order_id = $1 ORDER BY p.title`, id); err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	return order, nil
}

// ListByBuyer returns the buyer's orders, newest first, with their items.
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	err := sqlx.SelectContext(ctx, r.db, &orders, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	items := []*domain.OrderItem{}
	err = sqlx.SelectContext(ctx, r.db, &items, orderItemsQuery+`
		JOIN orders o ON o.id = oi.order_id
		WHERE o.buyer_id = $1
		ORDER BY p.title
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	byOrder := make(map[uuid.UUID]*domain.Order, len(orders))
	for _, order := range orders {
		order.Items = []*domain.OrderItem{}
		byOrder[order.ID] = order
	}
	for _, item := range items {
		if order, ok := byOrder[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return orders, nil
}

const saleLinesQuery = `
	SELECT o.id AS order_id, oi.id AS order_item_id, oi.product_id, p.title AS product_title,
	       oi.quantity, oi.price_at_purchase, o.status AS order_status,
	       u.name AS buyer_name, u.email AS buyer_email, o.created_at
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN products p ON p.id = oi.product_id
	JOIN users u ON u.id = o.buyer_id
`

func (r *orderRepository) ListSalesBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.SaleLine, error) {
	lines := []*domain.SaleLine{}
	err := sqlx.SelectContext(ctx, r.db, &lines, saleLinesQuery+`
		WHERE p.seller_id = $1
		ORDER BY o.created_at DESC
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller sales: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) ListSalesByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.SaleLine, error) {
	lines := []*domain.SaleLine{}
	err := sqlx.SelectContext(ctx, r.db, &lines, saleLinesQuery+`
		WHERE oi.product_id = $1
		ORDER BY o.created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product sales: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	err := execAffecting(ctx, r.db, ErrOrderStatusChanged, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil && !errors.Is(err, ErrOrderStatusChanged) {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return err
}

func (r *orderRepository) CountItemsForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM order_items WHERE product_id = $1`, productID); err != nil {
		return 0, fmt.Errorf("failed to count order items: %w", err)
	}
	return count, nil
}
