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

var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository defines the interface for cart line data access
type CartRepository interface {
	Add(ctx context.Context, item *domain.CartItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}

type cartRepository struct {
	db sqlx.ExtContext
}

func NewCartRepository(db sqlx.ExtContext) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.UserID, item.ProductID, item.Quantity, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := sqlx.GetContext(ctx, r.db, item, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

// ListByUser returns the user's lines, oldest first, each with its product's current state.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at,
		       p.id AS "product.id", p.seller_id AS "product.seller_id", p.category_id AS "product.category_id",
		       p.type AS "product.type", p.title AS "product.title", p.description AS "product.description",
		       p.price AS "product.price", p.condition AS "product.condition", p.brand AS "product.brand",
		       p.model AS "product.model", p.year AS "product.year", p.km_driven AS "product.km_driven",
		       p.ownership AS "product.ownership", p.address AS "product.address",
		       p.image_url AS "product.image_url", p.stock AS "product.stock", p.is_sold AS "product.is_sold",
		       p.created_at AS "product.created_at", p.updated_at AS "product.updated_at"
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	lines := []*domain.CartLine{}
	if err := sqlx.SelectContext(ctx, r.db, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	err := execAffecting(ctx, r.db, ErrCartItemNotFound,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil && !errors.Is(err, ErrCartItemNotFound) {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return err
}

func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := execAffecting(ctx, r.db, ErrCartItemNotFound, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrCartItemNotFound) {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return err
}

// DeleteByUser empties the user's cart and reports how many lines were removed.
func (r *cartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	return result.RowsAffected()
}

func (r *cartRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to remove product from carts: %w", err)
	}
	return nil
}
