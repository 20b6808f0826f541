package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bike-bazaar/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines the interface for product data access.
// It is the only writer of products.stock and products.is_sold.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type productRepository struct {
	db sqlx.ExtContext
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db sqlx.ExtContext) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, seller_id, category_id, type, title, description, price, condition, brand, model,
	year, km_driven, ownership, address, image_url, stock, is_sold, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.SellerID, product.CategoryID, product.Type, product.Title, product.Description,
		product.Price, product.Condition, product.Brand, product.Model, product.Year, product.KmDriven,
		product.Ownership, product.Address, product.ImageURL, product.Stock, product.IsSold,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, title = $3, description = $4, price = $5, condition = $6, brand = $7,
		    model = $8, year = $9, km_driven = $10, ownership = $11, address = $12, image_url = $13,
		    stock = $14, is_sold = $15, updated_at = $16
		WHERE id = $1
	`

	err := execAffecting(ctx, r.db, ErrProductNotFound, query,
		product.ID, product.CategoryID, product.Title, product.Description, product.Price, product.Condition,
		product.Brand, product.Model, product.Year, product.KmDriven, product.Ownership, product.Address,
		product.ImageURL, product.Stock, product.IsSold, product.UpdatedAt,
	)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return err
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := execAffecting(ctx, r.db, ErrProductNotFound, `DELETE FROM products WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return err
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product := &domain.Product{}
	err := sqlx.GetContext(ctx, r.db, product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns one page of unsold products matching filter, newest first, with the total match count.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	conditions := []string{"is_sold = FALSE"}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Brand != "" {
		conditions = append(conditions, "brand ILIKE "+arg("%"+filter.Brand+"%"))
	}
	if filter.Model != "" {
		conditions = append(conditions, "model ILIKE "+arg("%"+filter.Model+"%"))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(filter.Type))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = arg(t)
		}
		conditions = append(conditions, "type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= "+arg(*filter.MaxPrice))
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM products "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page, pageSize := domain.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s
	`, productColumns, whereClause, arg(pageSize), arg((page-1)*pageSize))

	products := []*domain.Product{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	products := []*domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &products, `
		SELECT `+productColumns+`
		FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}

	return products, nil
}

// DecrementStock removes quantity units if that many are available. A bike that
// reaches zero is marked sold. Returns ErrInsufficientStock when the guard fails.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2,
		    is_sold = CASE WHEN type = 'BIKE' THEN TRUE ELSE is_sold END,
		    updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	err := execAffecting(ctx, r.db, ErrInsufficientStock, query, id, quantity)
	if err != nil && !errors.Is(err, ErrInsufficientStock) {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	return err
}

// RestoreStock puts quantity units back and relists bikes.
func (r *productRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2,
		    is_sold = CASE WHEN type = 'BIKE' THEN FALSE ELSE is_sold END,
		    updated_at = NOW()
		WHERE id = $1
	`

	err := execAffecting(ctx, r.db, ErrProductNotFound, query, id, quantity)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return err
}
