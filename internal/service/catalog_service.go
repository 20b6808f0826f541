package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput is a new listing. The category is looked up by ID, or by name when no ID is given.
type ProductInput struct {
	CategoryID   *uuid.UUID
	CategoryName string
	Type         string
	Title        string
	Description  string
	Price        decimal.Decimal
	Condition    string
	Brand        string
	Model        string
	Year         int
	KmDriven     int
	Ownership    int
	Address      string
	ImageURL     string
	Stock        int
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	CategoryID  *uuid.UUID
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Condition   *string
	Brand       *string
	Model       *string
	Year        *int
	KmDriven    *int
	Ownership   *int
	Address     *string
	ImageURL    *string
	Stock       *int
	IsSold      *bool
}

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

// CatalogService manages listings and categories.
type CatalogService interface {
	CreateCategory(ctx context.Context, identity domain.Identity, name, description string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateProduct(ctx context.Context, identity domain.Identity, input ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error)
	Dashboard(ctx context.Context, bikes, accessories PageRequest) (*domain.Dashboard, error)
	ListMyListings(ctx context.Context, identity domain.Identity) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, identity domain.Identity, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, identity domain.Identity, id uuid.UUID) error
}

type catalogService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewCatalogService(store repository.Store, logger *zap.Logger) CatalogService {
	return &catalogService{store: store, logger: logger}
}

// CreateCategory is open to sellers and admins. Names are unique regardless of case.
func (s *catalogService) CreateCategory(ctx context.Context, identity domain.Identity, name, description string) (*domain.Category, error) {
	if !identity.IsSeller() && !identity.IsAdmin {
		return nil, domain.Forbidden("only sellers and admins can create categories")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("category name is required")
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}

	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, domain.Conflict("category %q already exists", name)
		}
		return nil, err
	}

	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.store.Categories().List(ctx)
}

func (s *catalogService) CreateProduct(ctx context.Context, identity domain.Identity, input ProductInput) (*domain.Product, error) {
	if !identity.IsSeller() {
		return nil, domain.Forbidden("only sellers can list products")
	}

	productType, ok := domain.ParseProductType(input.Type)
	if !ok {
		return nil, domain.Invalid("invalid product type %q", input.Type)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.Invalid("title is required")
	}
	if !input.Price.IsPositive() {
		return nil, domain.Invalid("price must be greater than 0")
	}

	category, err := s.resolveCategory(ctx, input.CategoryID, input.CategoryName)
	if err != nil {
		return nil, err
	}

	stock := input.Stock
	switch {
	case productType == domain.ProductTypeBike:
		stock = 1
	case stock < 0:
		return nil, domain.Invalid("stock must not be negative")
	case stock == 0:
		stock = 1
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		SellerID:    identity.SellerID.UUID,
		CategoryID:  category.ID,
		Type:        productType,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		Condition:   domain.NormalizeCondition(input.Condition),
		Brand:       strings.TrimSpace(input.Brand),
		Model:       strings.TrimSpace(input.Model),
		Year:        input.Year,
		KmDriven:    input.KmDriven,
		Ownership:   input.Ownership,
		Address:     input.Address,
		ImageURL:    input.ImageURL,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product listed",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", product.SellerID.String()),
		zap.String("type", string(product.Type)),
	)
	return product, nil
}

func (s *catalogService) resolveCategory(ctx context.Context, id *uuid.UUID, name string) (*domain.Category, error) {
	var (
		category *domain.Category
		err      error
	)
	switch {
	case id != nil:
		category, err = s.store.Categories().FindByID(ctx, *id)
	case strings.TrimSpace(name) != "":
		category, err = s.store.Categories().FindByName(ctx, strings.TrimSpace(name))
	default:
		return nil, domain.Invalid("category is required")
	}

	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domain.Invalid("invalid category")
		}
		return nil, err
	}
	return category, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error) {
	filter.Page, filter.PageSize = domain.NormalizePage(filter.Page, filter.PageSize)
	if filter.Type != "" && !filter.Type.Valid() {
		return domain.Page[*domain.Product]{}, domain.Invalid("invalid product type %q", filter.Type)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return domain.Page[*domain.Product]{}, domain.Invalid("min price must not exceed max price")
	}

	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return domain.Page[*domain.Product]{}, err
	}
	return domain.NewPage(products, total, filter.Page, filter.PageSize), nil
}

// Dashboard pages bikes and non-bike listings independently.
func (s *catalogService) Dashboard(ctx context.Context, bikes, accessories PageRequest) (*domain.Dashboard, error) {
	bikePage, err := s.ListProducts(ctx, domain.ProductFilter{
		Type:     domain.ProductTypeBike,
		Page:     bikes.Page,
		PageSize: bikes.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bikes: %w", err)
	}

	accessoryPage, err := s.ListProducts(ctx, domain.ProductFilter{
		Types:    []domain.ProductType{domain.ProductTypeAccessory, domain.ProductTypePart},
		Page:     accessories.Page,
		PageSize: accessories.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accessories: %w", err)
	}

	return &domain.Dashboard{Bikes: bikePage, Accessories: accessoryPage}, nil
}

func (s *catalogService) ListMyListings(ctx context.Context, identity domain.Identity) ([]*domain.Product, error) {
	if !identity.IsSeller() {
		return nil, domain.Forbidden("seller profile not found")
	}
	return s.store.Products().ListBySeller(ctx, identity.SellerID.UUID)
}

func (s *catalogService) ownedProduct(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.IsSeller() || product.SellerID != identity.SellerID.UUID {
		return nil, domain.Forbidden("you can only manage your own listings")
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, identity domain.Identity, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	product, err := s.ownedProduct(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if patch.CategoryID != nil {
		category, err := s.resolveCategory(ctx, patch.CategoryID, "")
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, domain.Invalid("title must not be empty")
		}
		product.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			return nil, domain.Invalid("price must be greater than 0")
		}
		product.Price = *patch.Price
	}
	if patch.Condition != nil {
		product.Condition = domain.NormalizeCondition(*patch.Condition)
	}
	setIfPresent(&product.Description, patch.Description)
	setIfPresent(&product.Brand, patch.Brand)
	setIfPresent(&product.Model, patch.Model)
	setIfPresent(&product.Year, patch.Year)
	setIfPresent(&product.KmDriven, patch.KmDriven)
	setIfPresent(&product.Ownership, patch.Ownership)
	setIfPresent(&product.Address, patch.Address)
	setIfPresent(&product.ImageURL, patch.ImageURL)

	if err := applyStockPatch(product, patch.Stock, patch.IsSold); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now()
	if err := s.store.Products().Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}

	return product, nil
}

// applyStockPatch keeps a bike's stock and sold flag in agreement.
func applyStockPatch(product *domain.Product, stock *int, isSold *bool) error {
	if stock != nil && *stock < 0 {
		return domain.Invalid("stock must not be negative")
	}

	if !product.IsBike() {
		setIfPresent(&product.Stock, stock)
		setIfPresent(&product.IsSold, isSold)
		return nil
	}

	if stock != nil && *stock > 1 {
		return domain.Invalid("a bike listing has a stock of 0 or 1")
	}
	if stock != nil && isSold != nil && (*stock == 0) != *isSold {
		return domain.Invalid("a bike is sold exactly when its stock is 0")
	}

	switch {
	case stock != nil:
		product.Stock = *stock
		product.IsSold = *stock == 0
	case isSold != nil:
		product.IsSold = *isSold
		product.Stock = 1
		if *isSold {
			product.Stock = 0
		}
	}
	return nil
}

// DeleteProduct refuses listings that appear in order history or inspections.
func (s *catalogService) DeleteProduct(ctx context.Context, identity domain.Identity, id uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, identity, id); err != nil {
		return err
	}

	orderItems, err := s.store.Orders().CountItemsForProduct(ctx, id)
	if err != nil {
		return err
	}
	if orderItems > 0 {
		return domain.BadRequest("cannot delete a product that has been ordered")
	}

	inspections, err := s.store.Inspections().CountForProduct(ctx, id)
	if err != nil {
		return err
	}
	if inspections > 0 {
		return domain.BadRequest("cannot delete a product with inspection requests")
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Carts().DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.NotFound("product not found")
		}
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
