package transport

import (
	"net/http"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CreateProductRequest is a new listing. Either category_id or category names the category.
type CreateProductRequest struct {
	CategoryID  *uuid.UUID      `json:"category_id"`
	Category    string          `json:"category" validate:"required_without=CategoryID"`
	Type        string          `json:"type" validate:"required"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Condition   string          `json:"condition"`
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Year        int             `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	KmDriven    int             `json:"km_driven" validate:"gte=0"`
	Ownership   int             `json:"ownership" validate:"gte=0"`
	Address     string          `json:"address"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type UpdateProductRequest struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Condition   *string          `json:"condition"`
	Brand       *string          `json:"brand"`
	Model       *string          `json:"model"`
	Year        *int             `json:"year"`
	KmDriven    *int             `json:"km_driven" validate:"omitempty,gte=0"`
	Ownership   *int             `json:"ownership" validate:"omitempty,gte=0"`
	Address     *string          `json:"address"`
	ImageURL    *string          `json:"image_url"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsSold      *bool            `json:"is_sold"`
}

// ProductHandler serves the catalog
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalogService: catalogService, logger: logger}
}

// RegisterRoutes registers the catalog routes. Reads are public.
func (h *ProductHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/categories", h.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(protected)
			r.Post("/categories", h.CreateCategory)
			r.Get("/mine", h.ListMyListings)
			r.With(middleware.RequireSeller(h.logger)).Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Get("/{id}", h.GetProduct)
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Brand:    q.Get("brand"),
		Model:    q.Get("model"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "limit"),
	}

	if raw := q.Get("type"); raw != "" {
		productType, ok := domain.ParseProductType(raw)
		if !ok {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product type")
			return
		}
		filter.Type = productType
	}

	for name, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = &price
	}

	page, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.catalogService.Dashboard(r.Context(),
		service.PageRequest{Page: queryInt(r, "bike_page"), PageSize: queryInt(r, "bike_limit")},
		service.PageRequest{Page: queryInt(r, "accessory_page"), PageSize: queryInt(r, "accessory_limit")},
	)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "load dashboard", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "get product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list categories", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), identity, req.Name, req.Description)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "create category", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), identity, service.ProductInput{
		CategoryID:   req.CategoryID,
		CategoryName: req.Category,
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Condition:    req.Condition,
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		KmDriven:     req.KmDriven,
		Ownership:    req.Ownership,
		Address:      req.Address,
		ImageURL:     req.ImageURL,
		Stock:        req.Stock,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "create product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) ListMyListings(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	products, err := h.catalogService.ListMyListings(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list listings", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), identity, id, service.ProductPatch{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Condition:   req.Condition,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		KmDriven:    req.KmDriven,
		Ownership:   req.Ownership,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		IsSold:      req.IsSold,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, "update product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), identity, id); err != nil {
		respondWithServiceError(w, r, h.logger, "delete product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
