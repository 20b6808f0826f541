package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeBike      ProductType = "BIKE"
	ProductTypeAccessory ProductType = "ACCESSORY"
	ProductTypePart      ProductType = "PART"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeBike, ProductTypeAccessory, ProductTypePart:
		return true
	}
	return false
}

// ParseProductType normalizes user input such as "bike" into a ProductType.
func ParseProductType(s string) (ProductType, bool) {
	t := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// NormalizeCondition turns "like new" into "LIKE_NEW".
func NormalizeCondition(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "_")
}

// Product is a catalog listing. A BIKE is a single unit: its stock is 0 or 1 and it is sold exactly when stock is 0.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SellerID    uuid.UUID       `json:"seller_id" db:"seller_id"`
	CategoryID  uuid.UUID       `json:"category_id" db:"category_id"`
	Type        ProductType     `json:"type" db:"type"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Condition   string          `json:"condition" db:"condition"`
	Brand       string          `json:"brand" db:"brand"`
	Model       string          `json:"model" db:"model"`
	Year        int             `json:"year" db:"year"`
	KmDriven    int             `json:"km_driven" db:"km_driven"`
	Ownership   int             `json:"ownership" db:"ownership"`
	Address     string          `json:"address" db:"address"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Stock       int             `json:"stock" db:"stock"`
	IsSold      bool            `json:"is_sold" db:"is_sold"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *Product) IsBike() bool {
	return p.Type == ProductTypeBike
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductFilter narrows the public catalog listing. Sold products are never listed.
type ProductFilter struct {
	Brand    string
	Model    string
	Type     ProductType
	Types    []ProductType
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	PageSize int
}

// Page is one page of a listing together with its paging metadata.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps paging input to sane bounds.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

// Dashboard splits unsold listings into bikes and everything else.
type Dashboard struct {
	Bikes       Page[*Product] `json:"bikes"`
	Accessories Page[*Product] `json:"accessories"`
}
