package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CartItem is one line in a user's cart. Lines for the same product are not merged.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CartLine is a cart item with the current state of its product.
type CartLine struct {
	CartItem
	Product Product `json:"product" db:"product"`
}

// Order status is shared by every item, even when items belong to different sellers.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	BuyerID     uuid.UUID       `json:"buyer_id" db:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      OrderStatus     `json:"status" db:"status"`
	PaymentID   string          `json:"payment_id" db:"payment_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	Items       []*OrderItem    `json:"items" db:"-"`
}

// OrderItem freezes the unit price at checkout. The product fields are filled on reads.
type OrderItem struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderID         uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" db:"price_at_purchase"`
	ProductTitle    string          `json:"product_title,omitempty" db:"product_title"`
	ProductType     ProductType     `json:"product_type,omitempty" db:"product_type"`
	SellerID        uuid.UUID       `json:"seller_id" db:"seller_id"`
}

// HasSeller reports whether any item of the order was listed by sellerID.
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// SaleLine is one sold item as seen by its seller.
type SaleLine struct {
	OrderID         uuid.UUID       `json:"order_id" db:"order_id"`
	OrderItemID     uuid.UUID       `json:"order_item_id" db:"order_item_id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	ProductTitle    string          `json:"product_title" db:"product_title"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" db:"price_at_purchase"`
	OrderStatus     OrderStatus     `json:"order_status" db:"order_status"`
	BuyerName       string          `json:"buyer_name" db:"buyer_name"`
	BuyerEmail      string          `json:"buyer_email" db:"buyer_email"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
