package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserBike is a bike the user owns, kept in their garage for service requests.
type UserBike struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Brand        string    `json:"brand" db:"brand"`
	Model        string    `json:"model" db:"model"`
	Year         int       `json:"year" db:"year"`
	Registration string    `json:"registration" db:"registration"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MechanicService is a priced service a mechanic offers.
type MechanicService struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	MechanicID  uuid.UUID       `json:"mechanic_id" db:"mechanic_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	BasePrice   decimal.Decimal `json:"base_price" db:"base_price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// MechanicListing is a mechanic profile as shown in the public directory.
type MechanicListing struct {
	MechanicProfile
	Name     string             `json:"name" db:"name"`
	Phone    string             `json:"phone" db:"phone"`
	Services []*MechanicService `json:"services" db:"-"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is an appointment a customer makes with a mechanic.
type Booking struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	CustomerID uuid.UUID     `json:"customer_id" db:"customer_id"`
	MechanicID uuid.UUID     `json:"mechanic_id" db:"mechanic_id"`
	ServiceID  uuid.NullUUID `json:"service_id" db:"service_id"`
	Date       time.Time     `json:"date" db:"date"`
	Notes      string        `json:"notes" db:"notes"`
	Status     BookingStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
