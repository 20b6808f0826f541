package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a marketplace account. Roles come from the profile tables, not from the user row.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type SellerProfile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	GSTNumber    string    `json:"gst_number" db:"gst_number"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type MechanicProfile struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	ExperienceYears int             `json:"experience_years" db:"experience_years"`
	ShopAddress     string          `json:"shop_address" db:"shop_address"`
	HourlyRate      decimal.Decimal `json:"hourly_rate" db:"hourly_rate"`
	IsMobileService bool            `json:"is_mobile_service" db:"is_mobile_service"`
	IsVerified      bool            `json:"is_verified" db:"is_verified"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// RefreshToken is an opaque long-lived token exchanged for new access tokens.
type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
}

// Roles is the role set derived from profile membership.
type Roles struct {
	IsSeller   bool `json:"is_seller"`
	IsMechanic bool `json:"is_mechanic"`
	IsAdmin    bool `json:"is_admin"`
}

// Identity is resolved once per request and passed explicitly to services.
type Identity struct {
	UserID     uuid.UUID     `db:"user_id"`
	Email      string        `db:"email"`
	Name       string        `db:"name"`
	SellerID   uuid.NullUUID `db:"seller_id"`
	MechanicID uuid.NullUUID `db:"mechanic_id"`
	IsAdmin    bool          `db:"is_admin"`
}

func (i Identity) IsSeller() bool {
	return i.SellerID.Valid
}

func (i Identity) IsMechanic() bool {
	return i.MechanicID.Valid
}

func (i Identity) Roles() Roles {
	return Roles{IsSeller: i.IsSeller(), IsMechanic: i.IsMechanic(), IsAdmin: i.IsAdmin}
}

// Profile is the current user together with the role profiles they hold.
type Profile struct {
	User     *User            `json:"user"`
	Roles    Roles            `json:"roles"`
	Seller   *SellerProfile   `json:"seller,omitempty"`
	Mechanic *MechanicProfile `json:"mechanic,omitempty"`
}
