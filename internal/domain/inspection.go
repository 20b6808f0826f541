package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InspectionType string

const (
	InspectionTypeInspection InspectionType = "INSPECTION"
	InspectionTypeService    InspectionType = "SERVICE"
)

type InspectionStatus string

const (
	InspectionStatusPending   InspectionStatus = "PENDING"
	InspectionStatusAccepted  InspectionStatus = "ACCEPTED"
	InspectionStatusRejected  InspectionStatus = "REJECTED"
	InspectionStatusCompleted InspectionStatus = "COMPLETED"
	InspectionStatusCancelled InspectionStatus = "CANCELLED"
)

// MinOfferAmount is the lowest offer a buyer may attach to a request.
var MinOfferAmount = decimal.NewFromInt(100)

// InspectionReport is stored as JSONB.
type InspectionReport struct {
	Scores         map[string]int `json:"scores"`
	OverallComment string         `json:"overall_comment"`
}

func (r InspectionReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *InspectionReport) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		return nil
	}
	return errors.New("unsupported type for inspection report")
}

// Inspection is a paid request for a mechanic to inspect a listed bike or service the buyer's own bike.
// Exactly one of ProductID and UserBikeID is set, matching Type.
type Inspection struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	BuyerID         uuid.UUID           `json:"buyer_id" db:"buyer_id"`
	Type            InspectionType      `json:"type" db:"type"`
	ProductID       uuid.NullUUID       `json:"product_id" db:"product_id"`
	UserBikeID      uuid.NullUUID       `json:"user_bike_id" db:"user_bike_id"`
	ServiceType     string              `json:"service_type,omitempty" db:"service_type"`
	MechanicID      uuid.NullUUID       `json:"mechanic_id" db:"mechanic_id"`
	Status          InspectionStatus    `json:"status" db:"status"`
	OfferAmount     decimal.NullDecimal `json:"offer_amount" db:"offer_amount"`
	Message         string              `json:"message,omitempty" db:"message"`
	ScheduledDate   *time.Time          `json:"scheduled_date,omitempty" db:"scheduled_date"`
	RejectionReason string              `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReportData      *InspectionReport   `json:"report_data,omitempty" db:"report_data"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the request is still waiting for a mechanic.
func (i *Inspection) IsOpen() bool {
	return !i.MechanicID.Valid && i.Status == InspectionStatusPending
}

// AssignedTo reports whether mechanicID holds the request.
func (i *Inspection) AssignedTo(mechanicID uuid.NullUUID) bool {
	return mechanicID.Valid && i.MechanicID.Valid && i.MechanicID.UUID == mechanicID.UUID
}

// InspectionView is an inspection with the names needed to display it.
type InspectionView struct {
	Inspection
	ProductTitle  *string    `json:"product_title,omitempty" db:"product_title"`
	SellerID      *uuid.UUID `json:"seller_id,omitempty" db:"seller_id"`
	BikeModel     *string    `json:"bike_model,omitempty" db:"bike_model"`
	BuyerName     string     `json:"buyer_name" db:"buyer_name"`
	BuyerPhone    string     `json:"buyer_phone,omitempty" db:"buyer_phone"`
	MechanicName  *string    `json:"mechanic_name,omitempty" db:"mechanic_name"`
	MechanicPhone *string    `json:"mechanic_phone,omitempty" db:"mechanic_phone"`
}

// HideBuyerContact strips what an unassigned mechanic must not see.
func (v *InspectionView) HideBuyerContact() {
	v.BuyerPhone = ""
}
