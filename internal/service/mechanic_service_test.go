package service

import (
	"context"
	"testing"
	"time"

	"bike-bazaar/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMechanicServices(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewMechanicService(store)
	mechanic := store.seedMechanic("Arjun")
	other := store.seedMechanic("Dev")
	customer := store.seedUser("Meera")

	_, err := svc.AddService(ctx, customer, ServiceInput{Name: "Oil change", BasePrice: decimal.NewFromInt(300)})
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.AddService(ctx, mechanic, ServiceInput{Name: " ", BasePrice: decimal.NewFromInt(300)})
	assert.Equal(t, domain.KindInvalid, domain.KindOf(err))

	_, err = svc.AddService(ctx, mechanic, ServiceInput{Name: "Oil change", BasePrice: decimal.NewFromInt(-1)})
	assert.Equal(t, domain.KindInvalid, domain.KindOf(err))

	oilChange, err := svc.AddService(ctx, mechanic, ServiceInput{Name: "Oil change", BasePrice: decimal.NewFromInt(300)})
	require.NoError(t, err)

	listings, err := svc.ListMechanics(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	for _, listing := range listings {
		if listing.ID == mechanic.MechanicID.UUID {
			require.Len(t, listing.Services, 1)
			assert.Equal(t, "Oil change", listing.Services[0].Name)
		} else {
			assert.Empty(t, listing.Services)
		}
	}

	date := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	missing := uuid.New()

	tests := []struct {
		name     string
		input    BookingInput
		wantKind domain.ErrorKind
	}{
		{name: "with service", input: BookingInput{MechanicID: mechanic.MechanicID.UUID, ServiceID: &oilChange.ID, Date: date}},
		{name: "without service", input: BookingInput{MechanicID: other.MechanicID.UUID, Date: date, Notes: "chain noise"}},
		{name: "missing date", input: BookingInput{MechanicID: mechanic.MechanicID.UUID}, wantKind: domain.KindInvalid},
		{name: "unknown mechanic", input: BookingInput{MechanicID: missing, Date: date}, wantKind: domain.KindNotFound},
		{name: "unknown service", input: BookingInput{MechanicID: mechanic.MechanicID.UUID, ServiceID: &missing, Date: date}, wantKind: domain.KindNotFound},
		{name: "service of another mechanic", input: BookingInput{MechanicID: other.MechanicID.UUID, ServiceID: &oilChange.ID, Date: date}, wantKind: domain.KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking, err := svc.CreateBooking(ctx, customer, tt.input)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.BookingStatusPending, booking.Status)
			assert.Equal(t, tt.input.ServiceID != nil, booking.ServiceID.Valid)
		})
	}

	bookings, err := svc.ListMyBookings(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestGarage(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewGarageService(store)
	owner := store.seedUser("Meera")

	_, err := svc.AddBike(ctx, owner.UserID, BikeInput{Brand: "Hero", Year: 2015})
	assert.Equal(t, domain.KindInvalid, domain.KindOf(err))

	bike, err := svc.AddBike(ctx, owner.UserID, BikeInput{Brand: " Hero ", Model: "Splendor", Year: 2015, Registration: "ka01ab1234"})
	require.NoError(t, err)
	assert.Equal(t, "Hero", bike.Brand)
	assert.Equal(t, "KA01AB1234", bike.Registration)

	bikes, err := svc.ListBikes(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, bikes, 1)
}
