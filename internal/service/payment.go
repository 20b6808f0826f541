package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentGateway charges a buyer and returns the provider's payment reference.
type PaymentGateway interface {
	Charge(ctx context.Context, buyerID uuid.UUID, amount decimal.Decimal) (paymentID string, err error)
}

// MockPaymentGateway approves every charge. It stands in until a real provider is integrated.
type MockPaymentGateway struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewMockPaymentGateway(logger *zap.Logger) *MockPaymentGateway {
	return &MockPaymentGateway{logger: logger, now: time.Now}
}

func (g *MockPaymentGateway) Charge(ctx context.Context, buyerID uuid.UUID, amount decimal.Decimal) (string, error) {
	paymentID := fmt.Sprintf("PAY-%d", g.now().UnixMilli())
	g.logger.Info("Mock payment approved",
		zap.String("buyer_id", buyerID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("payment_id", paymentID),
	)
	return paymentID, nil
}
