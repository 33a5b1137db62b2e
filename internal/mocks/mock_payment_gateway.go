package mocks

import (
	"context"

	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
	domain.PaymentGateway
}

func (m *MockPaymentGateway) Confirm(
	ctx context.Context,
	paymentKey, orderID string,
	amount int64) (*domain.GatewayConfirmation, error) {

	args := m.Called(ctx, paymentKey, orderID, amount)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GatewayConfirmation), args.Error(1)
}

func (m *MockPaymentGateway) Cancel(
	ctx context.Context,
	paymentKey, reason string,
	amount int64) (*domain.GatewayCancellation, error) {

	args := m.Called(ctx, paymentKey, reason, amount)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GatewayCancellation), args.Error(1)
}
