package mocks

import (
	"context"

	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id int) (*domain.Payment, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	args := m.Called(ctx, orderID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByOrderAndUser(ctx context.Context, orderID string, userID int) (*domain.Payment, error) {
	args := m.Called(ctx, orderID, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) RefreshPending(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkCompleted(ctx context.Context, orderID, paymentKey string, method *string) (*domain.Payment, error) {
	args := m.Called(ctx, orderID, paymentKey, method)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) ApplyRefund(
	ctx context.Context,
	id int,
	refundedAmount int64,
	settlement domain.SettlementState) (*domain.Payment, error) {

	args := m.Called(ctx, id, refundedAmount, settlement)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) Settle(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetAllByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.Payment, *domain.Metadata, error) {

	args := m.Called(ctx, userID, pagination)

	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}

	return args.Get(0).([]domain.Payment), args.Get(1).(*domain.Metadata), args.Error(2)
}

func (m *MockPaymentRepo) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Payment, *domain.Metadata, error) {

	args := m.Called(ctx, pagination)

	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}

	return args.Get(0).([]domain.Payment), args.Get(1).(*domain.Metadata), args.Error(2)
}
