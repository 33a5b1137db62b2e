package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/robomakers/academy-payment-system/internal/domain"
)

// StubGateway is a controllable in-memory gateway used by integration tests.
type StubGateway struct {
	mu sync.Mutex

	ConfirmErr error
	CancelErr  error

	ConfirmCalls []ConfirmCall
	CancelCalls  []CancelCall
}

type ConfirmCall struct {
	PaymentKey string
	OrderID    string
	Amount     int64
}

type CancelCall struct {
	PaymentKey string
	Reason     string
	Amount     int64
}

func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

func (s *StubGateway) Confirm(
	ctx context.Context,
	paymentKey, orderID string,
	amount int64) (*domain.GatewayConfirmation, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ConfirmCalls = append(s.ConfirmCalls, ConfirmCall{PaymentKey: paymentKey, OrderID: orderID, Amount: amount})

	if s.ConfirmErr != nil {
		return nil, s.ConfirmErr
	}

	method := "card"

	return &domain.GatewayConfirmation{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
		Method:     &method,
		ApprovedAt: time.Now(),
	}, nil
}

func (s *StubGateway) Cancel(
	ctx context.Context,
	paymentKey, reason string,
	amount int64) (*domain.GatewayCancellation, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.CancelCalls = append(s.CancelCalls, CancelCall{PaymentKey: paymentKey, Reason: reason, Amount: amount})

	if s.CancelErr != nil {
		return nil, s.CancelErr
	}

	return &domain.GatewayCancellation{
		PaymentKey:   paymentKey,
		CancelAmount: amount,
		CancelledAt:  time.Now(),
	}, nil
}

// Reset clears recorded calls and programmed errors between scenarios.
func (s *StubGateway) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ConfirmErr = nil
	s.CancelErr = nil
	s.ConfirmCalls = nil
	s.CancelCalls = nil
}
