package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GatewayConfirmation is the gateway's view of a captured charge after a
// successful confirm call.
type GatewayConfirmation struct {
	PaymentKey string
	OrderID    string
	Amount     int64
	Method     *string
	ApprovedAt time.Time
}

type GatewayCancellation struct {
	PaymentKey   string
	CancelAmount int64
	CancelledAt  time.Time
}

// PaymentGateway is the boundary behind which the gateway's private secret
// lives. The gateway can only cancel a captured payment in total, which is
// why partial refunds are simulated by the refund orchestrator.
type PaymentGateway interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*GatewayConfirmation, error)
	Cancel(ctx context.Context, paymentKey, reason string, amount int64) (*GatewayCancellation, error)
}

// GatewayError carries the gateway's error code and message back to the
// caller. Transient creates a 5xx/network failure apart from a hard business
// rejection such as an already-cancelled payment.
type GatewayError struct {
	Code      string
	Message   string
	Transient bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

// IsGatewayUnavailable reports whether err represents a transient gateway
// failure (network error or 5xx) rather than a business rejection.
func IsGatewayUnavailable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Transient
	}

	// Plain transport errors never reached the gateway at all.
	return err != nil
}
