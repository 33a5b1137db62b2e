package domain

import (
	"context"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// SettlementState tracks the refund/closure status of a payment separately
// from its gateway status. A partially refunded payment stays
// SettlementPartiallyRefunded until the follow-up charge for the remaining
// balance is completed and the original amount is fully cancelled out.
type SettlementState string

const (
	SettlementOpen              SettlementState = "open"
	SettlementPartiallyRefunded SettlementState = "partially_refunded"
	SettlementFullyRefunded     SettlementState = "fully_refunded"
)

// Payment is a locally persisted record of an attempted charge. It is created
// as pending before the user is handed off to the hosted checkout widget and
// is never deleted afterwards.
type Payment struct {
	ID             int
	UserID         int
	OrderID        string
	Amount         int64
	Status         PaymentStatus
	PaymentKey     string
	PaymentMethod  *string
	RefundedAmount int64
	Settlement     SettlementState
	CurriculumID   *int
	CourseID       *int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// AvailableRefund is the captured amount not yet returned to the customer.
func (p *Payment) AvailableRefund() int64 {
	return p.Amount - p.RefundedAmount
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id int) (*Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*Payment, error)
	GetByOrderAndUser(ctx context.Context, orderID string, userID int) (*Payment, error)
	// RefreshPending resets an existing row to pending and bumps updated_at.
	// Used when a checkout is re-submitted for an order id that was already
	// recorded (page reload, retried submission).
	RefreshPending(ctx context.Context, payment *Payment) error
	MarkCompleted(ctx context.Context, orderID, paymentKey string, method *string) (*Payment, error)
	// ApplyRefund cancels the payment locally, accumulating refunded_amount
	// and moving the settlement state in a single statement.
	ApplyRefund(ctx context.Context, id int, refundedAmount int64, settlement SettlementState) (*Payment, error)
	// Settle closes out a partially refunded payment once the follow-up
	// charge for the remaining balance has been confirmed.
	Settle(ctx context.Context, id int) error
	GetAllByUser(ctx context.Context, userID int, pagination Pagination) ([]Payment, *Metadata, error)
	GetAll(ctx context.Context, pagination Pagination) ([]Payment, *Metadata, error)
}
