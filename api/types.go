// Package api defines the request and response schemas of the academy payment
// API. Every table and endpoint touched by the payment flow has an explicit
// typed schema which is validated at the boundary.
package api

import "time"

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AlreadyLoggedInResponse struct {
	Message string `json:"message"`
}

// CheckoutRequest records a payment intent before the browser is handed off
// to the hosted checkout widget. OrderId is minted server-side when omitted.
type CheckoutRequest struct {
	OrderId      string `json:"orderId,omitempty" validate:"omitempty,order_id"`
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	OrderName    string `json:"orderName,omitempty" validate:"max=200"`
	CurriculumId *int   `json:"curriculumId,omitempty" validate:"omitempty,gt=0"`
	CourseId     *int   `json:"courseId,omitempty" validate:"omitempty,gt=0"`
}

type CheckoutResponse struct {
	OrderId    string  `json:"orderId"`
	Amount     int64   `json:"amount"`
	OrderName  string  `json:"orderName,omitempty"`
	ClientKey  string  `json:"clientKey"`
	SuccessUrl string  `json:"successUrl"`
	FailUrl    string  `json:"failUrl"`
	Payment    Payment `json:"payment"`
}

type ApprovePaymentRequest struct {
	PaymentKey string `json:"paymentKey" validate:"required"`
	OrderId    string `json:"orderId" validate:"required,order_id"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

type ApprovePaymentResponse struct {
	Success bool    `json:"success"`
	Payment Payment `json:"payment"`
}

// CompletePaymentRequest is submitted when the widget redirects back to the
// success URL. The partial fields are set only on the follow-up charge of a
// partial refund cycle.
type CompletePaymentRequest struct {
	PaymentKey        string `json:"paymentKey" validate:"required"`
	OrderId           string `json:"orderId" validate:"required,order_id"`
	Amount            int64  `json:"amount" validate:"required,gt=0"`
	CurriculumId      *int   `json:"curriculumId,omitempty" validate:"omitempty,gt=0"`
	CourseId          *int   `json:"courseId,omitempty" validate:"omitempty,gt=0"`
	IsPartialPayment  bool   `json:"isPartialPayment,omitempty"`
	OriginalPaymentId *int   `json:"originalPaymentId,omitempty" validate:"omitempty,gt=0"`
}

type CompletePaymentResponse struct {
	Success bool    `json:"success"`
	Payment Payment `json:"payment"`
}

type RefundPaymentRequest struct {
	Type   string `json:"type" validate:"required,refund_type"`
	Amount int64  `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

type RefundPaymentResponse struct {
	Success         bool    `json:"success"`
	Payment         Payment `json:"payment"`
	RefundedAmount  int64   `json:"refundedAmount"`
	RemainingAmount int64   `json:"remainingAmount,omitempty"`
	// RepaymentUrl is the synthesized checkout link for the remaining balance
	// of a partial refund, for the admin to forward to the customer.
	RepaymentUrl string `json:"repaymentUrl,omitempty"`
}

type Payment struct {
	Id             int        `json:"id"`
	UserId         int        `json:"userId"`
	OrderId        string     `json:"orderId"`
	Amount         int64      `json:"amount"`
	Status         string     `json:"status"`
	PaymentKey     string     `json:"paymentKey,omitempty"`
	PaymentMethod  *string    `json:"paymentMethod,omitempty"`
	RefundedAmount int64      `json:"refundedAmount"`
	Settlement     string     `json:"settlement"`
	CurriculumId   *int       `json:"curriculumId,omitempty"`
	CourseId       *int       `json:"courseId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type PaymentListResponse struct {
	Payments []Payment `json:"payments"`
	Metadata Metadata  `json:"metadata"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type PaymentListParams struct {
	Page     *int    `validate:"omitempty,gte=1"`
	PageSize *int    `validate:"omitempty,gte=1,lte=100"`
	Sort     *string `validate:"omitempty,oneof=created_at -created_at amount -amount"`
}
