package domain

import "errors"

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrEditConflict       = errors.New("edit conflict")
	ErrDuplicateOrder     = errors.New("payment already exists for this order")
	ErrAlreadyProcessed   = errors.New("payment has already been processed")
	ErrAmountMismatch     = errors.New("payment amount does not match the recorded amount")
	ErrDuplicateEnrollee  = errors.New("user is already enrolled")
	ErrNotRefundable      = errors.New("payment has no refundable amount left")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
