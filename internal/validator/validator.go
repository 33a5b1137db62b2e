package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// orderIdRgx matches the client-generated checkout order id format,
	// e.g. order_1718000000000_a1b2c3d4.
	orderIdRgx = regexp.MustCompile(`^order_\d+_[A-Za-z0-9]+$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("order_id", validateOrderId)
	validator.RegisterValidation("refund_type", validateRefundType)

	return validator
}

func validateOrderId(fl validator.FieldLevel) bool {
	return orderIdRgx.MatchString(fl.Field().String())
}

func validateRefundType(fl validator.FieldLevel) bool {
	refundType := fl.Field().String()

	return refundType == "full" || refundType == "partial"
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "order_id":
		return "must match the order_<timestamp>_<random> format"
	case "refund_type":
		return "must be either 'full' or 'partial'"
	default:
		return "is invalid"
	}
}
