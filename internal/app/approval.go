package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/robomakers/academy-payment-system/api"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

// ApprovePaymentHandler confirms a charge captured by the checkout widget.
// This is the only code path allowed to talk to the gateway's confirm API:
// the gateway secret never reaches browser-delivered code, and the amount is
// validated against the stored record so a tampered client cannot change
// what gets charged.
func (app *Application) ApprovePaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.ApprovePaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	payment, err := app.approvePayment(r.Context(), logger, input.PaymentKey, input.OrderId, input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, errors.New("no payment found for this order"))
		case errors.Is(err, domain.ErrAlreadyProcessed):
			app.editConflictResponseWithErr(w, r, err)
		case errors.Is(err, domain.ErrAmountMismatch):
			logger.Warn("approval rejected due to amount mismatch", "order_id", input.OrderId)
			app.badRequestResponse(w, r, err)
		default:
			var gwErr *domain.GatewayError
			if errors.As(err, &gwErr) {
				app.badGatewayResponse(w, r, gwErr)
				return
			}

			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.ApprovePaymentResponse{
		Success: true,
		Payment: toApiPayment(payment),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// approvePayment validates the request against the stored record and only
// then confirms the charge with the gateway. Local state is mutated only
// after the gateway reports success.
func (app *Application) approvePayment(
	ctx context.Context,
	logger *slog.Logger,
	paymentKey, orderId string,
	amount int64) (*domain.Payment, error) {

	stored, err := app.paymentRepo.GetByOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}

	// Guards against double-confirmation: a double-clicked pay button or a
	// back-button replay must not confirm the charge twice.
	if stored.Status == domain.PaymentStatusCompleted {
		return nil, domain.ErrAlreadyProcessed
	}

	if stored.Amount != amount {
		return nil, domain.ErrAmountMismatch
	}

	confirmation, err := app.gateway.Confirm(ctx, paymentKey, orderId, amount)
	if err != nil {
		return nil, err
	}

	payment, err := app.paymentRepo.MarkCompleted(ctx, orderId, confirmation.PaymentKey, confirmation.Method)
	if err != nil {
		return nil, err
	}

	if app.paymentsCompleted != nil {
		app.paymentsCompleted.Add(ctx, 1)
	}

	logger.Info("payment approved", "order_id", orderId, "amount", amount)

	return payment, nil
}
