package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/robomakers/academy-payment-system/api"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

const (
	refundTypeFull    = "full"
	refundTypePartial = "partial"

	defaultCancelReason = "requested by academy staff"
)

// RefundPaymentHandler runs the admin refund flow. The gateway can only
// cancel a captured payment in total, so a partial refund is simulated:
// cancel the entire remaining capture, then hand the admin a checkout link
// for the remaining balance to forward to the customer. When that follow-up
// charge completes, the reconciler issues the closing cancel call (see
// settleOriginalPayment).
func (app *Application) RefundPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	paymentId, err := app.readIDParam(r, "paymentId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.RefundPaymentRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	// Always act on current stored amounts, never on values the admin UI
	// submitted: another admin may have refunded in the meantime.
	payment, err := app.paymentRepo.GetByID(r.Context(), paymentId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	available := payment.AvailableRefund()

	switch input.Type {
	case refundTypePartial:
		if input.Amount <= 0 || input.Amount >= available {
			app.badRequestResponse(w, r, fmt.Errorf(
				"partial refund amount must be between 1 and %d; use a full refund to return the whole remaining amount",
				available-1,
			))
			return
		}
	case refundTypeFull:
		if available <= 0 {
			app.editConflictResponseWithErr(w, r, domain.ErrNotRefundable)
			return
		}
	}

	reason := input.Reason
	if reason == "" {
		reason = defaultCancelReason
	}

	// The whole remaining capture is cancelled in both cases; for a partial
	// refund the difference is collected again through the follow-up link.
	_, err = app.gateway.Cancel(r.Context(), payment.PaymentKey, reason, available)
	if err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) {
			app.badGatewayResponse(w, r, gwErr)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if app.refundsIssued != nil {
		app.refundsIssued.Add(r.Context(), 1)
	}

	if input.Type == refundTypeFull {
		app.finishFullRefund(w, r, logger, payment, available)
		return
	}

	app.finishPartialRefund(w, r, logger, payment, input.Amount)
}

func (app *Application) finishFullRefund(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	payment *domain.Payment,
	refunded int64) {

	updated, err := app.paymentRepo.ApplyRefund(r.Context(), payment.ID, refunded, domain.SettlementFullyRefunded)
	if err != nil {
		// The gateway cancel already went through; local bookkeeping now
		// lags and needs manual reconciliation.
		logger.Error("gateway cancelled payment but local refund update failed", "payment_id", payment.ID, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	// A full refund revokes access; a partial one leaves the enrollment
	// intact.
	if payment.CurriculumID != nil || payment.CourseID != nil {
		err = app.enrollmentRepo.Delete(r.Context(), payment.UserID, payment.CurriculumID, payment.CourseID)
		if err != nil {
			logger.Error("failed to delete enrollment after full refund",
				"payment_id", payment.ID,
				"user_id", payment.UserID,
				"error", err,
			)
		}
	}

	logger.Info("full refund completed", "payment_id", payment.ID, "refunded", refunded)

	resp := api.RefundPaymentResponse{
		Success:        true,
		Payment:        toApiPayment(updated),
		RefundedAmount: refunded,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) finishPartialRefund(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	payment *domain.Payment,
	requested int64) {

	updated, err := app.paymentRepo.ApplyRefund(r.Context(), payment.ID, requested, domain.SettlementPartiallyRefunded)
	if err != nil {
		logger.Error("gateway cancelled payment but local refund update failed", "payment_id", payment.ID, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	remaining := updated.AvailableRefund()
	repaymentUrl := app.repaymentUrl(r.Context(), updated, remaining)

	app.sendBalanceDueMail(r, updated, remaining, repaymentUrl)

	logger.Info("partial refund executed, awaiting follow-up charge",
		"payment_id", payment.ID,
		"refunded", requested,
		"remaining", remaining,
	)

	resp := api.RefundPaymentResponse{
		Success:         true,
		Payment:         toApiPayment(updated),
		RefundedAmount:  requested,
		RemainingAmount: remaining,
		RepaymentUrl:    repaymentUrl,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// repaymentUrl synthesizes the same-origin checkout link for the remaining
// balance. The admin forwards it to the customer; the customer is never
// charged automatically.
func (app *Application) repaymentUrl(ctx context.Context, payment *domain.Payment, remaining int64) string {
	u, err := url.Parse(app.config.Gateway.PartialUrl)
	if err != nil {
		return app.config.Gateway.PartialUrl
	}

	q := u.Query()
	q.Set("amount", strconv.FormatInt(remaining, 10))
	q.Set("userId", strconv.Itoa(payment.UserID))
	q.Set("orderName", app.orderName(ctx, payment))
	q.Set("originalPaymentId", strconv.Itoa(payment.ID))

	if payment.CurriculumID != nil {
		q.Set("curriculumId", strconv.Itoa(*payment.CurriculumID))
	} else if payment.CourseID != nil {
		q.Set("courseId", strconv.Itoa(*payment.CourseID))
	}

	u.RawQuery = q.Encode()

	return u.String()
}

func (app *Application) orderName(ctx context.Context, payment *domain.Payment) string {
	if payment.CurriculumID != nil {
		curriculum, err := app.catalogRepo.GetCurriculumByID(ctx, *payment.CurriculumID)
		if err == nil {
			return curriculum.Name
		}
	}

	if payment.CourseID != nil {
		course, err := app.catalogRepo.GetCourseByID(ctx, *payment.CourseID)
		if err == nil {
			return course.Name
		}
	}

	return "Remaining balance"
}

func (app *Application) sendBalanceDueMail(r *http.Request, payment *domain.Payment, remaining int64, repaymentUrl string) {
	go func(ctx context.Context) {
		gLogger := app.contextGetLogger(r.WithContext(ctx))

		defer func() {
			if err := recover(); err != nil {
				gLogger.Error("panic occurred during sending balance due mail", "panic", err)
			}
		}()

		profile, err := app.profileRepo.GetByID(ctx, payment.UserID)
		if err != nil {
			gLogger.Error("failed to load profile for balance due mail", "error", err)
			return
		}

		data := map[string]any{
			"amount":       remaining,
			"orderName":    app.orderName(ctx, payment),
			"repaymentUrl": repaymentUrl,
		}

		err = app.mailer.Send(profile.Email, "balance_due.tmpl", data)
		if err != nil {
			gLogger.Error("failed to send balance due email", "error", err)
		}
	}(context.WithoutCancel(r.Context()))
}
