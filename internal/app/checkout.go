package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robomakers/academy-payment-system/api"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

// CreateCheckoutHandler records a pending payment intent and returns the
// parameters the browser needs to open the hosted checkout widget. The
// client must not be handed off to the widget unless the intent has been
// durably recorded, otherwise a successful charge would have no local record.
func (app *Application) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CheckoutRequest

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

	userId := app.contextGetUserId(r)

	orderId := input.OrderId
	if orderId == "" {
		orderId = mintOrderId()
	}

	payment, err := app.recordPendingPayment(
		r.Context(),
		logger,
		userId,
		orderId,
		input.Amount,
		input.CurriculumId,
		input.CourseId,
	)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.CheckoutResponse{
		OrderId:    payment.OrderID,
		Amount:     payment.Amount,
		OrderName:  input.OrderName,
		ClientKey:  app.config.Gateway.ClientKey,
		SuccessUrl: app.checkoutRedirectUrl(app.config.Gateway.SuccessUrl, payment),
		FailUrl:    app.checkoutRedirectUrl(app.config.Gateway.FailUrl, payment),
		Payment:    toApiPayment(payment),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// recordPendingPayment is idempotent per (user, order): re-submitting the
// same order id refreshes the existing row instead of inserting a second one.
func (app *Application) recordPendingPayment(
	ctx context.Context,
	logger *slog.Logger,
	userId int,
	orderId string,
	amount int64,
	curriculumId, courseId *int) (*domain.Payment, error) {

	existing, err := app.paymentRepo.GetByOrderAndUser(ctx, orderId, userId)
	if err == nil {
		logger.Info("checkout re-entry for existing order, refreshing pending record", "order_id", orderId)

		existing.PaymentKey = placeholderPaymentKey(orderId)
		err = app.paymentRepo.RefreshPending(ctx, existing)
		if err != nil {
			return nil, err
		}

		return existing, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	curriculumId = app.verifiedCurriculumId(ctx, logger, curriculumId)
	courseId = app.verifiedCourseId(ctx, logger, courseId)

	payment := &domain.Payment{
		UserID:       userId,
		OrderID:      orderId,
		Amount:       amount,
		Status:       domain.PaymentStatusPending,
		PaymentKey:   placeholderPaymentKey(orderId),
		CurriculumID: curriculumId,
		CourseID:     courseId,
	}

	err = app.paymentRepo.Create(ctx, payment)
	if err != nil {
		// Two near-simultaneous submissions can race past the existence
		// check; the unique index on order_id catches the loser.
		if errors.Is(err, domain.ErrDuplicateOrder) {
			logger.Warn("concurrent checkout submission detected, returning existing record", "order_id", orderId)
			return app.paymentRepo.GetByOrderAndUser(ctx, orderId, userId)
		}

		return nil, err
	}

	return payment, nil
}

// verifiedCurriculumId nulls out a dangling curriculum reference instead of
// failing the checkout.
func (app *Application) verifiedCurriculumId(ctx context.Context, logger *slog.Logger, id *int) *int {
	if id == nil {
		return nil
	}

	_, err := app.catalogRepo.GetCurriculumByID(ctx, *id)
	if err != nil {
		logger.Warn("payment references unknown curriculum, recording without it", "curriculum_id", *id, "error", err)
		return nil
	}

	return id
}

func (app *Application) verifiedCourseId(ctx context.Context, logger *slog.Logger, id *int) *int {
	if id == nil {
		return nil
	}

	_, err := app.catalogRepo.GetCourseByID(ctx, *id)
	if err != nil {
		logger.Warn("payment references unknown course, recording without it", "course_id", *id, "error", err)
		return nil
	}

	return id
}

func (app *Application) checkoutRedirectUrl(base string, payment *domain.Payment) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	q := u.Query()
	q.Set("orderId", payment.OrderID)
	q.Set("amount", strconv.FormatInt(payment.Amount, 10))
	u.RawQuery = q.Encode()

	return u.String()
}

func mintOrderId() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), random)
}

// placeholderPaymentKey fills the non-null unique payment_key column before
// the gateway assigns a real key. The prefix keeps it from ever colliding
// with gateway-issued keys.
func placeholderPaymentKey(orderId string) string {
	return fmt.Sprintf("pending_%s_%d", orderId, time.Now().UnixMilli())
}

func toApiPayment(payment *domain.Payment) api.Payment {
	return api.Payment{
		Id:             payment.ID,
		UserId:         payment.UserID,
		OrderId:        payment.OrderID,
		Amount:         payment.Amount,
		Status:         string(payment.Status),
		PaymentKey:     payment.PaymentKey,
		PaymentMethod:  payment.PaymentMethod,
		RefundedAmount: payment.RefundedAmount,
		Settlement:     string(payment.Settlement),
		CurriculumId:   payment.CurriculumID,
		CourseId:       payment.CourseID,
		CreatedAt:      payment.CreatedAt,
		UpdatedAt:      payment.UpdatedAt,
	}
}
