package app

import (
	"net/http"
	"strconv"

	"github.com/robomakers/academy-payment-system/api"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

// GetMyPaymentsHandler returns the authenticated user's payment history,
// newest first.
func (app *Application) GetMyPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)

	pagination, err := app.paginationFromQuery(w, r)
	if err != nil {
		return
	}

	payments, metadata, err := app.paymentRepo.GetAllByUser(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiPaymentList(payments, metadata), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetAllPaymentsHandler returns every payment in the system. Staff only.
func (app *Application) GetAllPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	pagination, err := app.paginationFromQuery(w, r)
	if err != nil {
		return
	}

	payments, metadata, err := app.paymentRepo.GetAll(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiPaymentList(payments, metadata), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// paginationFromQuery parses and validates page/pageSize query parameters.
// It writes the error response itself so callers can just return on error.
func (app *Application) paginationFromQuery(w http.ResponseWriter, r *http.Request) (domain.Pagination, error) {
	var params api.PaymentListParams

	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return domain.Pagination{}, err
		}

		params.Page = &page
	}

	if raw := query.Get("pageSize"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return domain.Pagination{}, err
		}

		params.PageSize = &pageSize
	}

	if raw := query.Get("sort"); raw != "" {
		params.Sort = &raw
	}

	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return domain.Pagination{}, err
	}

	pagination := domain.Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Sort:     "-created_at",
	}

	if params.Page != nil {
		pagination.Page = *params.Page
	}

	if params.PageSize != nil {
		pagination.PageSize = *params.PageSize
	}

	if params.Sort != nil {
		pagination.Sort = *params.Sort
	}

	return pagination, nil
}

func toApiPaymentList(payments []domain.Payment, metadata *domain.Metadata) api.PaymentListResponse {
	apiPayments := make([]api.Payment, 0, len(payments))
	for i := range payments {
		apiPayments = append(apiPayments, toApiPayment(&payments[i]))
	}

	resp := api.PaymentListResponse{Payments: apiPayments}

	if metadata != nil {
		resp.Metadata = api.Metadata{
			CurrentPage:  metadata.CurrentPage,
			FirstPage:    metadata.FirstPage,
			LastPage:     metadata.LastPage,
			PageSize:     metadata.PageSize,
			TotalRecords: metadata.TotalRecords,
		}
	}

	return resp
}
