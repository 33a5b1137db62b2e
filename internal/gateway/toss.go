// Package gateway implements the payment gateway client. The gateway exposes
// a hosted checkout widget to the browser and a server-side REST API for
// confirming and cancelling charges. All calls here authenticate with the
// private secret key, which must never leave this process.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/robomakers/academy-payment-system/internal/domain"
)

const defaultBaseURL = "https://api.tosspayments.com"

type TossGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewTossGateway(baseURL, secretKey string) *TossGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &TossGateway{
		baseURL:   baseURL,
		secretKey: secretKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type cancelRequest struct {
	CancelReason string `json:"cancelReason"`
	CancelAmount *int64 `json:"cancelAmount,omitempty"`
}

type paymentResponse struct {
	PaymentKey  string    `json:"paymentKey"`
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	Method      *string   `json:"method"`
	TotalAmount int64     `json:"totalAmount"`
	ApprovedAt  time.Time `json:"approvedAt"`
	Cancels     []struct {
		CancelAmount int64     `json:"cancelAmount"`
		CanceledAt   time.Time `json:"canceledAt"`
	} `json:"cancels"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (g *TossGateway) Confirm(
	ctx context.Context,
	paymentKey, orderID string,
	amount int64) (*domain.GatewayConfirmation, error) {

	body := confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	}

	var resp paymentResponse
	err := g.post(ctx, "/v1/payments/confirm", body, &resp)
	if err != nil {
		return nil, err
	}

	return &domain.GatewayConfirmation{
		PaymentKey: resp.PaymentKey,
		OrderID:    resp.OrderID,
		Amount:     resp.TotalAmount,
		Method:     resp.Method,
		ApprovedAt: resp.ApprovedAt,
	}, nil
}

// Cancel reverses amount on a captured payment. The gateway rejects a cancel
// for more than the remaining captured amount.
func (g *TossGateway) Cancel(
	ctx context.Context,
	paymentKey, reason string,
	amount int64) (*domain.GatewayCancellation, error) {

	body := cancelRequest{
		CancelReason: reason,
		CancelAmount: &amount,
	}

	var resp paymentResponse
	err := g.post(ctx, fmt.Sprintf("/v1/payments/%s/cancel", paymentKey), body, &resp)
	if err != nil {
		return nil, err
	}

	cancellation := &domain.GatewayCancellation{
		PaymentKey:   resp.PaymentKey,
		CancelAmount: amount,
	}

	if n := len(resp.Cancels); n > 0 {
		cancellation.CancelAmount = resp.Cancels[n-1].CancelAmount
		cancellation.CancelledAt = resp.Cancels[n-1].CanceledAt
	}

	return cancellation, nil
}

func (g *TossGateway) post(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", g.authorization())

	res, err := g.client.Do(req)
	if err != nil {
		return &domain.GatewayError{
			Code:      "NETWORK_ERROR",
			Message:   err.Error(),
			Transient: true,
		}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			errResp.Code = "UNKNOWN"
			errResp.Message = res.Status
		}

		return &domain.GatewayError{
			Code:      errResp.Code,
			Message:   errResp.Message,
			Transient: res.StatusCode >= 500,
		}
	}

	return json.NewDecoder(res.Body).Decode(dst)
}

// The gateway uses HTTP basic auth with the secret key as username and an
// empty password.
func (g *TossGateway) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(g.secretKey+":"))
}
