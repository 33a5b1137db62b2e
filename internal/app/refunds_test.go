package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/robomakers/academy-payment-system/api"
	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/robomakers/academy-payment-system/internal/mailer"
	"github.com/robomakers/academy-payment-system/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const staffUserId = 2

type RefundPaymentTestSuite struct {
	suite.Suite
	app            *Application
	paymentRepo    *mocks.MockPaymentRepo
	enrollmentRepo *mocks.MockEnrollmentRepo
	profileRepo    *mocks.MockProfileRepo
	catalogRepo    *mocks.MockCatalogRepo
	gateway        *mocks.MockPaymentGateway
	sessionManager *scs.SessionManager
}

func (s *RefundPaymentTestSuite) SetupTest() {
	s.paymentRepo = new(mocks.MockPaymentRepo)
	s.enrollmentRepo = new(mocks.MockEnrollmentRepo)
	s.profileRepo = new(mocks.MockProfileRepo)
	s.catalogRepo = new(mocks.MockCatalogRepo)
	s.gateway = new(mocks.MockPaymentGateway)
	s.sessionManager = scs.New()

	s.app = newTestApplication(func(a *Application) {
		a.paymentRepo = s.paymentRepo
		a.enrollmentRepo = s.enrollmentRepo
		a.profileRepo = s.profileRepo
		a.catalogRepo = s.catalogRepo
		a.gateway = s.gateway
		a.sessionManager = s.sessionManager
	})

	s.profileRepo.On("GetByID", mock.Anything, staffUserId).
		Return(&domain.Profile{ID: staffUserId, Email: "staff@robomakers.academy", Role: domain.RoleAdmin}, nil).Once()

	// The balance-due mail goroutine loads the customer's profile.
	s.profileRepo.On("GetByID", mock.Anything, 1).
		Return(&domain.Profile{ID: 1, Email: "student@robomakers.academy"}, nil).Maybe()
}

func TestRefundPaymentSuite(t *testing.T) {
	suite.Run(t, new(RefundPaymentTestSuite))
}

func (s *RefundPaymentTestSuite) serveRefund(w http.ResponseWriter, r *http.Request) {
	router := chi.NewRouter()
	router.With(s.app.requireAuthentication, s.app.requireStaff).
		Post("/payments/{paymentId}/refund", s.app.RefundPaymentHandler)

	s.app.sessionManager.LoadAndSave(router).ServeHTTP(w, r)
}

func (s *RefundPaymentTestSuite) TestRefundPaymentHandler() {
	stored := func() *domain.Payment {
		return &domain.Payment{
			ID:           10,
			UserID:       1,
			OrderID:      "order_1718000000000_a1b2c3",
			Amount:       100000,
			Status:       domain.PaymentStatusCompleted,
			PaymentKey:   "tgen_key_abc",
			Settlement:   domain.SettlementOpen,
			CurriculumID: ptr(7),
		}
	}

	tests := []struct {
		name           string
		body           api.RefundPaymentRequest
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
		checkResponse  func(resp api.RefundPaymentResponse)
	}{
		{
			name:           "should fail when refund type is missing",
			body:           api.RefundPaymentRequest{Amount: 1000},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "should fail when refund type is unknown",
			body:           api.RefundPaymentRequest{Type: "chargeback"},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be either 'full' or 'partial'",
		},
		{
			name: "should return 404 when the payment does not exist",
			body: api.RefundPaymentRequest{Type: "full"},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).
					Return(nil, domain.ErrRecordNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should reject a partial refund without an amount",
			body: api.RefundPaymentRequest{Type: "partial"},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(stored(), nil).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "should reject a partial refund equal to the remaining amount",
			body: api.RefundPaymentRequest{Type: "partial", Amount: 100000},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(stored(), nil).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "partial refund amount must be between 1 and 99999; use a full refund to return the whole remaining amount",
		},
		{
			name: "should accept a partial refund one unit under the remaining amount",
			body: api.RefundPaymentRequest{Type: "partial", Amount: 99999},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(stored(), nil).Once()
				s.gateway.On("Cancel", mock.Anything, "tgen_key_abc", defaultCancelReason, int64(100000)).
					Return(&domain.GatewayCancellation{PaymentKey: "tgen_key_abc", CancelAmount: 100000}, nil).Once()

				updated := stored()
				updated.Status = domain.PaymentStatusCancelled
				updated.RefundedAmount = 99999
				updated.Settlement = domain.SettlementPartiallyRefunded

				s.paymentRepo.On("ApplyRefund", mock.Anything, 10, int64(99999), domain.SettlementPartiallyRefunded).
					Return(updated, nil).Once()
				s.catalogRepo.On("GetCurriculumByID", mock.Anything, 7).
					Return(&domain.Curriculum{ID: 7, Name: "Robotics Foundations"}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(resp api.RefundPaymentResponse) {
				s.Equal(int64(99999), resp.RefundedAmount)
				s.Equal(int64(1), resp.RemainingAmount)
				s.Contains(resp.RepaymentUrl, "https://robomakers.academy/payment/partial?")
				s.Contains(resp.RepaymentUrl, "amount=1")
				s.Contains(resp.RepaymentUrl, "userId=1")
				s.Contains(resp.RepaymentUrl, "curriculumId=7")
				s.Contains(resp.RepaymentUrl, "originalPaymentId=10")

				// the balance-due mail goes out on a background goroutine
				mockMailer := s.app.mailer.(*mailer.MockMailer)
				s.Eventually(func() bool {
					mails := mockMailer.SentTo("student@robomakers.academy")
					return len(mails) == 1 && mails[0].TemplateFile == "balance_due.tmpl"
				}, time.Second, 10*time.Millisecond)
			},
		},
		{
			name: "should cancel the whole capture and delete the enrollment on a full refund",
			body: api.RefundPaymentRequest{Type: "full", Reason: "course cancelled"},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(stored(), nil).Once()
				s.gateway.On("Cancel", mock.Anything, "tgen_key_abc", "course cancelled", int64(100000)).
					Return(&domain.GatewayCancellation{PaymentKey: "tgen_key_abc", CancelAmount: 100000}, nil).Once()

				updated := stored()
				updated.Status = domain.PaymentStatusCancelled
				updated.RefundedAmount = 100000
				updated.Settlement = domain.SettlementFullyRefunded

				s.paymentRepo.On("ApplyRefund", mock.Anything, 10, int64(100000), domain.SettlementFullyRefunded).
					Return(updated, nil).Once()
				s.enrollmentRepo.On("Delete", mock.Anything, 1, ptr(7), (*int)(nil)).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(resp api.RefundPaymentResponse) {
				s.Equal(int64(100000), resp.RefundedAmount)
				s.Empty(resp.RepaymentUrl)
				s.Equal("fully_refunded", resp.Payment.Settlement)
			},
		},
		{
			name: "should return 409 when nothing is left to refund",
			body: api.RefundPaymentRequest{Type: "full"},
			setupMocks: func() {
				drained := stored()
				drained.RefundedAmount = 100000
				drained.Settlement = domain.SettlementFullyRefunded

				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(drained, nil).Once()
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrNotRefundable.Error(),
		},
		{
			name: "should return 502 and leave the record untouched when the gateway cancel fails",
			body: api.RefundPaymentRequest{Type: "full"},
			setupMocks: func() {
				s.paymentRepo.On("GetByID", mock.Anything, 10).Return(stored(), nil).Once()
				s.gateway.On("Cancel", mock.Anything, "tgen_key_abc", defaultCancelReason, int64(100000)).
					Return(nil, &domain.GatewayError{Code: "PROVIDER_ERROR", Message: "internal error", Transient: true}).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.paymentRepo.AssertExpectations(s.T())
			defer s.enrollmentRepo.AssertExpectations(s.T())
			defer s.gateway.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/payments/10/refund", tt.body)
			r = setupTestSession(s.T(), s.app, r, staffUserId)

			s.serveRefund(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus != http.StatusOK {
				s.paymentRepo.AssertNotCalled(s.T(), "ApplyRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				s.enrollmentRepo.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}

			if tt.checkResponse != nil {
				var response api.RefundPaymentResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				s.Require().NoError(err, "Failed to decode response")

				s.True(response.Success)
				tt.checkResponse(response)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

// Refund bounds are always computed from the stored record, so a second
// partial refund may only go up to what is actually left.
func (s *RefundPaymentTestSuite) TestPartialRefundBoundsTrackRemainingAmount() {
	s.SetupTest()

	defer s.paymentRepo.AssertExpectations(s.T())
	defer s.gateway.AssertExpectations(s.T())

	partiallyRefunded := &domain.Payment{
		ID:             10,
		UserID:         1,
		OrderID:        "order_1718000000000_a1b2c3",
		Amount:         100000,
		Status:         domain.PaymentStatusCancelled,
		PaymentKey:     "tgen_key_abc",
		RefundedAmount: 70000,
		Settlement:     domain.SettlementPartiallyRefunded,
	}

	s.paymentRepo.On("GetByID", mock.Anything, 10).Return(partiallyRefunded, nil).Once()

	body := api.RefundPaymentRequest{Type: "partial", Amount: 30000}

	w, r := executeRequest(s.T(), http.MethodPost, "/payments/10/refund", body)
	r = setupTestSession(s.T(), s.app, r, staffUserId)

	s.serveRefund(w, r)

	s.Equal(http.StatusBadRequest, w.Code)
	s.gateway.AssertNotCalled(s.T(), "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	var errResp api.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&errResp))
	s.Equal(fmt.Sprintf("partial refund amount must be between 1 and %d; use a full refund to return the whole remaining amount", 29999), errResp.Message)
}

func (s *RefundPaymentTestSuite) TestRefundRequiresStaffRole() {
	s.SetupTest()

	s.profileRepo.ExpectedCalls = nil
	s.profileRepo.On("GetByID", mock.Anything, 1).
		Return(&domain.Profile{ID: 1, Email: "student@robomakers.academy", Role: domain.RoleStudent}, nil).Once()

	body := api.RefundPaymentRequest{Type: "full"}

	w, r := executeRequest(s.T(), http.MethodPost, "/payments/10/refund", body)
	r = setupTestSession(s.T(), s.app, r, 1)

	s.serveRefund(w, r)

	s.Equal(http.StatusForbidden, w.Code)
	s.paymentRepo.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything)
}
