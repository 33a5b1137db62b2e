package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/robomakers/academy-payment-system/internal/middleware"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(middleware.NotFoundHandler)

	r.Use(chimiddleware.RequestID)
	r.Use(otelchi.Middleware("academy-payment-api", otelchi.WithChiRoutes(r)))
	r.Use(app.requestLogger)
	r.Use(middleware.RecoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/health", app.GetHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", app.Login)
		r.Post("/logout", app.Logout)
	})

	r.With(app.requireAuthentication).Route("/checkout", func(r chi.Router) {
		r.Post("/", app.CreateCheckoutHandler)
	})

	r.With(app.requireAuthentication).Route("/payments", func(r chi.Router) {
		r.Post("/approve", app.ApprovePaymentHandler)
		r.Post("/complete", app.CompletePaymentHandler)
		r.Get("/me", app.GetMyPaymentsHandler)

		r.With(app.requireStaff).Post("/{paymentId}/refund", app.RefundPaymentHandler)
	})

	r.With(app.requireAuthentication, app.requireStaff).Route("/admin/payments", func(r chi.Router) {
		r.Get("/", app.GetAllPaymentsHandler)
	})

	return r
}
