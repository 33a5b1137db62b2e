package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robomakers/academy-payment-system/internal/app"
	"github.com/robomakers/academy-payment-system/internal/gateway"
	"github.com/robomakers/academy-payment-system/internal/mailer"
	"github.com/robomakers/academy-payment-system/internal/repository"
	appvalidator "github.com/robomakers/academy-payment-system/internal/validator"
)

type TestApp struct {
	App     *app.Application
	DB      *pgxpool.Pool
	Mailer  *mailer.MockMailer
	Gateway *gateway.StubGateway
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	profileRepo := repository.NewPostgresProfileRepository(db)
	paymentRepo := repository.NewPostgresPaymentRepository(db)
	enrollmentRepo := repository.NewPostgresEnrollmentRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)

	stubGateway := gateway.NewStubGateway()

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		sessionManager,
		profileRepo,
		paymentRepo,
		enrollmentRepo,
		catalogRepo,
		stubGateway,
	)

	return &TestApp{
		App:     application,
		DB:      db,
		Mailer:  mockMailer,
		Gateway: stubGateway,
	}, nil
}
