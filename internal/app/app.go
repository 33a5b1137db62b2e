package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/robomakers/academy-payment-system/internal/gateway"
	"github.com/robomakers/academy-payment-system/internal/mailer"
	"github.com/robomakers/academy-payment-system/internal/repository"
	appvalidator "github.com/robomakers/academy-payment-system/internal/validator"
	"github.com/robomakers/academy-payment-system/internal/vcs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	version = vcs.Version()
)

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager

	profileRepo    domain.ProfileRepository
	paymentRepo    domain.PaymentRepository
	enrollmentRepo domain.EnrollmentRepository
	catalogRepo    domain.CatalogRepository

	gateway domain.PaymentGateway

	paymentsCompleted metric.Int64Counter
	refundsIssued     metric.Int64Counter
}

type Config struct {
	Port             int
	Env              string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Gateway          GatewayConfig
	OtelCollectorUrl string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type GatewayConfig struct {
	BaseURL    string
	SecretKey  string
	ClientKey  string
	SuccessUrl string
	FailUrl    string
	// PartialUrl is the same-origin route that re-enters checkout for the
	// remaining balance after a partial refund.
	PartialUrl string
}

func Run() error {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", "RoboMakers Academy <no-reply@robomakers.academy>", "SMTP sender")

	flag.StringVar(&cfg.Gateway.BaseURL, "gateway-url", "https://api.tosspayments.com", "Payment gateway API base URL")
	flag.StringVar(&cfg.Gateway.SecretKey, "gateway-secret-key", "", "Payment gateway secret key (server-side only)")
	flag.StringVar(&cfg.Gateway.ClientKey, "gateway-client-key", "", "Payment gateway client key for the checkout widget")
	flag.StringVar(&cfg.Gateway.SuccessUrl, "checkout-success-url", "https://robomakers.academy/payment/success", "Checkout widget success redirect URL")
	flag.StringVar(&cfg.Gateway.FailUrl, "checkout-fail-url", "https://robomakers.academy/payment/fail", "Checkout widget failure redirect URL")
	flag.StringVar(&cfg.Gateway.PartialUrl, "checkout-partial-url", "https://robomakers.academy/payment/partial", "Remaining balance checkout URL")

	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	profileRepo := repository.NewPostgresProfileRepository(db)
	paymentRepo := repository.NewPostgresPaymentRepository(db)
	enrollmentRepo := repository.NewPostgresEnrollmentRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)

	paymentGateway := gateway.NewTossGateway(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey)

	app := NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		NewSessionManager(redisClient),
		profileRepo,
		paymentRepo,
		enrollmentRepo,
		catalogRepo,
		paymentGateway,
	)

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	mailer mailer.Mailer,
	sessionManager *scs.SessionManager,
	profileRepo domain.ProfileRepository,
	paymentRepo domain.PaymentRepository,
	enrollmentRepo domain.EnrollmentRepository,
	catalogRepo domain.CatalogRepository,
	paymentGateway domain.PaymentGateway) *Application {

	app := &Application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      validator,
		mailer:         mailer,
		sessionManager: sessionManager,
		profileRepo:    profileRepo,
		paymentRepo:    paymentRepo,
		enrollmentRepo: enrollmentRepo,
		catalogRepo:    catalogRepo,
		gateway:        paymentGateway,
	}

	meter := otel.Meter("github.com/robomakers/academy-payment-system")

	var err error

	app.paymentsCompleted, err = meter.Int64Counter(
		"payments.completed",
		metric.WithDescription("Number of payments confirmed against the gateway"),
	)
	if err != nil {
		logger.Error("failed to create payments.completed counter", "error", err)
	}

	app.refundsIssued, err = meter.Int64Counter(
		"refunds.issued",
		metric.WithDescription("Number of gateway cancellations issued by the refund orchestrator"),
	)
	if err != nil {
		logger.Error("failed to create refunds.issued counter", "error", err)
	}

	return app
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
