package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robomakers/academy-payment-system/internal/app"
	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "academy_payments"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

type BaseSuite struct {
	suite.Suite
	app            *TestApp
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	server         *httptest.Server
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	cfg := app.Config{
		Port: 3000,
		Env:  "test",
		DB: app.DBConfig{
			DSN:          postgresContainer.ConnectionString,
			MaxOpenConns: 25,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          redisContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		Gateway: app.GatewayConfig{
			BaseURL:    "https://gateway.test",
			SecretKey:  "test_sk",
			ClientKey:  "test_ck",
			SuccessUrl: "https://academy.test/payment/success",
			FailUrl:    "https://academy.test/payment/fail",
			PartialUrl: "https://academy.test/payment/partial",
		},
	}

	testApp, err := newTestApp(cfg)
	if err != nil {
		log.Printf("cannot initialize app: %s", err)
		return
	}

	s.app = testApp
	s.server = httptest.NewServer(testApp.App.Routes())

	err = s.seedProfilesAndCatalog(ctx)
	if err != nil {
		log.Printf("cannot seed database: %s", err)
	}
}

func (s *BaseSuite) TearDownSuite() {
	s.server.Close()
	if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
	if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

func (s *BaseSuite) seedProfilesAndCatalog(ctx context.Context) error {
	profiles := []struct {
		name     string
		email    string
		password string
		role     domain.Role
	}{
		{TestStudentName, TestStudentEmail, TestStudentPassword, domain.RoleStudent},
		{TestAdminName, TestAdminEmail, TestAdminPassword, domain.RoleAdmin},
	}

	for _, p := range profiles {
		var profile domain.Profile
		if err := profile.Password.Set(p.password); err != nil {
			return err
		}

		_, err := s.app.DB.Exec(ctx,
			"INSERT INTO profiles (name, email, password_hash, role) VALUES ($1, $2, $3, $4)",
			p.name, p.email, profile.Password.Hash, p.role,
		)
		if err != nil {
			return err
		}
	}

	_, err := s.app.DB.Exec(ctx,
		"INSERT INTO curriculums (name, price) VALUES ($1, $2)",
		TestCurriculumName, TestCurriculumPrice,
	)
	if err != nil {
		return err
	}

	_, err = s.app.DB.Exec(ctx,
		"INSERT INTO courses (name, price) VALUES ($1, $2)",
		TestCourseName, TestCoursePrice,
	)

	return err
}

// resetPaymentState clears per-test state while keeping the seeded profiles
// and catalog.
func (s *BaseSuite) resetPaymentState() {
	ctx := context.Background()

	_, err := s.app.DB.Exec(ctx, "TRUNCATE enrollments, payments RESTART IDENTITY")
	require.NoError(s.T(), err)

	s.app.Gateway.Reset()
	s.app.Mailer.Reset()
}

// login authenticates through the real login endpoint and returns the session
// cookie to attach to subsequent requests.
func (s *BaseSuite) login(t testing.TB, email, password string) http.Cookie {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code, "login failed")

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_id" {
			return http.Cookie{Name: cookie.Name, Value: cookie.Value}
		}
	}

	t.Fatal("no session cookie in login response")
	return http.Cookie{}
}

func jsonBody(t testing.TB, v any) io.Reader {
	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	Cookies          []http.Cookie
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		req, err := prepareRequest(s.Method, s.URL, s.Body, s.Headers, s.Cookies)
		require.NoError(t, err)

		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}
