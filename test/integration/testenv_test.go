package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propfolio/propfolio/internal/billing"
	"github.com/propfolio/propfolio/internal/http/handler"
	"github.com/propfolio/propfolio/internal/http/router"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/security"
	"github.com/propfolio/propfolio/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fakeProcessor struct {
	createCalls int
	cancelCalls int
	refundCalls int
}

func (f *fakeProcessor) CreateIntent(_ context.Context, req billing.IntentRequest) (*billing.Intent, error) {
	f.createCalls++
	return &billing.Intent{
		ID:           fmt.Sprintf("pi_int_%d", f.createCalls),
		ClientSecret: fmt.Sprintf("pi_int_%d_secret", f.createCalls),
	}, nil
}

func (f *fakeProcessor) CancelIntent(_ context.Context, id string) error {
	f.cancelCalls++
	return nil
}

func (f *fakeProcessor) Refund(_ context.Context, id string) error {
	f.refundCalls++
	return nil
}

type testEnv struct {
	baseURL   string
	client    *http.Client
	processor *fakeProcessor
	closeFn   func()
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tenancyRepo := repository.NewTenancyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtManager := security.NewJWTManager("propfolio-test", "propfolio-api", "integration-test-secret-32bytes!")
	sessionService := service.NewSessionService(sessionRepo, "integration-pepper", 24*time.Hour)
	authService := service.NewAuthService(userRepo, sessionService, jwtManager, 15*time.Minute)

	processor := &fakeProcessor{}
	paymentService := service.NewPaymentService(
		paymentRepo, tenancyRepo, notificationRepo,
		processor,
		service.NewRedisIdempotencyStore(redisClient, "test:idem"),
		time.Hour, "usd", newTestLogger(),
	)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, sessionService),
		UserHandler:         handler.NewUserHandler(userRepo, sessionService),
		PaymentHandler:      handler.NewPaymentHandler(paymentService),
		TenancyHandler:      handler.NewTenancyHandler(tenancyRepo),
		NotificationHandler: handler.NewNotificationHandler(notificationRepo),
		JWTManager:          jwtManager,
		CORSOrigins:         []string{"http://localhost"},
		APIRateLimitRPM:     10000,
		AuthRateLimitRPM:    10000,
	})

	server := httptest.NewServer(h)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	return &testEnv{
		baseURL:   server.URL,
		client:    client,
		processor: processor,
		closeFn:   server.Close,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope for %s %s: %v", method, url, err)
	}
	return resp, env
}

func cookieValue(t *testing.T, client *http.Client, baseURL, name string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL, nil)
	if err != nil {
		t.Fatalf("build cookie probe: %v", err)
	}
	for _, c := range client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not found", name)
	return ""
}

func registerUser(t *testing.T, env *testEnv, email string) {
	t.Helper()
	resp, e := doJSON(t, env.client, http.MethodPost, env.baseURL+"/api/v1/auth/register", map[string]string{
		"email":    email,
		"name":     "Integration User",
		"password": "Valid#Pass1234",
	}, nil)
	if resp.StatusCode != http.StatusCreated || !e.Success {
		t.Fatalf("register failed: status=%d success=%v", resp.StatusCode, e.Success)
	}
}
