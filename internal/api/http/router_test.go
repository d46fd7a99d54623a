package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/salon-token-service/internal/api/http"
	"github.com/spec-kit/salon-token-service/internal/api/http/handlers"
	"github.com/spec-kit/salon-token-service/internal/auth"
	"github.com/spec-kit/salon-token-service/internal/config"
	"github.com/spec-kit/salon-token-service/internal/domain"
	"github.com/spec-kit/salon-token-service/internal/events"
	"github.com/spec-kit/salon-token-service/internal/observability"
	"github.com/spec-kit/salon-token-service/internal/persistence"
	"github.com/spec-kit/salon-token-service/internal/repository"
	"github.com/spec-kit/salon-token-service/internal/service"
)

type testServer struct {
	app *fiber.App
	otp *service.OTPService
}

func newTestServer(t *testing.T, otpRequired bool) *testServer {
	t.Helper()

	queues := domain.NewQueueSet([]string{"male", "female"}, map[string][]string{
		"male":   {"Haircut", "Beard Trim", "Head Massage"},
		"female": {"Haircut", "Facial", "Manicure"},
	})
	logger := zap.NewNop()

	otpService := service.NewOTPService(config.OTPConfig{
		Required:           otpRequired,
		CodeTTLSeconds:     300,
		VerifiedTTLSeconds: 600,
		DevExposeCode:      true,
	}, repository.NewMemoryOTPStore(), logger)

	queueService := service.NewQueueService(service.QueueDependencies{
		Store:      repository.NewMemoryTokenStore(queues),
		Queues:     queues,
		OTP:        otpService,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	admins := repository.NewMemoryAdminRepository()
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, admins, logger)
	if err := authService.EnsureBootstrapAdmin(context.Background(), "admin", "changeme"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	app := fiber.New()
	apihttp.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	apihttp.RegisterRoutes(app, apihttp.RouteConfig{
		Health:         handlers.NewHealthHandler("salon-token-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Tokens:         handlers.NewTokensHandler(queueService),
		Queues:         handlers.NewQueuesHandler(queueService),
		Auth:           handlers.NewAuthHandler(authService),
		OTP:            handlers.NewOTPHandler(otpService),
		Services:       handlers.NewServicesHandler(queues),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), admins),
	})
	return &testServer{app: app, otp: otpService}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var payload map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp, payload
}

func (s *testServer) login(t *testing.T) map[string]string {
	t.Helper()
	resp, payload := s.do(t, fiber.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "changeme",
	}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, payload)
	}
	token := payload["data"].(map[string]any)["token"].(string)
	return map[string]string{"Authorization": "Bearer " + token}
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %v", payload)
	}
	return errObj["code"].(string)
}

func tokenData(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data envelope in %v", payload)
	}
	return data
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t, false)
	resp, payload := srv.do(t, fiber.MethodGet, "/health/live", nil, nil)
	if resp.StatusCode != fiber.StatusOK || payload["status"] != "alive" {
		t.Fatalf("status = %d, payload %v", resp.StatusCode, payload)
	}
}

func TestSubmitAndFetchToken(t *testing.T) {
	srv := newTestServer(t, false)

	resp, payload := srv.do(t, fiber.MethodPost, "/api/tokens", map[string]string{
		"queue": "male", "service": "Haircut", "name": "Asha", "mobile": "9876543210",
	}, nil)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("submit status = %d, body %v", resp.StatusCode, payload)
	}
	data := tokenData(t, payload)
	if data["display_code"] != "M1" || data["status"] != "waiting" {
		t.Fatalf("submitted token = %v", data)
	}

	resp, payload = srv.do(t, fiber.MethodGet, "/api/tokens/"+data["id"].(string), nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got := tokenData(t, payload); got["id"] != data["id"] || got["mobile"] != "9876543210" {
		t.Fatalf("fetched token = %v", got)
	}
}

func TestSubmitTokenRejectsBadPayloads(t *testing.T) {
	srv := newTestServer(t, false)

	cases := []map[string]string{
		{"queue": "male", "service": "Haircut", "name": "Asha", "mobile": "12345"},
		{"queue": "kids", "service": "Haircut", "name": "Asha", "mobile": "9876543210"},
		{"queue": "male", "service": "Facial", "name": "Asha", "mobile": "9876543210"},
	}
	for _, body := range cases {
		resp, payload := srv.do(t, fiber.MethodPost, "/api/tokens", body, nil)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("body %v: status = %d", body, resp.StatusCode)
		}
		if code := errorCode(t, payload); code != "VALIDATION_FAILED" {
			t.Fatalf("body %v: code = %q", body, code)
		}
	}
}

func TestGetUnknownToken(t *testing.T) {
	srv := newTestServer(t, false)
	resp, payload := srv.do(t, fiber.MethodGet, "/api/tokens/2b1f0c9e-0000-0000-0000-000000000000", nil, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "NOT_FOUND" {
		t.Fatalf("code = %q", code)
	}
}

func TestServeEndpointsRequireAuth(t *testing.T) {
	srv := newTestServer(t, false)

	resp, payload := srv.do(t, fiber.MethodPost, "/api/queues/male/serve-next", nil, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("serve-next unauthenticated status = %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "UNAUTHORIZED" {
		t.Fatalf("code = %q", code)
	}

	resp, _ = srv.do(t, fiber.MethodPost, "/api/tokens/some-id/serve", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("garbage bearer status = %d", resp.StatusCode)
	}
}

func TestAdminServeFlow(t *testing.T) {
	srv := newTestServer(t, false)
	headers := srv.login(t)

	// Nothing waiting yet.
	resp, _ := srv.do(t, fiber.MethodPost, "/api/queues/male/serve-next", nil, headers)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("empty serve-next status = %d, want 204", resp.StatusCode)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		_, payload := srv.do(t, fiber.MethodPost, "/api/tokens", map[string]string{
			"queue": "male", "service": "Haircut", "name": fmt.Sprintf("Customer %d", i+1), "mobile": "9876543210",
		}, nil)
		ids = append(ids, tokenData(t, payload)["id"].(string))
	}

	resp, payload := srv.do(t, fiber.MethodPost, "/api/queues/male/serve-next", nil, headers)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("serve-next status = %d", resp.StatusCode)
	}
	if data := tokenData(t, payload); data["id"] != ids[0] || data["status"] != "serving" {
		t.Fatalf("served token = %v, want first submission serving", data)
	}

	resp, payload = srv.do(t, fiber.MethodGet, "/api/queues/male/serving", nil, nil)
	if resp.StatusCode != fiber.StatusOK || tokenData(t, payload)["id"] != ids[0] {
		t.Fatalf("serving board = %d %v", resp.StatusCode, payload)
	}

	// Jump to the third token directly.
	resp, payload = srv.do(t, fiber.MethodPost, "/api/tokens/"+ids[2]+"/serve", nil, headers)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("serve specific status = %d", resp.StatusCode)
	}
	if data := tokenData(t, payload); data["display_code"] != "M3" {
		t.Fatalf("served token = %v", data)
	}

	// The first token was demoted to served; it cannot be served again.
	resp, payload = srv.do(t, fiber.MethodPost, "/api/tokens/"+ids[0]+"/serve", nil, headers)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("re-serve status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "INVALID_TRANSITION" {
		t.Fatalf("code = %q", code)
	}

	// Token two is still the only one waiting.
	resp, payload = srv.do(t, fiber.MethodGet, "/api/queues/male/waiting", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("waiting status = %d", resp.StatusCode)
	}
	items := payload["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != ids[1] {
		t.Fatalf("waiting = %v", items)
	}

	// Recent shows the latest issued regardless of its state.
	resp, payload = srv.do(t, fiber.MethodGet, "/api/queues/male/recent", nil, nil)
	if resp.StatusCode != fiber.StatusOK || tokenData(t, payload)["id"] != ids[2] {
		t.Fatalf("recent = %d %v", resp.StatusCode, payload)
	}
}

func TestQueueBoardsEmptyAndUnknown(t *testing.T) {
	srv := newTestServer(t, false)

	resp, _ := srv.do(t, fiber.MethodGet, "/api/queues/female/serving", nil, nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("empty serving status = %d, want 204", resp.StatusCode)
	}
	resp, _ = srv.do(t, fiber.MethodGet, "/api/queues/female/recent", nil, nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("empty recent status = %d, want 204", resp.StatusCode)
	}

	resp, payload := srv.do(t, fiber.MethodGet, "/api/queues/kids/waiting", nil, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unknown queue status = %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q", code)
	}
}

func TestServicesCatalog(t *testing.T) {
	srv := newTestServer(t, false)

	resp, payload := srv.do(t, fiber.MethodGet, "/api/services?queue=female", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	services := payload["data"].([]any)
	if len(services) != 3 || services[1] != "Facial" {
		t.Fatalf("female services = %v", services)
	}

	resp, payload = srv.do(t, fiber.MethodGet, "/api/services", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	catalog := payload["data"].(map[string]any)
	if len(catalog) != 2 {
		t.Fatalf("catalog = %v", catalog)
	}

	resp, _ = srv.do(t, fiber.MethodGet, "/api/services?queue=kids", nil, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unknown queue status = %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, false)

	resp, payload := srv.do(t, fiber.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	}, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "UNAUTHORIZED" {
		t.Fatalf("code = %q", code)
	}
}

func TestOTPGateOverHTTP(t *testing.T) {
	srv := newTestServer(t, true)

	submission := map[string]string{
		"queue": "female", "service": "Facial", "name": "Priya", "mobile": "9000000001",
	}
	resp, payload := srv.do(t, fiber.MethodPost, "/api/tokens", submission, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unverified submit status = %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q", code)
	}

	resp, payload = srv.do(t, fiber.MethodPost, "/api/otp/send", map[string]string{"mobile": "9000000001"}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("otp send status = %d", resp.StatusCode)
	}
	code := tokenData(t, payload)["code"].(string)

	resp, _ = srv.do(t, fiber.MethodPost, "/api/otp/verify", map[string]string{
		"mobile": "9000000001", "code": code,
	}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("otp verify status = %d", resp.StatusCode)
	}

	resp, payload = srv.do(t, fiber.MethodPost, "/api/tokens", submission, nil)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("verified submit status = %d, body %v", resp.StatusCode, payload)
	}
	if data := tokenData(t, payload); data["display_code"] != "F1" {
		t.Fatalf("token = %v", data)
	}
}
