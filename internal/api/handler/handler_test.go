package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/localkart/localkart-api/internal/api"
	"github.com/localkart/localkart-api/internal/api/middleware"
	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubPaymentService struct {
	createFn func(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error)
	verifyFn func(ctx context.Context, in ports.VerifyInput) (bool, error)
}

func (s *stubPaymentService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	return s.createFn(ctx, in)
}

func (s *stubPaymentService) VerifySignature(ctx context.Context, in ports.VerifyInput) (bool, error) {
	return s.verifyFn(ctx, in)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())
	return e
}

// serve runs h the way the router would: errors go through the error handler.
func serve(e *echo.Echo, h echo.HandlerFunc, method, target, body string, identity string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != "" {
		middleware.SetIdentity(c, middleware.Identity{UserID: identity})
	}

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}
