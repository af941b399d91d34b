package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/localkart/localkart-api/internal/api/handler"
	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
	"github.com/localkart/localkart-api/internal/core/service"
	"github.com/localkart/localkart-api/internal/pkg/token"
	"github.com/localkart/localkart-api/internal/pkg/token/tokentest"
	"github.com/localkart/localkart-api/internal/pkg/validation"
)

type memoryUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	seq  int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]*domain.User)}
}

func (m *memoryUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	m.seq++
	stored := *u
	stored.ID = fmt.Sprintf("u%d", m.seq)
	m.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

type fakeGateway struct{}

func (fakeGateway) CreateOrder(_ context.Context, req ports.GatewayOrderRequest) (*domain.PaymentOrder, error) {
	return &domain.PaymentOrder{ID: "order_e2e", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
}

const testKeySecret = "rzp_secret"

func newTestRouter(t *testing.T) (*echo.Echo, *memoryUsers) {
	t.Helper()
	users := newMemoryUsers()
	tokens := token.NewManager("test-secret")
	v := validation.New()
	log := zerolog.Nop()

	authSvc := service.NewAuthService(users, tokens, v, nil, log)
	paymentSvc := service.NewPaymentService(fakeGateway{}, nil, v, nil, service.PaymentConfig{
		KeyID:     "rzp_key",
		KeySecret: testKeySecret,
	}, log)
	checks := map[string]handler.HealthCheck{
		"mongodb": func(context.Context) error { return nil },
	}

	e := NewRouter(Dependencies{
		Users:        users,
		Tokens:       tokens,
		Auth:         authSvc,
		Payments:     paymentSvc,
		Validator:    v,
		HealthChecks: checks,
		Log:          log,
		Registry:     prometheus.NewRegistry(),
	})
	return e, users
}

func do(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, e *echo.Echo, username, role string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","username":%q,"email":"%s@example.com","dob":"1990-05-01","password":"pass123","role":%q}`, username, username, role)
	if rec := do(e, http.MethodPost, "/auth/signup", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := do(e, http.MethodPost, "/auth/login", fmt.Sprintf(`{"username":%q,"password":"pass123"}`, username), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login: no token in %s", rec.Body.String())
	}
	return resp.Token
}

func TestRouter_EndToEndAuthFlow(t *testing.T) {
	e, _ := newTestRouter(t)

	tok := signupAndLogin(t, e, "asha", domain.RoleClient)

	rec := do(e, http.MethodGet, "/auth/me", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"asha"`) {
		t.Fatalf("me: unexpected body %s", rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/auth/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: expected 401, got %d", rec.Code)
	}

	if rec := do(e, http.MethodGet, "/auth/me", "", tokentest.Tamper(tok)); rec.Code != http.StatusForbidden {
		t.Fatalf("tampered token: expected 403, got %d", rec.Code)
	}
}

func TestRouter_SignupConflictAndLoginFailures(t *testing.T) {
	e, _ := newTestRouter(t)
	signupAndLogin(t, e, "asha", domain.RoleProvider)

	body := `{"name":"Other","username":"asha2","email":"asha@example.com","dob":"1990-05-01","password":"x","role":"client"}`
	rec := do(e, http.MethodPost, "/auth/signup", body, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "user already exists") {
		t.Fatalf("duplicate signup: got %d %s", rec.Code, rec.Body.String())
	}

	wrong := do(e, http.MethodPost, "/auth/login", `{"username":"asha","password":"nope"}`, "")
	unknown := do(e, http.MethodPost, "/auth/login", `{"username":"ghost","password":"pass123"}`, "")
	if wrong.Code != http.StatusBadRequest || unknown.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for both failures, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures are distinguishable: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestRouter_SignupSameUsernameNewEmail(t *testing.T) {
	e, users := newTestRouter(t)
	signupAndLogin(t, e, "asha", domain.RoleClient)

	body := `{"name":"Asha Two","username":"asha","email":"asha.two@example.com","dob":"1991-02-03","password":"other","role":"provider"}`
	if rec := do(e, http.MethodPost, "/auth/signup", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a new email, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(users.byID) != 2 {
		t.Fatalf("expected two stored users, got %d", len(users.byID))
	}
}

func TestRouter_SignupRejectsAdminRole(t *testing.T) {
	e, users := newTestRouter(t)

	body := `{"name":"Root","username":"root","email":"root@example.com","dob":"1990-05-01","password":"x","role":"admin"}`
	if rec := do(e, http.MethodPost, "/auth/signup", body, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(users.byID) != 0 {
		t.Fatalf("admin self-registration must not be stored")
	}
}

func TestRouter_PaymentFlow(t *testing.T) {
	e, _ := newTestRouter(t)

	if rec := do(e, http.MethodPost, "/payment/order", `{"amount":10}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated order: expected 401, got %d", rec.Code)
	}

	tok := signupAndLogin(t, e, "asha", domain.RoleClient)

	rec := do(e, http.MethodPost, "/payment/order", `{"amount":10.005}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"amount":1001`) || !strings.Contains(rec.Body.String(), `"orderId":"order_e2e"`) {
		t.Fatalf("order: unexpected body %s", rec.Body.String())
	}

	if rec := do(e, http.MethodPost, "/payment/order", `{"amount":"abc"}`, tok); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: expected 400, got %d", rec.Code)
	}

	sig := service.Sign(testKeySecret, "order_e2e", "pay_1")
	good := fmt.Sprintf(`{"razorpay_order_id":"order_e2e","razorpay_payment_id":"pay_1","razorpay_signature":%q}`, sig)
	if rec := do(e, http.MethodPost, "/payment/verify", good, tok); rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	bad := `{"razorpay_order_id":"order_e2e","razorpay_payment_id":"pay_1","razorpay_signature":"deadbeef"}`
	rec = do(e, http.MethodPost, "/payment/verify", bad, tok)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid signature") {
		t.Fatalf("verify mismatch: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminRoute(t *testing.T) {
	e, users := newTestRouter(t)
	clientTok := signupAndLogin(t, e, "asha", domain.RoleClient)

	if err := service.EnsureAdmin(context.Background(), users, ports.AdminSeed{
		Username: "root", Email: "root@example.com", Password: "rootpass",
	}, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	rec := do(e, http.MethodPost, "/auth/login", `{"username":"root","password":"rootpass"}`, "")
	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	client, _ := users.FindByUsername(context.Background(), "asha")

	if rec := do(e, http.MethodGet, "/admin/users/"+client.ID, "", clientTok); rec.Code != http.StatusForbidden {
		t.Fatalf("client on admin route: expected 403, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/admin/users/"+client.ID, "", resp.Token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"asha"`) {
		t.Fatalf("admin lookup: got %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/admin/users/missing", "", resp.Token); rec.Code != http.StatusNotFound {
		t.Fatalf("missing user: expected 404, got %d", rec.Code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	e, _ := newTestRouter(t)

	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}

	do(e, http.MethodGet, "/health", "", "")
	rec := do(e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "localkart_requests_total") {
		t.Fatalf("metrics: got %d", rec.Code)
	}

	if rec := do(e, http.MethodGet, "/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", rec.Code)
	}
}
