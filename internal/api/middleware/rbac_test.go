package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/core/domain"
)

type stubLookup map[string]*domain.User

func (s stubLookup) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func runRequireRole(t *testing.T, users UserLookup, id *Identity, roles ...string) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if id != nil {
		SetIdentity(c, *id)
	}

	called := false
	err := RequireRole(users, roles...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequireRole(t *testing.T) {
	users := stubLookup{
		"admin-1":  {ID: "admin-1", Role: domain.RoleAdmin},
		"client-1": {ID: "client-1", Role: domain.RoleClient},
	}

	called, err := runRequireRole(t, users, &Identity{UserID: "admin-1"}, domain.RoleAdmin)
	if err != nil || !called {
		t.Fatalf("expected admin to pass, called=%v err=%v", called, err)
	}

	called, err = runRequireRole(t, users, &Identity{UserID: "client-1"}, domain.RoleAdmin)
	if called || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for client, called=%v err=%v", called, err)
	}

	called, err = runRequireRole(t, users, &Identity{UserID: "deleted"}, domain.RoleAdmin)
	if called || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown user, called=%v err=%v", called, err)
	}

	called, err = runRequireRole(t, users, nil, domain.RoleAdmin)
	if called || !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken without identity, called=%v err=%v", called, err)
	}
}
