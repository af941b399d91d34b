package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/pkg/token"
)

const identityKey = "identity"

type identityCtxKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
}

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// Authorize checks an Authorization header value. A missing or malformed
// header yields domain.ErrMissingToken; a token that fails verification or
// carries no user id yields domain.ErrInvalidToken.
func Authorize(verifier TokenVerifier, header string) (Identity, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Identity{}, domain.ErrMissingToken
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return Identity{}, domain.ErrMissingToken
	}

	claims, err := verifier.Verify(raw)
	if err != nil || claims == nil || claims.UserID == "" {
		return Identity{}, domain.ErrInvalidToken
	}
	return Identity{UserID: claims.UserID}, nil
}

// Auth rejects requests without a valid bearer token. On success the identity
// is available through IdentityFrom and IdentityFromContext.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := Authorize(verifier, c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

// SetIdentity stores id on the echo context and on the request context.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), identityCtxKey{}, id)))
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// IdentityFromContext returns the identity stored by Auth in the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok && id.UserID != ""
}
