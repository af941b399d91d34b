package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// UserLookup resolves an authenticated identity to its account.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// RequireRole allows the request only when the caller's stored role is one of
// roles. It must run after Auth. Roles are read from the store, not the token.
func RequireRole(users UserLookup, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrMissingToken
			}

			user, err := users.FindByID(c.Request().Context(), id.UserID)
			if err != nil {
				// The token outlived its account.
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrForbidden
				}
				return fmt.Errorf("require role: %w", err)
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
