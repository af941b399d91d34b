package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/api/middleware"
	"github.com/localkart/localkart-api/internal/core/domain"
)

// currentUserID returns the identity injected by the Auth middleware. A
// protected route reached without it is treated as unauthenticated.
func currentUserID(c echo.Context) (string, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return "", domain.ErrMissingToken
	}
	return id.UserID, nil
}

// requestID returns the id assigned by the RequestID middleware.
func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
