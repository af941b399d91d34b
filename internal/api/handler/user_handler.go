package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// UserReader is the read side of the user store.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// UserHandler serves administrative user lookups.
type UserHandler struct {
	users UserReader
}

func NewUserHandler(users UserReader) *UserHandler {
	return &UserHandler{users: users}
}

// GetByID returns the public view of any account.
//
// @Summary      Get user by id
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.PublicUser
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	user, err := h.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}
