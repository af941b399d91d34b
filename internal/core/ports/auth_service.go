package ports

import (
	"context"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// RegisterInput carries the signup form. Role is limited to self-assignable roles.
type RegisterInput struct {
	Name      string `validate:"required"`
	Username  string `validate:"required"`
	Email     string `validate:"required"`
	DOB       string `validate:"required"`
	Password  string `validate:"required"`
	Role      string `validate:"required,oneof=client provider"`
	RequestID string
}

// AdminSeed describes the bootstrap administrator. Empty Email or Password
// disables seeding.
type AdminSeed struct {
	Name     string
	Username string
	Email    string
	Password string
	DOB      string
}

// TokenIssuer mints session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
