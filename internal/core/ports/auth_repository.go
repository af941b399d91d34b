package ports

import (
	"context"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts. Lookups return
// domain.ErrUserNotFound on a miss; Create returns domain.ErrUserExists when a
// uniqueness constraint is violated.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
