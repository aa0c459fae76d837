package ports

import (
	"context"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
)

// AuthService is the authentication collaborator: it issues the verified
// identity every other operation trusts.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Me returns the user with the membership projection filled in.
	Me(ctx context.Context, userID string) (*domain.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}
