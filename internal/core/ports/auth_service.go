package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// RegisterInput carries the fields for creating a user account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// TokenClaims is the decoded payload of a verified token. Callers re-resolve
// the user by id so role changes take effect without waiting for expiry.
type TokenClaims struct {
	UserID string
	Role   string
}

// AuthService implements credential verification and token handling.
type AuthService interface {
	// Login verifies email/password and returns a signed token. Unknown email
	// and wrong password produce the identical ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Register creates a user. Only actors holding users:create may register;
	// the very first user of an empty store may self-register with any role.
	Register(ctx context.Context, actor domain.Actor, input RegisterInput) (*domain.User, error)
	// ParseToken validates integrity and expiry of a bearer token.
	ParseToken(token string) (TokenClaims, error)
	// ResolveUser loads the current user record for the given id.
	ResolveUser(ctx context.Context, userID string) (*domain.User, error)
}
