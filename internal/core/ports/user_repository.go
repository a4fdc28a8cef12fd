package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// ListByRoles returns all users holding any of the given roles. Used by the
	// notification dispatcher to compute recipient sets.
	ListByRoles(ctx context.Context, roles ...string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	// Count returns the total number of users. A zero count enables the
	// bootstrap path where the first registration may pick any role.
	Count(ctx context.Context) (int64, error)
}
