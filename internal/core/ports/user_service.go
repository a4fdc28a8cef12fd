package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// UpdateUserInput carries optional profile/role edits.
type UpdateUserInput struct {
	Name *string
	Role *string
}

// UserService manages user accounts beyond registration.
type UserService interface {
	List(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateUserInput) (*domain.User, error)
	// Delete removes the user and cascades to their notifications. Historical
	// audit and incident references keep the raw id.
	Delete(ctx context.Context, actor domain.Actor, id string) error
}
