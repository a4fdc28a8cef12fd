package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// AreaInput carries the fields for creating an area.
type AreaInput struct {
	Name        string
	Description string
	Color       string
}

// UpdateAreaInput carries a partial area update. Nil fields are left
// unchanged; a non-nil empty description or color clears the value.
type UpdateAreaInput struct {
	Name        *string
	Description *string
	Color       *string
}

// AreaService manages areas. Mutations require areas:manage.
type AreaService interface {
	List(ctx context.Context) ([]*domain.Area, error)
	Create(ctx context.Context, actor domain.Actor, input AreaInput) (*domain.Area, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateAreaInput) (*domain.Area, error)
	// Delete refuses with ErrAreaInUse while any incident references the area.
	Delete(ctx context.Context, actor domain.Actor, id string) error
}
