package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// AreaRepository defines persistence operations for areas.
type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) (*domain.Area, error)
	FindByID(ctx context.Context, id string) (*domain.Area, error)
	FindByName(ctx context.Context, name string) (*domain.Area, error)
	List(ctx context.Context) ([]*domain.Area, error)
	Update(ctx context.Context, area *domain.Area) error
	Delete(ctx context.Context, id string) error
}
