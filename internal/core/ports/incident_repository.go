package ports

import (
	"context"
	"time"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// ListIncidentsFilter carries all query parameters for listing incidents.
// Viewer is always set by the service layer; the visibility rule is applied in
// the store query itself so pagination stays correct.
type ListIncidentsFilter struct {
	Viewer   domain.Actor
	Status   string // optional: filter by lifecycle status
	Priority string // optional: filter by priority
	Area     string // optional: filter by area
	Search   string // optional: partial match on subject
	Tag      string // optional: filter by tag
	DateFrom time.Time
	DateTo   time.Time
	Page     int // 1-based
	Limit    int // capped at 100 by the service
}

// UpdateIncidentFields is the set of mutable fields for a plain update.
// Nil pointers leave the stored value untouched.
type UpdateIncidentFields struct {
	Subject     *string
	Description *string
	Priority    *domain.IncidentPriority
	Area        *string
	Tags        *[]string
}

// IncidentRepository defines persistence operations for incidents.
//
// Mutations that pair a field change with a history entry perform both in a
// single document write; the store's single-document atomicity is the only
// coordination relied upon.
type IncidentRepository interface {
	Create(ctx context.Context, inc *domain.Incident) (*domain.Incident, error)
	// FindByID retrieves an incident with no visibility filter. Mutation paths
	// use it so an out-of-scope actor gets a 403, not a 404.
	FindByID(ctx context.Context, id string) (*domain.Incident, error)
	// FindVisible retrieves an incident applying the viewer's visibility rule.
	FindVisible(ctx context.Context, id string, viewer domain.Actor) (*domain.Incident, error)
	List(ctx context.Context, filter ListIncidentsFilter) ([]*domain.Incident, int64, error)
	// Update applies field changes and appends a history entry atomically.
	Update(ctx context.Context, id string, fields UpdateIncidentFields, entry domain.HistoryEntry) error
	// SetStatus compare-and-sets the status from → to, appending the history
	// entry and optionally setting solution/resolvedAt in the same write. It
	// returns false when the incident's current status no longer equals from;
	// the auto-close path relies on this guard for idempotency.
	SetStatus(ctx context.Context, id string, from, to domain.IncidentStatus, entry domain.HistoryEntry, solution string, resolvedAt *time.Time) (bool, error)
	// SetAssignees replaces the assignee set and appends a history entry.
	SetAssignees(ctx context.Context, id string, assignees []string, entry domain.HistoryEntry) error
	AddComment(ctx context.Context, id string, comment domain.Comment) error
	// CountByArea reports how many incidents reference the given area.
	CountByArea(ctx context.Context, area string) (int64, error)
	// FindOverdueResolved returns incidents still in resolved whose resolvedAt
	// is at or before cutoff. Used by the auto-close sweep.
	FindOverdueResolved(ctx context.Context, cutoff time.Time) ([]*domain.Incident, error)
}
