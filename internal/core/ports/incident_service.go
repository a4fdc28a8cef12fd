package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// CreateIncidentInput carries all data needed to file an incident.
// AttachmentPath is the relative blob-store path of an already-written upload;
// the transport layer owns writing the file and removing it if creation fails.
type CreateIncidentInput struct {
	Subject        string
	Description    string
	Area           string
	Priority       domain.IncidentPriority
	Tags           []string
	AssignedTo     []string
	AttachmentPath string
}

// UpdateIncidentInput carries optional field edits for PATCH /incidents/:id.
type UpdateIncidentInput struct {
	Subject     *string
	Description *string
	Priority    *domain.IncidentPriority
	Area        *string
	Tags        *[]string
}

// ChangeStatusInput carries a requested lifecycle transition.
type ChangeStatusInput struct {
	Status   domain.IncidentStatus
	Solution string // required when Status is resolved
	Comment  string // optional note recorded in the history entry
}

// ListIncidentsResult is a page of incidents plus pagination totals.
type ListIncidentsResult struct {
	Items      []*domain.Incident
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// IncidentService is the lifecycle engine. Every entry point takes the
// resolved actor and rejects before any store mutation when the actor lacks
// the required capability or scope.
type IncidentService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateIncidentInput) (*domain.Incident, error)
	Get(ctx context.Context, viewer domain.Actor, id string) (*domain.Incident, error)
	List(ctx context.Context, viewer domain.Actor, filter ListIncidentsFilter) (*ListIncidentsResult, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateIncidentInput) (*domain.Incident, error)
	ChangeStatus(ctx context.Context, actor domain.Actor, id string, input ChangeStatusInput) (*domain.Incident, error)
	Assign(ctx context.Context, actor domain.Actor, id string, assignees []string) (*domain.Incident, error)
	AddComment(ctx context.Context, actor domain.Actor, id string, text string) (*domain.Incident, error)
	ListComments(ctx context.Context, viewer domain.Actor, id string) ([]domain.Comment, error)
	// AutoClose transitions a still-resolved incident to closed under the
	// system actor. A no-op (nil error) when the status has moved on.
	AutoClose(ctx context.Context, id string) error
	// CloseOverdue auto-closes every incident resolved at or before the dwell
	// cutoff. Returns how many were closed.
	CloseOverdue(ctx context.Context) (int, error)
}
