package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// AuditEntry is the input to the audit recorder. A zero Actor is normalized to
// the system sentinel; an empty EntityID to a placeholder, so audit queries
// never need null handling.
type AuditEntry struct {
	Actor    domain.Actor
	Action   string
	Entity   string
	EntityID string
	Changes  map[string]any
	Details  string
	Priority domain.AuditPriority
}

// AuditRecorder records state-changing actions, best-effort: its own storage
// failures are swallowed (and logged) so they never roll back or block the
// primary action they describe.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditService adds the admin-only viewing surface on top of the recorder.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditRecord, int64, error)
}
