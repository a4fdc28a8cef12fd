package ports

import (
	"context"
	"time"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// AuditFilter carries the query parameters for the audit viewing endpoint.
type AuditFilter struct {
	UserID   string
	Action   string
	Entity   string
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// AuditRepository persists and queries audit records. Insert-only from the
// application's perspective; nothing here mutates or deletes.
type AuditRepository interface {
	Insert(ctx context.Context, rec *domain.AuditRecord) error
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditRecord, int64, error)
}
