package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/api/metrics"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// unknownEntityID stands in when a caller records an action without a target,
// so audit queries never need null handling.
const unknownEntityID = "-"

// AuditService records state-changing actions. Recording is best-effort: its
// own storage failures are logged and counted, never surfaced to the caller.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

func (s *AuditService) Record(ctx context.Context, entry ports.AuditEntry) {
	actorID := entry.Actor.UserID
	if actorID == "" {
		actorID = domain.SystemActorID
	}
	entityID := entry.EntityID
	if entityID == "" {
		entityID = unknownEntityID
	}
	priority := entry.Priority
	if priority == "" {
		priority = domain.AuditNormal
	}

	rec := &domain.AuditRecord{
		UserID:   actorID,
		Action:   entry.Action,
		Entity:   entry.Entity,
		EntityID: entityID,
		Changes:  entry.Changes,
		Details:  entry.Details,
		Priority: priority,
		At:       time.Now().UTC(),
	}

	if priority == domain.AuditCritical {
		metrics.AuditCriticalTotal.Inc()
		s.log.Warn().
			Str("actor", actorID).
			Str("action", entry.Action).
			Str("entity", entry.Entity).
			Str("entity_id", entityID).
			Msg("critical audit event")
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		metrics.AuditFailuresTotal.Inc()
		s.log.Warn().Err(err).Str("action", entry.Action).Str("entity", entry.Entity).Msg("failed to write audit record")
	}
}

// List serves the admin audit viewer; the capability gate lives in the API
// layer so the recorder side stays dependency-free.
func (s *AuditService) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditRecord, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	return s.repo.List(ctx, filter)
}
