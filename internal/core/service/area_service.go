package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// AreaService manages incident areas. All mutations require areas:manage and
// deletion is refused while any incident references the area.
type AreaService struct {
	repo      ports.AreaRepository
	incidents ports.IncidentRepository
	audit     ports.AuditRecorder
	notifier  ports.NotificationDispatcher
	log       zerolog.Logger
}

func NewAreaService(repo ports.AreaRepository, incidents ports.IncidentRepository, audit ports.AuditRecorder, notifier ports.NotificationDispatcher, log zerolog.Logger) *AreaService {
	return &AreaService{repo: repo, incidents: incidents, audit: audit, notifier: notifier, log: log}
}

func (s *AreaService) List(ctx context.Context) ([]*domain.Area, error) {
	return s.repo.List(ctx)
}

func (s *AreaService) Create(ctx context.Context, actor domain.Actor, input ports.AreaInput) (*domain.Area, error) {
	if !domain.HasPermission(actor.Role, domain.CapAreasManage) {
		return nil, domain.Forbidden(domain.CapAreasManage)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Invalid("name", "is required")
	}

	now := time.Now().UTC()
	area := &domain.Area{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, area)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditAreaCreated,
		Entity:   "areas",
		EntityID: created.ID,
		Changes:  map[string]any{"name": created.Name},
	})
	s.notifier.AreaEvent(ctx, domain.NotifAreaCreated, created, actor)

	return created, nil
}

func (s *AreaService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateAreaInput) (*domain.Area, error) {
	if !domain.HasPermission(actor.Role, domain.CapAreasManage) {
		return nil, domain.Forbidden(domain.CapAreasManage)
	}

	area, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Invalid("name", "is required")
		}
		area.Name = name
	}
	if input.Description != nil {
		area.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		area.Color = strings.TrimSpace(*input.Color)
	}
	area.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, area); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditAreaUpdated,
		Entity:   "areas",
		EntityID: area.ID,
		Changes:  map[string]any{"name": area.Name, "color": area.Color},
	})

	return area, nil
}

func (s *AreaService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !domain.HasPermission(actor.Role, domain.CapAreasManage) {
		return domain.Forbidden(domain.CapAreasManage)
	}

	area, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// Referencing incidents block deletion. The check-then-delete race is
	// accepted; there is no foreign-key constraint in the store.
	for _, ref := range []string{area.Name, area.ID} {
		n, err := s.incidents.CountByArea(ctx, ref)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAreaInUse
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditAreaDeleted,
		Entity:   "areas",
		EntityID: id,
		Changes:  map[string]any{"name": area.Name},
		Priority: domain.AuditCritical,
	})
	s.notifier.AreaEvent(ctx, domain.NotifAreaDeleted, area, actor)

	return nil
}
