package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/api/metrics"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// IncidentService is the lifecycle engine: it owns status transitions, the
// append-only history, role/scope gating, and the fan-out to audit and
// notifications. A single incident mutation is one atomic document write; the
// audit and notification side effects that follow are best-effort.
type IncidentService struct {
	repo     ports.IncidentRepository
	areas    ports.AreaRepository
	users    ports.UserRepository
	audit    ports.AuditRecorder
	notifier ports.NotificationDispatcher
	timers   ports.DelayedTaskScheduler
	dwell    time.Duration
	sanitize *bluemonday.Policy
	log      zerolog.Logger
}

func NewIncidentService(
	repo ports.IncidentRepository,
	areas ports.AreaRepository,
	users ports.UserRepository,
	audit ports.AuditRecorder,
	notifier ports.NotificationDispatcher,
	timers ports.DelayedTaskScheduler,
	dwell time.Duration,
	log zerolog.Logger,
) *IncidentService {
	if dwell <= 0 {
		dwell = 24 * time.Hour
	}
	return &IncidentService{
		repo:     repo,
		areas:    areas,
		users:    users,
		audit:    audit,
		notifier: notifier,
		timers:   timers,
		dwell:    dwell,
		sanitize: bluemonday.StrictPolicy(),
		log:      log,
	}
}

func (s *IncidentService) Create(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
	if !domain.HasPermission(actor.Role, domain.CapIncidentsCreate) {
		return nil, domain.Forbidden(domain.CapIncidentsCreate)
	}

	subject := s.clean(input.Subject)
	description := s.clean(input.Description)
	if subject == "" {
		return nil, domain.Invalid("subject", "is required")
	}
	if description == "" {
		return nil, domain.Invalid("description", "is required")
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, domain.Invalid("priority", "must be one of Low, Medium, High, Critical")
	}
	if err := s.resolveArea(ctx, input.Area); err != nil {
		return nil, err
	}
	if err := s.resolveUsers(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inc := &domain.Incident{
		Subject:     subject,
		Description: description,
		Attachment:  input.AttachmentPath,
		Area:        input.Area,
		Priority:    input.Priority,
		Status:      domain.StatusPending,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   actor.UserID,
		Tags:        normalizeTags(input.Tags),
		History: []domain.HistoryEntry{{
			UserID:    actor.UserID,
			Action:    domain.ActionCreated,
			Timestamp: now,
		}},
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, inc)
	if err != nil {
		s.log.Error().Err(err).Str("subject", subject).Msg("failed to create incident")
		return nil, err
	}

	metrics.IncidentsCreatedTotal.WithLabelValues(string(created.Priority)).Inc()
	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditIncidentCreated,
		Entity:   "incidents",
		EntityID: created.ID,
		Changes:  map[string]any{"subject": created.Subject, "priority": created.Priority, "area": created.Area},
	})
	s.notifier.IncidentCreated(ctx, created, actor)
	if len(created.AssignedTo) > 0 {
		s.notifier.IncidentAssigned(ctx, created, actor, created.AssignedTo)
	}

	s.log.Info().Str("incident_id", created.ID).Str("priority", string(created.Priority)).Msg("incident created")
	return created, nil
}

func (s *IncidentService) Get(ctx context.Context, viewer domain.Actor, id string) (*domain.Incident, error) {
	if !domain.HasPermission(viewer.Role, domain.CapIncidentsReadAll) {
		return nil, domain.Forbidden(domain.CapIncidentsReadAll)
	}
	return s.repo.FindVisible(ctx, id, viewer)
}

func (s *IncidentService) List(ctx context.Context, viewer domain.Actor, filter ports.ListIncidentsFilter) (*ports.ListIncidentsResult, error) {
	if !domain.HasPermission(viewer.Role, domain.CapIncidentsReadAll) {
		return nil, domain.Forbidden(domain.CapIncidentsReadAll)
	}

	filter.Viewer = viewer
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	pages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		pages++
	}
	return &ports.ListIncidentsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: pages,
	}, nil
}

func (s *IncidentService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateIncidentInput) (*domain.Incident, error) {
	inc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(actor, inc); err != nil {
		return nil, err
	}
	if inc.Status == domain.StatusClosed {
		return nil, domain.ErrIncidentClosed
	}

	fields := ports.UpdateIncidentFields{}
	changes := map[string]any{}
	if input.Subject != nil {
		subject := s.clean(*input.Subject)
		if subject == "" {
			return nil, domain.Invalid("subject", "is required")
		}
		fields.Subject = &subject
		changes["subject"] = subject
	}
	if input.Description != nil {
		description := s.clean(*input.Description)
		if description == "" {
			return nil, domain.Invalid("description", "is required")
		}
		fields.Description = &description
		changes["description"] = description
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, domain.Invalid("priority", "must be one of Low, Medium, High, Critical")
		}
		fields.Priority = input.Priority
		changes["priority"] = *input.Priority
	}
	if input.Area != nil {
		if err := s.resolveArea(ctx, *input.Area); err != nil {
			return nil, err
		}
		fields.Area = input.Area
		changes["area"] = *input.Area
	}
	if input.Tags != nil {
		tags := normalizeTags(*input.Tags)
		fields.Tags = &tags
		changes["tags"] = tags
	}
	if len(changes) == 0 {
		return inc, nil
	}

	entry := domain.HistoryEntry{
		UserID:    actor.UserID,
		Action:    domain.ActionUpdated,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.Update(ctx, id, fields, entry); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditIncidentUpdated,
		Entity:   "incidents",
		EntityID: id,
		Changes:  changes,
	})

	return s.repo.FindByID(ctx, id)
}

func (s *IncidentService) ChangeStatus(ctx context.Context, actor domain.Actor, id string, input ports.ChangeStatusInput) (*domain.Incident, error) {
	if !domain.ValidStatus(input.Status) {
		return nil, domain.Invalid("status", "must be one of pending, in_progress, resolved, closed")
	}

	inc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(actor, inc); err != nil {
		return nil, err
	}
	if inc.Status == domain.StatusClosed {
		return nil, domain.ErrIncidentClosed
	}
	if !inc.Status.CanTransitionTo(input.Status) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, inc.Status, input.Status)
	}

	solution := s.clean(input.Solution)
	var resolvedAt *time.Time
	action := domain.ActionStatusChanged
	auditAction := domain.AuditIncidentStatus
	if input.Status == domain.StatusResolved {
		if solution == "" {
			return nil, domain.Invalid("solution", "is required to resolve an incident")
		}
		now := time.Now().UTC()
		resolvedAt = &now
		action = domain.ActionResolved
		auditAction = domain.AuditIncidentResolved
	}
	if input.Status == domain.StatusClosed {
		action = domain.ActionClosed
		auditAction = domain.AuditIncidentClosed
	}

	entry := domain.HistoryEntry{
		UserID:    actor.UserID,
		Action:    action,
		Comment:   s.clean(input.Comment),
		Timestamp: time.Now().UTC(),
	}

	matched, err := s.repo.SetStatus(ctx, id, inc.Status, input.Status, entry, solution, resolvedAt)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Lost a race with a concurrent transition; the stored status moved on.
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, inc.Status, input.Status)
	}

	metrics.TransitionsTotal.WithLabelValues(string(inc.Status), string(input.Status)).Inc()
	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   auditAction,
		Entity:   "incidents",
		EntityID: id,
		Changes:  map[string]any{"from": inc.Status, "to": input.Status},
	})

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.IncidentStatusChanged(ctx, updated, actor, inc.Status, input.Status)
	switch input.Status {
	case domain.StatusResolved:
		s.notifier.IncidentResolved(ctx, updated, actor)
		s.timers.Schedule(id, s.dwell, func() {
			if err := s.AutoClose(context.Background(), id); err != nil {
				s.log.Warn().Err(err).Str("incident_id", id).Msg("auto-close failed")
			}
		})
	default:
		// Any move away from resolved supersedes a pending auto-close.
		s.timers.Cancel(id)
	}

	s.log.Info().
		Str("incident_id", id).
		Str("from", string(inc.Status)).
		Str("to", string(input.Status)).
		Msg("incident status changed")
	return updated, nil
}

func (s *IncidentService) Assign(ctx context.Context, actor domain.Actor, id string, assignees []string) (*domain.Incident, error) {
	if !domain.HasPermission(actor.Role, domain.CapIncidentsAssign) {
		return nil, domain.Forbidden(domain.CapIncidentsAssign)
	}

	inc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(actor, inc); err != nil {
		return nil, err
	}
	if inc.Status == domain.StatusClosed {
		return nil, domain.ErrIncidentClosed
	}
	if err := s.resolveUsers(ctx, assignees); err != nil {
		return nil, err
	}

	entry := domain.HistoryEntry{
		UserID:    actor.UserID,
		Action:    domain.ActionAssigned,
		Comment:   "assigned to: " + strings.Join(assignees, ", "),
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.SetAssignees(ctx, id, assignees, entry); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditIncidentAssigned,
		Entity:   "incidents",
		EntityID: id,
		Changes:  map[string]any{"assigned_to": assignees},
	})

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if newly := difference(assignees, inc.AssignedTo); len(newly) > 0 {
		s.notifier.IncidentAssigned(ctx, updated, actor, newly)
	}
	return updated, nil
}

func (s *IncidentService) AddComment(ctx context.Context, actor domain.Actor, id string, text string) (*domain.Incident, error) {
	if !domain.HasPermission(actor.Role, domain.CapIncidentsComment) {
		return nil, domain.Forbidden(domain.CapIncidentsComment)
	}

	// Read access gates commenting: an incident outside the actor's visibility
	// behaves as missing.
	inc, err := s.repo.FindVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if inc.Status == domain.StatusClosed {
		return nil, domain.ErrIncidentClosed
	}

	text = s.clean(text)
	if text == "" {
		return nil, domain.Invalid("text", "is required")
	}

	comment := domain.Comment{
		UserID:    actor.UserID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.AddComment(ctx, id, comment); err != nil {
		return nil, err
	}

	return s.repo.FindVisible(ctx, id, actor)
}

func (s *IncidentService) ListComments(ctx context.Context, viewer domain.Actor, id string) ([]domain.Comment, error) {
	inc, err := s.repo.FindVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	return inc.Comments, nil
}

// AutoClose moves a still-resolved incident to closed under the system actor.
// It re-fetches the current status at fire time: when the incident has already
// moved on (reopened, manually closed) the call is a no-op.
func (s *IncidentService) AutoClose(ctx context.Context, id string) error {
	inc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrIncidentNotFound) {
			return nil
		}
		return err
	}
	if inc.Status != domain.StatusResolved {
		metrics.AutoCloseTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	entry := domain.HistoryEntry{
		UserID:    domain.SystemActorID,
		Action:    domain.ActionAutoClosed,
		Comment:   "closed automatically after resolution dwell time",
		Timestamp: time.Now().UTC(),
	}
	matched, err := s.repo.SetStatus(ctx, id, domain.StatusResolved, domain.StatusClosed, entry, "", nil)
	if err != nil {
		return err
	}
	if !matched {
		// Concurrent transition won; the state guard makes duplicate timers harmless.
		metrics.AutoCloseTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	metrics.AutoCloseTotal.WithLabelValues("closed").Inc()
	metrics.TransitionsTotal.WithLabelValues(string(domain.StatusResolved), string(domain.StatusClosed)).Inc()
	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    domain.SystemActor,
		Action:   domain.AuditIncidentAutoClosed,
		Entity:   "incidents",
		EntityID: id,
		Changes:  map[string]any{"from": domain.StatusResolved, "to": domain.StatusClosed},
	})

	if updated, ferr := s.repo.FindByID(ctx, id); ferr == nil {
		s.notifier.IncidentStatusChanged(ctx, updated, domain.SystemActor, domain.StatusResolved, domain.StatusClosed)
	}

	s.log.Info().Str("incident_id", id).Msg("incident auto-closed")
	return nil
}

// CloseOverdue is the durable backstop for auto-close: it queries for
// incidents whose resolution dwell has elapsed and closes each through the
// same state-guarded path the in-process timer uses.
func (s *IncidentService) CloseOverdue(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.dwell)
	overdue, err := s.repo.FindOverdueResolved(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, inc := range overdue {
		if err := s.AutoClose(ctx, inc.ID); err != nil {
			s.log.Warn().Err(err).Str("incident_id", inc.ID).Msg("sweep auto-close failed")
			continue
		}
		closed++
	}
	return closed, nil
}

// canModify enforces the update scope: admin acts on everything; support on
// incidents assigned to them or unassigned; everyone else is rejected.
func (s *IncidentService) canModify(actor domain.Actor, inc *domain.Incident) error {
	if domain.HasPermission(actor.Role, domain.CapIncidentsUpdateAll) {
		return nil
	}
	if domain.HasPermission(actor.Role, domain.CapIncidentsUpdateAssigned) {
		if inc.Unassigned() || inc.AssignedToUser(actor.UserID) {
			return nil
		}
	}
	return domain.Forbidden(domain.CapIncidentsUpdateAssigned)
}

func (s *IncidentService) clean(text string) string {
	return strings.TrimSpace(s.sanitize.Sanitize(text))
}

// resolveArea accepts an area name or id and fails with a field error when the
// reference does not exist.
func (s *IncidentService) resolveArea(ctx context.Context, area string) error {
	if area == "" {
		return domain.Invalid("area", "is required")
	}
	if _, err := s.areas.FindByName(ctx, area); err == nil {
		return nil
	}
	if _, err := s.areas.FindByID(ctx, area); err == nil {
		return nil
	}
	return domain.Invalid("area", "does not exist")
}

func (s *IncidentService) resolveUsers(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.users.FindByID(ctx, id); err != nil {
			return domain.Invalid("assigned_to", "user "+id+" does not exist")
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// difference returns the elements of next not present in prev.
func difference(next, prev []string) []string {
	old := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		old[id] = struct{}{}
	}
	var out []string
	for _, id := range next {
		if _, ok := old[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
