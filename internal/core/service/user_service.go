package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// UserService manages accounts beyond registration: listing, profile/role
// edits and deletion with the notification cascade.
type UserService struct {
	repo          ports.UserRepository
	notifications ports.NotificationRepository
	audit         ports.AuditRecorder
	notifier      ports.NotificationDispatcher
	log           zerolog.Logger
}

func NewUserService(repo ports.UserRepository, notifications ports.NotificationRepository, audit ports.AuditRecorder, notifier ports.NotificationDispatcher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, notifications: notifications, audit: audit, notifier: notifier, log: log}
}

func (s *UserService) List(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !domain.HasPermission(actor.Role, domain.CapUsersRead) {
		return nil, domain.Forbidden(domain.CapUsersRead)
	}
	return s.repo.List(ctx)
}

func (s *UserService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateUserInput) (*domain.User, error) {
	if !domain.HasPermission(actor.Role, domain.CapUsersUpdate) {
		return nil, domain.Forbidden(domain.CapUsersUpdate)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Invalid("name", "is required")
		}
		user.Name = name
		changes["name"] = name
	}
	if input.Role != nil {
		if !domain.ValidRole(*input.Role) {
			return nil, domain.Invalid("role", "must be one of admin, support, end_user")
		}
		user.Role = *input.Role
		changes["role"] = *input.Role
	}
	if len(changes) == 0 {
		return user, nil
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Role escalations are worth flagging beyond the stored record.
	priority := domain.AuditNormal
	if _, roleChanged := changes["role"]; roleChanged {
		priority = domain.AuditCritical
	}
	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditUserUpdated,
		Entity:   "users",
		EntityID: id,
		Changes:  changes,
		Priority: priority,
	})

	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !domain.HasPermission(actor.Role, domain.CapUsersDelete) {
		return domain.Forbidden(domain.CapUsersDelete)
	}
	if actor.UserID == id {
		return domain.Invalid("id", "cannot delete your own account")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Cascade to the user's notifications; audit records and incident history
	// keep the raw id. Cascade failures are non-fatal.
	if n, err := s.notifications.DeleteByRecipient(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("notification cascade failed")
	} else if n > 0 {
		s.log.Info().Str("user_id", id).Int64("removed", n).Msg("cascaded notification cleanup")
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditUserDeleted,
		Entity:   "users",
		EntityID: id,
		Changes:  map[string]any{"email": user.Email, "role": user.Role},
		Priority: domain.AuditCritical,
	})
	s.notifier.UserEvent(ctx, domain.NotifUserDeleted, user, actor)

	return nil
}
