package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/api/metrics"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

const defaultNotificationLimit = 50

// NotificationService persists notifications per recipient and best-effort
// pushes them over the realtime channel. The persisted record is the source of
// truth; a failed push is ignored, the notification shows up on next fetch.
type NotificationService struct {
	repo     ports.NotificationRepository
	users    ports.UserRepository
	presence ports.PresenceRegistry
	log      zerolog.Logger
}

func NewNotificationService(repo ports.NotificationRepository, users ports.UserRepository, presence ports.PresenceRegistry, log zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, users: users, presence: presence, log: log}
}

// --- Dispatcher side ---

func (s *NotificationService) IncidentCreated(ctx context.Context, inc *domain.Incident, actor domain.Actor) {
	recipients, err := s.staffIDs(ctx, actor.UserID)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification recipients lookup failed")
		return
	}
	s.fanOut(ctx, recipients, &domain.Notification{
		Type:            domain.NotifIncidentCreated,
		Title:           "New incident",
		Message:         fmt.Sprintf("Incident %q was created with priority %s", inc.Subject, inc.Priority),
		SenderID:        actor.UserID,
		RelatedIncident: inc.ID,
		Priority:        notificationPriority(inc.Priority),
	})
}

func (s *NotificationService) IncidentStatusChanged(ctx context.Context, inc *domain.Incident, actor domain.Actor, from, to domain.IncidentStatus) {
	if inc.CreatedBy == actor.UserID {
		return
	}
	s.fanOut(ctx, []string{inc.CreatedBy}, &domain.Notification{
		Type:            domain.NotifIncidentStatusChanged,
		Title:           "Incident status changed",
		Message:         fmt.Sprintf("Incident %q moved from %s to %s", inc.Subject, from, to),
		SenderID:        actor.UserID,
		RelatedIncident: inc.ID,
		Priority:        domain.NotifPriorityMedium,
	})
}

func (s *NotificationService) IncidentResolved(ctx context.Context, inc *domain.Incident, actor domain.Actor) {
	if inc.CreatedBy == actor.UserID {
		return
	}
	s.fanOut(ctx, []string{inc.CreatedBy}, &domain.Notification{
		Type:            domain.NotifIncidentResolved,
		Title:           "Incident resolved",
		Message:         fmt.Sprintf("Incident %q was resolved: %s", inc.Subject, inc.Solution),
		SenderID:        actor.UserID,
		RelatedIncident: inc.ID,
		Priority:        domain.NotifPriorityHigh,
	})
}

func (s *NotificationService) IncidentAssigned(ctx context.Context, inc *domain.Incident, actor domain.Actor, newAssignees []string) {
	recipients := make([]string, 0, len(newAssignees))
	for _, id := range newAssignees {
		if id != actor.UserID {
			recipients = append(recipients, id)
		}
	}
	s.fanOut(ctx, recipients, &domain.Notification{
		Type:            domain.NotifIncidentAssigned,
		Title:           "Incident assigned to you",
		Message:         fmt.Sprintf("You were assigned to incident %q", inc.Subject),
		SenderID:        actor.UserID,
		RelatedIncident: inc.ID,
		Priority:        notificationPriority(inc.Priority),
	})
}

func (s *NotificationService) UserEvent(ctx context.Context, typ domain.NotificationType, user *domain.User, actor domain.Actor) {
	admins, err := s.adminIDs(ctx, actor.UserID)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification recipients lookup failed")
		return
	}
	verb := "created"
	if typ == domain.NotifUserDeleted {
		verb = "deleted"
	}
	s.fanOut(ctx, admins, &domain.Notification{
		Type:        typ,
		Title:       "User " + verb,
		Message:     fmt.Sprintf("User %s (%s) was %s", user.Name, user.Email, verb),
		SenderID:    actor.UserID,
		RelatedUser: user.ID,
		Priority:    domain.NotifPriorityLow,
	})
}

func (s *NotificationService) AreaEvent(ctx context.Context, typ domain.NotificationType, area *domain.Area, actor domain.Actor) {
	admins, err := s.adminIDs(ctx, actor.UserID)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification recipients lookup failed")
		return
	}
	verb := "created"
	if typ == domain.NotifAreaDeleted {
		verb = "deleted"
	}
	s.fanOut(ctx, admins, &domain.Notification{
		Type:     typ,
		Title:    "Area " + verb,
		Message:  fmt.Sprintf("Area %q was %s", area.Name, verb),
		SenderID: actor.UserID,
		Priority: domain.NotifPriorityLow,
	})
}

// fanOut persists one notification per recipient and pushes to connected
// sessions. Both halves are best-effort per recipient: a storage failure for
// one recipient does not stop the rest, and push failures are ignored.
func (s *NotificationService) fanOut(ctx context.Context, recipients []string, template *domain.Notification) {
	now := time.Now().UTC()
	for _, recipientID := range recipients {
		n := *template
		n.RecipientID = recipientID
		n.CreatedAt = now

		stored, err := s.repo.Insert(ctx, &n)
		if err != nil {
			s.log.Warn().Err(err).Str("recipient", recipientID).Str("type", string(n.Type)).Msg("failed to persist notification")
			continue
		}
		metrics.NotificationsPersistedTotal.WithLabelValues(string(n.Type)).Inc()

		if s.presence != nil && s.presence.Connected(recipientID) {
			s.presence.Send(recipientID, map[string]any{
				"event": "newNotification",
				"data": map[string]any{
					"id":         stored.ID,
					"type":       stored.Type,
					"title":      stored.Title,
					"message":    stored.Message,
					"priority":   stored.Priority,
					"created_at": stored.CreatedAt,
				},
			})
			metrics.NotificationsPushedTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.NotificationsPushedTotal.WithLabelValues("offline").Inc()
		}
	}
}

// --- Recipient side ---

func (s *NotificationService) List(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	if limit < 1 || limit > maxPageLimit {
		limit = defaultNotificationLimit
	}
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID string) error {
	return s.repo.Delete(ctx, id, recipientID)
}

// staffIDs returns all support and admin user ids, excluding the actor.
func (s *NotificationService) staffIDs(ctx context.Context, exclude string) ([]string, error) {
	users, err := s.users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleSupport)
	if err != nil {
		return nil, err
	}
	return collectIDs(users, exclude), nil
}

func (s *NotificationService) adminIDs(ctx context.Context, exclude string) ([]string, error) {
	users, err := s.users.ListByRoles(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return collectIDs(users, exclude), nil
}

func collectIDs(users []*domain.User, exclude string) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != exclude {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// notificationPriority maps incident priority to notification display
// priority; Critical and High incidents surface as high.
func notificationPriority(p domain.IncidentPriority) domain.NotificationPriority {
	switch p {
	case domain.PriorityCritical, domain.PriorityHigh:
		return domain.NotifPriorityHigh
	case domain.PriorityMedium:
		return domain.NotifPriorityMedium
	default:
		return domain.NotifPriorityLow
	}
}
