package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// NotificationDispatcher receives lifecycle events, persists one notification
// per computed recipient and best-effort pushes each over the realtime
// channel. All methods are fire-and-forget: failures are logged, never
// returned, so a notification problem cannot abort the triggering action.
type NotificationDispatcher interface {
	IncidentCreated(ctx context.Context, inc *domain.Incident, actor domain.Actor)
	IncidentStatusChanged(ctx context.Context, inc *domain.Incident, actor domain.Actor, from, to domain.IncidentStatus)
	IncidentResolved(ctx context.Context, inc *domain.Incident, actor domain.Actor)
	IncidentAssigned(ctx context.Context, inc *domain.Incident, actor domain.Actor, newAssignees []string)
	UserEvent(ctx context.Context, typ domain.NotificationType, user *domain.User, actor domain.Actor)
	AreaEvent(ctx context.Context, typ domain.NotificationType, area *domain.Area, actor domain.Actor)
}

// NotificationService is the recipient-facing surface. Every operation is
// scoped to the requesting recipient.
type NotificationService interface {
	List(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id, recipientID string) error
}

// PresenceRegistry tracks connected realtime sessions per user and delivers
// best-effort pushes. The in-memory hub is the shipped implementation; a
// pub/sub-backed one can replace it without touching the dispatcher.
type PresenceRegistry interface {
	// Send delivers payload to every connected session of userID. Sessions
	// that are gone or failing are skipped silently.
	Send(userID string, payload any)
	// Connected reports whether userID has at least one open session.
	Connected(userID string) bool
}
