package ports

import (
	"context"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// NotificationRepository defines persistence operations for notifications.
// Every read or mutation is scoped to a recipient: an id belonging to another
// user behaves exactly like a missing id (ErrNotificationNotFound), never as a
// permission failure, so existence is not confirmed across users.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id, recipientID string) error
	// DeleteByRecipient removes all notifications for a user; invoked as the
	// cascade when the user is deleted.
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
}
