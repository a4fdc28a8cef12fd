package domain

import "time"

// NotificationType identifies the lifecycle event a notification reports.
type NotificationType string

const (
	NotifIncidentCreated       NotificationType = "incident_created"
	NotifIncidentAssigned      NotificationType = "incident_assigned"
	NotifIncidentStatusChanged NotificationType = "incident_status_changed"
	NotifIncidentResolved      NotificationType = "incident_resolved"
	NotifUserCreated           NotificationType = "user_created"
	NotifUserDeleted           NotificationType = "user_deleted"
	NotifAreaCreated           NotificationType = "area_created"
	NotifAreaDeleted           NotificationType = "area_deleted"
)

// NotificationPriority is the display urgency of a notification.
type NotificationPriority string

const (
	NotifPriorityLow    NotificationPriority = "low"
	NotifPriorityMedium NotificationPriority = "medium"
	NotifPriorityHigh   NotificationPriority = "high"
)

// Notification is the persisted record of a lifecycle event addressed to one
// recipient. The realtime push is a latency optimization on top of it; the
// stored document is the source of truth.
type Notification struct {
	ID               string               `json:"id" bson:"_id,omitempty"`
	Type             NotificationType     `json:"type" bson:"type"`
	Title            string               `json:"title" bson:"title"`
	Message          string               `json:"message" bson:"message"`
	RecipientID      string               `json:"recipient_id" bson:"recipient_id"`
	SenderID         string               `json:"sender_id,omitempty" bson:"sender_id,omitempty"`
	RelatedIncident  string               `json:"related_incident,omitempty" bson:"related_incident,omitempty"`
	RelatedUser      string               `json:"related_user,omitempty" bson:"related_user,omitempty"`
	Read             bool                 `json:"read" bson:"read"`
	Priority         NotificationPriority `json:"priority" bson:"priority"`
	CreatedAt        time.Time            `json:"created_at" bson:"created_at"`
}
