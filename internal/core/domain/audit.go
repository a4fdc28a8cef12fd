package domain

import "time"

// AuditPriority classifies how loudly an audit entry should be surfaced.
// Critical entries additionally emit an operational warning beyond the record.
type AuditPriority string

const (
	AuditNormal   AuditPriority = "normal"
	AuditCritical AuditPriority = "critical"
)

// AuditRecord is an append-only trace of a state-changing action. Records are
// never mutated or deleted through the API.
type AuditRecord struct {
	ID       string         `json:"id" bson:"_id,omitempty"`
	UserID   string         `json:"user_id" bson:"user_id"`
	Action   string         `json:"action" bson:"action"`
	Entity   string         `json:"entity" bson:"entity"`
	EntityID string         `json:"entity_id" bson:"entity_id"`
	Changes  map[string]any `json:"changes,omitempty" bson:"changes,omitempty"`
	Details  string         `json:"details,omitempty" bson:"details,omitempty"`
	Priority AuditPriority  `json:"priority" bson:"priority"`
	At       time.Time      `json:"at" bson:"at"`
}

// Audit action tags used by the lifecycle engine.
const (
	AuditIncidentCreated    = "incident_created"
	AuditIncidentUpdated    = "incident_updated"
	AuditIncidentStatus     = "incident_status_changed"
	AuditIncidentResolved   = "incident_resolved"
	AuditIncidentClosed     = "incident_closed"
	AuditIncidentAutoClosed = "incident_auto_closed"
	AuditIncidentAssigned   = "incident_assigned"
	AuditUserCreated        = "user_created"
	AuditUserUpdated        = "user_updated"
	AuditUserDeleted        = "user_deleted"
	AuditAreaCreated        = "area_created"
	AuditAreaUpdated        = "area_updated"
	AuditAreaDeleted        = "area_deleted"
	AuditLogin              = "login"
)
