package domain

import "time"

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

const (
	StatusPending    IncidentStatus = "pending"
	StatusInProgress IncidentStatus = "in_progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusClosed     IncidentStatus = "closed"
)

// validTransitions defines the allowed state machine transitions.
// pending → resolved is a deliberate shortcut: a support agent may resolve a
// ticket without first marking it in progress. closed has no outgoing edges.
var validTransitions = map[IncidentStatus][]IncidentStatus{
	StatusPending:    {StatusInProgress, StatusResolved},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {StatusClosed, StatusInProgress},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s IncidentStatus) CanTransitionTo(next IncidentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a recognized lifecycle status.
func ValidStatus(s IncidentStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IncidentPriority is the urgency assigned by the reporter.
type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "Low"
	PriorityMedium   IncidentPriority = "Medium"
	PriorityHigh     IncidentPriority = "High"
	PriorityCritical IncidentPriority = "Critical"
)

// ValidPriority reports whether p is a recognized priority.
func ValidPriority(p IncidentPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// HistoryEntry records a single status-affecting action on an incident.
// History is append-only: entries are never mutated or removed.
type HistoryEntry struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Action    string    `json:"action" bson:"action"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Comment is a discussion entry. Comments live in their own ordered sequence,
// structurally distinct from the status history.
type Comment struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Incident is the core aggregate root.
type Incident struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Subject     string           `json:"subject" bson:"subject"`
	Description string           `json:"description" bson:"description"`
	Attachment  string           `json:"attachment,omitempty" bson:"attachment,omitempty"`
	Area        string           `json:"area" bson:"area"`
	Priority    IncidentPriority `json:"priority" bson:"priority"`
	Status      IncidentStatus   `json:"status" bson:"status"`
	AssignedTo  []string         `json:"assigned_to" bson:"assigned_to"`
	CreatedBy   string           `json:"created_by" bson:"created_by"`
	Solution    string           `json:"solution,omitempty" bson:"solution,omitempty"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	History     []HistoryEntry   `json:"history" bson:"history"`
	Comments    []Comment        `json:"comments" bson:"comments"`
	Tags        []string         `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updated_at"`
}

// AssignedToUser reports whether userID appears in the assignee set.
func (i *Incident) AssignedToUser(userID string) bool {
	for _, id := range i.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// Unassigned reports whether the incident has no assignees.
func (i *Incident) Unassigned() bool { return len(i.AssignedTo) == 0 }

// History action tags. The automatic closure carries its own tag so audits can
// distinguish it from a manual close.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionResolved      = "resolved"
	ActionClosed        = "closed"
	ActionAutoClosed    = "auto_closed"
	ActionAssigned      = "assigned"
	ActionUpdated       = "updated"
)
