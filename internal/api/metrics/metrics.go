// Package metrics defines and registers all custom Prometheus metrics for the
// incident API. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry via promauto
// at package init; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "incidents"

// IncidentsCreatedTotal counts newly filed incidents.
// Label:
//   - priority: "Low", "Medium", "High" or "Critical"
var IncidentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of incidents created, by priority.",
	},
	[]string{"priority"},
)

// TransitionsTotal counts lifecycle transitions, manual and automatic.
// Labels:
//   - from, to: lifecycle statuses (e.g. "resolved" → "closed")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of incident status transitions.",
	},
	[]string{"from", "to"},
)

// AutoCloseTotal counts auto-close attempts.
// Label:
//   - result: "closed" or "skipped" (status had already moved on)
var AutoCloseTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auto_close_total",
		Help:      "Total number of auto-close firings, by result.",
	},
	[]string{"result"},
)

// NotificationsPersistedTotal counts notifications written to the store.
// Label:
//   - type: notification event type (e.g. "incident_created")
var NotificationsPersistedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_persisted_total",
		Help:      "Total number of notifications persisted, by event type.",
	},
	[]string{"type"},
)

// NotificationsPushedTotal counts realtime push decisions.
// Label:
//   - result: "sent" (recipient had a session) or "offline"
var NotificationsPushedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_pushed_total",
		Help:      "Total number of realtime push attempts, by result.",
	},
	[]string{"result"},
)

// AuditFailuresTotal counts audit writes that failed and were swallowed.
var AuditFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_failures_total",
		Help:      "Total number of audit records that could not be stored.",
	},
)

// AuditCriticalTotal counts critical-priority audit events, which also emit
// an operational warning.
var AuditCriticalTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_critical_total",
		Help:      "Total number of critical-priority audit events recorded.",
	},
)

// WebsocketSessions tracks currently open realtime sessions.
var WebsocketSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_sessions",
		Help:      "Number of currently connected realtime sessions.",
	},
)
