package domain

// Capability is a named permission granted to a role.
type Capability string

const (
	CapIncidentsCreate         Capability = "incidents:create"
	CapIncidentsReadAll        Capability = "incidents:read:all"
	CapIncidentsUpdateAll      Capability = "incidents:update:all"
	CapIncidentsUpdateAssigned Capability = "incidents:update:assigned"
	CapIncidentsAssign         Capability = "incidents:assign"
	CapIncidentsComment        Capability = "incidents:comment"
	CapUsersCreate             Capability = "users:create"
	CapUsersRead               Capability = "users:read"
	CapUsersUpdate             Capability = "users:update"
	CapUsersDelete             Capability = "users:delete"
	CapAreasManage             Capability = "areas:manage"
	CapNotificationsRead       Capability = "notifications:read"
	CapAuditRead               Capability = "audit:read"
)

// rolePermissions is the static role → capability table. Every mutating entry
// point checks against this table before touching the store; there is no
// per-route ad hoc role comparison.
var rolePermissions = map[string]map[Capability]struct{}{
	RoleAdmin: capSet(
		CapIncidentsCreate, CapIncidentsReadAll, CapIncidentsUpdateAll,
		CapIncidentsUpdateAssigned, CapIncidentsAssign, CapIncidentsComment,
		CapUsersCreate, CapUsersRead, CapUsersUpdate, CapUsersDelete,
		CapAreasManage, CapNotificationsRead, CapAuditRead,
	),
	RoleSupport: capSet(
		CapIncidentsCreate, CapIncidentsReadAll, CapIncidentsUpdateAssigned,
		CapIncidentsAssign, CapIncidentsComment, CapNotificationsRead,
	),
	RoleEndUser: capSet(
		CapIncidentsCreate, CapIncidentsReadAll, CapIncidentsComment,
		CapNotificationsRead,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	s := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// HasPermission reports whether role holds the capability.
func HasPermission(role string, capability Capability) bool {
	_, ok := rolePermissions[role][capability]
	return ok
}

// HasAny reports whether role holds at least one of caps.
func HasAny(role string, caps ...Capability) bool {
	for _, c := range caps {
		if HasPermission(role, c) {
			return true
		}
	}
	return false
}

// HasAll reports whether role holds every capability in caps.
func HasAll(role string, caps ...Capability) bool {
	for _, c := range caps {
		if !HasPermission(role, c) {
			return false
		}
	}
	return true
}
