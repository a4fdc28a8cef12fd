package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
	RoleEndUser = "end_user"
)

// SystemActorID is the sentinel identity attributed to actions the system
// performs on its own (e.g. automatic closure of resolved incidents).
const SystemActorID = "system"

// ValidRole reports whether role is one of the three shipped roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSupport || role == RoleEndUser
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the resolved identity a request acts under. The API layer builds it
// from the freshly re-resolved user, never solely from token claims.
type Actor struct {
	UserID string
	Role   string
}

// SystemActor is the sentinel actor for system-initiated actions.
var SystemActor = Actor{UserID: SystemActorID, Role: RoleAdmin}
