// internal/domain/auth/actor.go
package auth

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleSystem     = "system"
)

// SystemActorID is recorded as the actor of automatic transitions (sweeps).
const SystemActorID int64 = 0

// Actor identifies who performs a lifecycle or settlement operation.
// It is passed explicitly into every service call instead of being read
// from request state.
type Actor struct {
	ID    int64    `json:"id"`
	Roles []string `json:"roles,omitempty"`
}

func NewActor(id int64, roles ...string) Actor {
	return Actor{ID: id, Roles: roles}
}

// SystemActor is the actor used by background jobs.
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Roles: []string{RoleSystem}}
}

// HasRole checks if the actor carries a specific role
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if actor is an admin (including super admin)
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin) || a.HasRole(RoleSuperAdmin)
}

func (a Actor) IsSystem() bool {
	return a.HasRole(RoleSystem)
}
