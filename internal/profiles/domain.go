package profiles

import (
	"errors"
	"strings"
	"time"
)

// Role is the coarse authorization tag stored on a profile.
type Role string

const (
	// RoleNone marks an unknown or unresolved role.
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ErrNotFound indicates that no profile row exists for the id.
var ErrNotFound = errors.New("profiles: not found")

// ErrInvalidRole is returned when writing a role outside the known set.
var ErrInvalidRole = errors.New("profiles: invalid role")

// Profile links a user id to its role.
type Profile struct {
	ID        string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseRole maps a stored value to a known role, RoleNone otherwise.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleUser:
		return RoleUser
	default:
		return RoleNone
	}
}

// Valid reports whether r is a storable role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string {
	return string(r)
}

// IsNone reports whether no role is known.
func (r Role) IsNone() bool {
	return r == RoleNone
}
