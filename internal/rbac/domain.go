package rbac

import (
	"github.com/surveyhub/surveyhub/internal/authstate"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

// Decision is the outcome of evaluating a guarded route.
type Decision int

const (
	// Pending means the role is still being resolved; nothing is rendered.
	Pending Decision = iota
	// Deny sends the visitor home.
	Deny
	// Allow serves the protected content.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decide evaluates snapshot against the role a route requires. A loading
// snapshot is never treated as unauthorized.
func Decide(snapshot authstate.Snapshot, required profiles.Role) Decision {
	if snapshot.Loading {
		return Pending
	}
	if snapshot.User != nil && snapshot.Role == required {
		return Allow
	}
	return Deny
}
