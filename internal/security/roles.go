package security

import "strings"

// Role is the enumerated account role. Authorization decisions go through
// the capability methods below instead of comparing raw strings.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleMember  Role = "member"
)

// ParseRole maps an arbitrary string onto a known role. Unknown or empty
// input degrades to the least-privileged role.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleAnalyst:
		return RoleAnalyst
	default:
		return RoleMember
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAnalyst || r == RoleMember
}

func (r Role) HasAdminAccess() bool {
	return r == RoleAdmin
}

func (r Role) HasAnalyticsAccess() bool {
	return r == RoleAdmin || r == RoleAnalyst
}

func (r Role) CanCreateAlerts() bool {
	return r == RoleAdmin || r == RoleAnalyst
}
