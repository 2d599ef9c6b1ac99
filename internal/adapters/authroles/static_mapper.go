// Package authroles maps identity provider groups onto portal roles.
package authroles

import (
	"strings"

	domainauth "github.com/target/staff-portal/internal/domain/auth"
)

// StaticRoleMapper grants admin to members of AdminGroup and user to members of UserGroup.
// Group names compare case-insensitively; AD distinguished names match on their CN.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

// Map returns the highest role any group qualifies for, or guest.
func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	role := domainauth.RoleGuest
	for _, g := range groups {
		switch {
		case matches(g, m.AdminGroup):
			return domainauth.RoleAdmin
		case matches(g, m.UserGroup):
			role = domainauth.RoleUser
		}
	}
	return role
}

func matches(group, want string) bool {
	if want == "" {
		return false
	}
	if strings.EqualFold(group, want) {
		return true
	}
	if cn, ok := strings.CutPrefix(group, "CN="); ok {
		cn, _, _ = strings.Cut(cn, ",")
		return strings.EqualFold(cn, want)
	}
	return false
}
