package auth

// Package auth contains domain-level types for authentication, sessions and principals.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role is the coarse authorization level carried on a session.
// Stored role names ("Admin", "User") map onto it case-insensitively.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Stored role names seeded by the schema.
const (
	RoleNameAdmin = "Admin"
	RoleNameUser  = "User"
)

// Claims holds claim type to value pairs for a principal.
type Claims map[string]string

// Lookup finds a claim by type, ignoring case.
func (c Claims) Lookup(claimType string) (string, bool) {
	if v, ok := c[claimType]; ok {
		return v, true
	}
	for k, v := range c {
		if strings.EqualFold(k, claimType) {
			return v, true
		}
	}
	return "", false
}

// Has reports whether a claim of the given type is present, with any value.
func (c Claims) Has(claimType string) bool {
	_, ok := c.Lookup(claimType)
	return ok
}

// Identity is the authenticated principal returned by a provider.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	Claims    Claims
	ExpiresAt time.Time
}

// Session is the server-side record persisted for an authenticated user.
// It is the per-request principal: handlers read it, never mutate it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Roles     []string  `json:"roles,omitempty"`
	Claims    Claims    `json:"claims,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// InRole reports whether the session holds the named stored role.
func (s Session) InRole(name string) bool {
	for _, r := range s.Roles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// DisplayName prefers the full name and falls back to the email.
func (s Session) DisplayName() string {
	if n := strings.TrimSpace(s.FirstName + " " + s.LastName); n != "" {
		return n
	}
	return s.Email
}

// RoleFromNames derives the highest coarse role from stored role names.
func RoleFromNames(names []string) Role {
	role := RoleGuest
	for _, n := range names {
		switch {
		case strings.EqualFold(n, RoleNameAdmin):
			return RoleAdmin
		case strings.EqualFold(n, RoleNameUser):
			role = RoleUser
		}
	}
	return role
}

// StoredRoleNames names the stored roles implied by a coarse role.
func StoredRoleNames(r Role) []string {
	switch r {
	case RoleAdmin:
		return []string{RoleNameAdmin}
	case RoleUser:
		return []string{RoleNameUser}
	default:
		return nil
	}
}

// Higher returns the more privileged of two roles.
func Higher(a, b Role) Role {
	rank := func(r Role) int {
		switch r {
		case RoleAdmin:
			return 2
		case RoleUser:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
