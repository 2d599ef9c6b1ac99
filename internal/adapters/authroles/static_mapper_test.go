package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "admins", UserGroup: "users"}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"admin wins regardless of order", []string{"users", "Admins"}, domainauth.RoleAdmin},
		{"user", []string{"users"}, domainauth.RoleUser},
		{"AD distinguished name", []string{"CN=Admins,OU=Groups,DC=corp"}, domainauth.RoleAdmin},
		{"no match", []string{"contractors"}, domainauth.RoleGuest},
		{"empty", nil, domainauth.RoleGuest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyGroupNeverMatches(t *testing.T) {
	assert.Equal(t, domainauth.RoleGuest, StaticRoleMapper{}.Map([]string{""}))
}
