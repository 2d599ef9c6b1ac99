package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}
		cfg := DefaultTestDBConfig()
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, "55432", cfg.Port)
		assert.Equal(t, "staff_portal", cfg.User)
		assert.Equal(t, "staff_portal", cfg.DBName)
	})

	t.Run("respects TEST_DB_PORT", func(t *testing.T) {
		t.Setenv("TEST_DB_PORT", "5432")
		assert.Equal(t, "5432", DefaultTestDBConfig().Port)
	})
}

func TestTestDBConfig_DSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "portal"}
	dsn := cfg.DSN()
	assert.True(t, strings.HasPrefix(dsn, "postgres://u:p%40ss@db:5432/portal"), dsn)
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestUniqueEmail_DoesNotRepeat(t *testing.T) {
	seen := map[string]bool{}
	for range 20 {
		e := UniqueEmail("x")
		assert.False(t, seen[e])
		seen[e] = true
	}
}

func TestNewRegisterRequest_IsValid(t *testing.T) {
	req := NewRegisterRequest().WithRole("Admin").Build()
	req.Normalize()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "Admin", req.Role)
}
