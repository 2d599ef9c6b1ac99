package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordPolicy_Check(t *testing.T) {
	p := DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		problems int
	}{
		{"meets every rule", "Passw0rd!", 0},
		{"exactly six", "Aa1!bc", 0},
		{"too short", "Aa1!", 1},
		{"no symbol", "Passw0rd", 1},
		{"no digit", "Password!", 1},
		{"no lowercase", "PASSW0RD!", 1},
		{"no uppercase", "passw0rd!", 1},
		{"empty", "", 5},
		{"unicode letters count", "Ünïcödé1!", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, p.Check(tt.password), tt.problems)
		})
	}
}

func TestPasswordPolicy_MessageOrder(t *testing.T) {
	msg := DefaultPasswordPolicy().Message("abc")
	assert.Equal(t,
		"Passwords must be at least 6 characters. "+
			"Passwords must have at least one non alphanumeric character. "+
			"Passwords must have at least one digit ('0'-'9'). "+
			"Passwords must have at least one uppercase ('A'-'Z').",
		msg)
}

func TestPasswordPolicy_Relaxed(t *testing.T) {
	p := PasswordPolicy{MinLength: 4}
	assert.Empty(t, p.Check("abcd"))
}
