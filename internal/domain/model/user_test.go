package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/staff-portal/internal/errors"
)

func TestRegisterUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		req        RegisterUserRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  RegisterUserRequest{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", Password: "x"},
		},
		{
			name:       "empty email",
			req:        RegisterUserRequest{FirstName: "Ann", LastName: "Lee", Password: "x"},
			wantFields: []string{"email"},
		},
		{
			name:       "malformed email",
			req:        RegisterUserRequest{Email: "Ann <ann@example.com>", FirstName: "Ann", LastName: "Lee", Password: "x"},
			wantFields: []string{"email"},
		},
		{
			name:       "everything missing",
			req:        RegisterUserRequest{},
			wantFields: []string{"email", "first_name", "last_name", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}
			fe, ok := apperrors.AsFieldErrors(err)
			require.True(t, ok, "expected field errors, got %v", err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fe, f)
			}
			assert.Len(t, fe, len(tt.wantFields))
		})
	}
}

func TestRegisterUserRequest_NormalizeKeepsPassword(t *testing.T) {
	req := RegisterUserRequest{Email: " ann@example.com ", Password: " spaced "}
	req.Normalize()
	assert.Equal(t, "ann@example.com", req.Email)
	assert.Equal(t, " spaced ", req.Password)
}

func TestUpdateUserRequest_ApplyTouchesOnlyProfile(t *testing.T) {
	registered := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	u := User{ID: "id-1", Email: "old@example.com", UserName: "old@example.com", FirstName: "Old", LastName: "Name", RegisteredAt: registered}

	got := UpdateUserRequest{Email: "new@example.com", FirstName: "New", LastName: "Person"}.Apply(u)

	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, registered, got.RegisteredAt)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "new@example.com", got.UserName)
	assert.Equal(t, "New Person", got.FullName())
}

func TestUpdateUserRequest_ValidateLengths(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	req := UpdateUserRequest{Email: "ann@example.com", FirstName: string(long), LastName: "Lee"}
	fe, ok := apperrors.AsFieldErrors(req.Validate())
	require.True(t, ok)
	assert.Equal(t, "First name cannot exceed 100 characters.", fe["first_name"])
}
