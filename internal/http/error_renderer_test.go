package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/staff-portal/internal/errors"
)

func TestClassifyFormError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantFields map[string]string
		unexpected bool
	}{
		{
			name:       "field validation",
			err:        apperrors.FieldErrors{"email": "Email is required."}.Err(),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    errMsgFixBelow,
			wantFields: map[string]string{"email": "Email is required."},
		},
		{
			name:       "conflict on a field",
			err:        apperrors.ConflictField("email", "A user with this email already exists."),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    errMsgFixBelow,
			wantFields: map[string]string{"email": "A user with this email already exists."},
		},
		{
			name:       "conflict without a field",
			err:        apperrors.Conflict("Already exists."),
			wantStatus: http.StatusConflict,
			wantMsg:    "Already exists.",
		},
		{
			name:       "timeout",
			err:        fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    msgTimedOut,
		},
		{
			name:       "unexpected",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    msgSaveFailed,
			unexpected: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyFormError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.unexpected, got.Unexpected)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, map[string]string(got.Fields))
			} else {
				assert.Empty(t, got.Fields)
			}
		})
	}
}
