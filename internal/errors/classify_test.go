package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", NotFound("gone"), "errors_apperror"},
		{"wrapped cause", Wrap(context.DeadlineExceeded, ErrCodeTimeout, "slow"), "context_deadlineexceedederror"},
		{"fmt wrapped", fmt.Errorf("load: %w", errors.New("boom")), "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
