package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/target/staff-portal/internal/errors"
)

const (
	msgSaveFailed = "Unable to save. Please try again."
	msgTimedOut   = "Request timed out. Please try again."
)

// formFailure is how a service error is shown on a form.
type formFailure struct {
	Fields  map[string]string
	Message string
	Status  int
	// Unexpected marks failures that must be logged with the request id.
	Unexpected bool
}

// classifyFormError maps a service error onto field errors, a form-level message and a status.
// Field errors always come with errMsgFixBelow and 422.
func classifyFormError(err error) formFailure {
	if fields, ok := apperrors.AsFieldErrors(err); ok {
		return formFailure{Fields: fields, Message: errMsgFixBelow, Status: http.StatusUnprocessableEntity}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), apperrors.IsTimeout(err):
		return formFailure{Message: msgTimedOut, Status: http.StatusServiceUnavailable}
	case apperrors.IsValidation(err):
		return formFailure{Message: apperrors.Message(err), Status: http.StatusUnprocessableEntity}
	case apperrors.IsConflict(err):
		return formFailure{Message: apperrors.Message(err), Status: http.StatusConflict}
	default:
		return formFailure{Message: msgSaveFailed, Status: http.StatusInternalServerError, Unexpected: true}
	}
}
