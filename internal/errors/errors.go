// Package errors defines the application error type shared by services, repositories and handlers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes an AppError.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict"
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeForbidden    ErrorCode = "forbidden"
	ErrCodeInternal     ErrorCode = "internal"
	ErrCodeTimeout      ErrorCode = "timeout"
	ErrCodeCanceled     ErrorCode = "canceled"
)

// AppError carries a code, a user-safe message, an optional form field and the underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	// Field names the form input the error belongs to, when there is one.
	Field string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newErr(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a NotFound error.
func NotFound(message string) *AppError { return newErr(ErrCodeNotFound, message) }

// NotFoundf creates a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newErr(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict creates a Conflict error.
func Conflict(message string) *AppError { return newErr(ErrCodeConflict, message) }

// ConflictField creates a Conflict error attached to a form field.
func ConflictField(field, message string) *AppError {
	e := newErr(ErrCodeConflict, message)
	e.Field = field
	return e
}

// Validation creates a Validation error.
func Validation(message string) *AppError { return newErr(ErrCodeValidation, message) }

// ValidationField creates a Validation error attached to a form field.
func ValidationField(field, message string) *AppError {
	e := newErr(ErrCodeValidation, message)
	e.Field = field
	return e
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(message string) *AppError { return newErr(ErrCodeUnauthorized, message) }

// Forbidden creates a Forbidden error.
func Forbidden(message string) *AppError { return newErr(ErrCodeForbidden, message) }

// Internal creates an Internal error.
func Internal(message string) *AppError { return newErr(ErrCodeInternal, message) }

// Wrap wraps err with an AppError. It returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// FieldErrors collects per-field messages from a validation result.
// The first message for a field wins.
type FieldErrors map[string]string

// Add records msg for field unless one is already present.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; ok {
		return
	}
	fe[field] = msg
}

// Err returns a *ValidationErrors when any messages were collected, else nil.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationErrors{Fields: fe}
}

// ValidationErrors reports several field errors at once.
type ValidationErrors struct {
	Fields FieldErrors
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// AsFieldErrors extracts per-field messages from err.
// A *ValidationErrors yields all of its fields; an AppError with a Field yields one entry.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Fields, true
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		return FieldErrors{appErr.Field: appErr.Message}, true
	}
	return nil, false
}

// IsAppError reports whether err is an AppError with the given code.
func IsAppError(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool     { return IsAppError(err, ErrCodeNotFound) }
func IsConflict(err error) bool     { return IsAppError(err, ErrCodeConflict) }
func IsUnauthorized(err error) bool { return IsAppError(err, ErrCodeUnauthorized) }
func IsForbidden(err error) bool    { return IsAppError(err, ErrCodeForbidden) }
func IsInternal(err error) bool     { return IsAppError(err, ErrCodeInternal) }
func IsTimeout(err error) bool      { return IsAppError(err, ErrCodeTimeout) }
func IsCanceled(err error) bool     { return IsAppError(err, ErrCodeCanceled) }

// IsValidation reports validation failures, including multi-field ones.
func IsValidation(err error) bool {
	var verrs *ValidationErrors
	return errors.As(err, &verrs) || IsAppError(err, ErrCodeValidation)
}

// GetCode returns the code of an AppError, or "" for other errors.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the field of an AppError, or "".
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// Message returns a message safe to show to the user.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != ErrCodeInternal {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
