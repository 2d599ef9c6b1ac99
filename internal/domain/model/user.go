//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/staff-portal/internal/errors"
)

const (
	maxEmailLen = 256
	maxNameLen  = 100
)

// User is the read model of an account. The password hash never leaves the store.
type User struct {
	ID           string    `json:"id"            db:"id"`
	Email        string    `json:"email"         db:"email"`
	UserName     string    `json:"user_name"     db:"user_name"`
	FirstName    string    `json:"first_name"    db:"first_name"`
	LastName     string    `json:"last_name"     db:"last_name"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserWithRoles pairs a user with its role names, in store order.
type UserWithRoles struct {
	User
	Roles []string `json:"roles"`
}

// Claim is a stored claim attached to a user.
type Claim struct {
	UserID string `json:"user_id" db:"user_id"`
	Type   string `json:"type"    db:"claim_type"`
	Value  string `json:"value"   db:"claim_value"`
}

// RegisterUserRequest carries the registration form. Role is optional.
type RegisterUserRequest struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// Normalize trims whitespace from every field except the password.
func (r *RegisterUserRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.TrimSpace(r.Role)
}

// Validate checks required fields and lengths. It does not apply the password policy.
func (r *RegisterUserRequest) Validate() error {
	fe := apperrors.FieldErrors{}
	validateProfile(fe, r.Email, r.FirstName, r.LastName)
	if r.Password == "" {
		fe.Add("password", "Password is required.")
	}
	return fe.Err()
}

// UpdateUserRequest carries the editable profile fields. Identifier, password and
// registration date are deliberately absent.
type UpdateUserRequest struct {
	Email     string
	FirstName string
	LastName  string
}

// Normalize trims whitespace from every field.
func (r *UpdateUserRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate checks required fields and lengths.
func (r *UpdateUserRequest) Validate() error {
	fe := apperrors.FieldErrors{}
	validateProfile(fe, r.Email, r.FirstName, r.LastName)
	return fe.Err()
}

// Apply copies the editable fields onto u. UserName follows Email.
func (r UpdateUserRequest) Apply(u User) User {
	u.Email = r.Email
	u.UserName = r.Email
	u.FirstName = r.FirstName
	u.LastName = r.LastName
	return u
}

func validateProfile(fe apperrors.FieldErrors, email, first, last string) {
	switch {
	case email == "":
		fe.Add("email", "Email is required.")
	case utf8.RuneCountInString(email) > maxEmailLen:
		fe.Add("email", "Email cannot exceed 256 characters.")
	case !ValidEmail(email):
		fe.Add("email", "Enter a valid email address.")
	}
	requiredName(fe, "first_name", "First name", first)
	requiredName(fe, "last_name", "Last name", last)
}

func requiredName(fe apperrors.FieldErrors, field, label, v string) {
	if v == "" {
		fe.Add(field, label+" is required.")
		return
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		fe.Add(field, label+" cannot exceed 100 characters.")
	}
}

// ValidEmail accepts a bare addr-spec such as "ann@example.com". Display-name forms are rejected.
func ValidEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v && strings.Contains(v, "@")
}

// NormalizeEmail is the comparison form used for lookups.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
