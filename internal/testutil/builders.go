package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/target/staff-portal/internal/domain/model"
)

var seq atomic.Int64

// UniqueEmail returns an address that no other call in this process has returned.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, seq.Add(1))
}

// RegisterRequestBuilder builds valid registration requests for tests.
type RegisterRequestBuilder struct {
	req model.RegisterUserRequest
}

// NewRegisterRequest starts from a request that passes validation.
func NewRegisterRequest() *RegisterRequestBuilder {
	return &RegisterRequestBuilder{req: model.RegisterUserRequest{
		Email:     UniqueEmail("user"),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "Passw0rd!",
	}}
}

// WithEmail sets the email.
func (b *RegisterRequestBuilder) WithEmail(email string) *RegisterRequestBuilder {
	b.req.Email = email
	return b
}

// WithName sets first and last name.
func (b *RegisterRequestBuilder) WithName(first, last string) *RegisterRequestBuilder {
	b.req.FirstName, b.req.LastName = first, last
	return b
}

// WithPassword sets the password.
func (b *RegisterRequestBuilder) WithPassword(pw string) *RegisterRequestBuilder {
	b.req.Password = pw
	return b
}

// WithRole sets the requested role.
func (b *RegisterRequestBuilder) WithRole(role string) *RegisterRequestBuilder {
	b.req.Role = role
	return b
}

// Build returns a copy of the request.
func (b *RegisterRequestBuilder) Build() *model.RegisterUserRequest {
	r := b.req
	return &r
}
