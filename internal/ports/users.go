package ports

import (
	"context"
	"time"

	"github.com/target/staff-portal/internal/domain/model"
)

// NewUser is what the store needs to create an account.
type NewUser struct {
	Email        string
	UserName     string
	FirstName    string
	LastName     string
	RegisteredAt time.Time
	PasswordHash string
	// Role is assigned in the same transaction as the insert.
	Role string
}

// UserStore persists user accounts and their role memberships.
type UserStore interface {
	// Create inserts the user and its role membership atomically.
	Create(ctx context.Context, u NewUser) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// Update writes the profile fields of u. Identifier, password and registration date are untouched.
	Update(ctx context.Context, u model.User) (model.User, error)
	// Delete removes the user; deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
	RolesFor(ctx context.Context, userID string) ([]string, error)
	// AssignRole adds an existing role to the user; holding it already is not an error.
	AssignRole(ctx context.Context, userID, role string) error
}

// RoleStore reads the role catalogue.
type RoleStore interface {
	ListNames(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// ClaimStore manages stored claims attached to users.
type ClaimStore interface {
	ListFor(ctx context.Context, userID string) ([]model.Claim, error)
	Set(ctx context.Context, c model.Claim) error
	Remove(ctx context.Context, userID, claimType string) error
}

// CredentialStore exposes password hashes for login. Only the auth service uses it.
type CredentialStore interface {
	PasswordHash(ctx context.Context, email string) (userID, hash string, err error)
}
