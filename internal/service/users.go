package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
	"golang.org/x/sync/errgroup"
)

// roleFanOut bounds concurrent role lookups in List.
const roleFanOut = 8

const duplicateEmailMessage = "A user with this email already exists."

// UserServiceOptions groups dependencies for UserService. Clock, Policy and Logger are optional.
type UserServiceOptions struct {
	Users  ports.UserStore
	Roles  ports.RoleStore
	Hasher ports.PasswordHasher
	Clock  ports.Clock
	Policy *PasswordPolicy
	Logger *slog.Logger
}

// UserService implements the admin user-management workflow.
type UserService struct {
	users  ports.UserStore
	roles  ports.RoleStore
	hasher ports.PasswordHasher
	clock  ports.Clock
	policy PasswordPolicy
	logger *slog.Logger
}

// NewUserService constructs a UserService. It panics when a store or the hasher is missing.
func NewUserService(opts UserServiceOptions) *UserService {
	if opts.Users == nil || opts.Roles == nil || opts.Hasher == nil {
		panic("service: UserService requires Users, Roles and Hasher")
	}
	s := &UserService{
		users:  opts.Users,
		roles:  opts.Roles,
		hasher: opts.Hasher,
		clock:  opts.Clock,
		policy: DefaultPasswordPolicy(),
		logger: opts.Logger,
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	if opts.Policy != nil {
		s.policy = *opts.Policy
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "user_service")
	return s
}

// List returns every user with its role names, in store order.
func (s *UserService) List(ctx context.Context) ([]model.UserWithRoles, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserWithRoles, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roleFanOut)
	for i, u := range users {
		g.Go(func() error {
			roles, err := s.users.RolesFor(gctx, u.ID)
			if err != nil {
				return fmt.Errorf("roles for %s: %w", u.ID, err)
			}
			out[i] = model.UserWithRoles{User: u, Roles: roles}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RoleNames lists the assignable roles.
func (s *UserService) RoleNames(ctx context.Context) ([]string, error) {
	return s.roles.ListNames(ctx)
}

// Register validates req, applies the password policy and creates the user together with
// its role. An unknown or empty role falls back to "User".
func (s *UserService) Register(ctx context.Context, req model.RegisterUserRequest) (model.User, error) {
	req.Normalize()

	fe := apperrors.FieldErrors{}
	if ferrs, ok := apperrors.AsFieldErrors(req.Validate()); ok {
		for k, v := range ferrs {
			fe.Add(k, v)
		}
	}
	if req.Password != "" {
		if msg := s.policy.Message(req.Password); msg != "" {
			fe.Add("password", msg)
		}
	}
	if err := fe.Err(); err != nil {
		return model.User{}, err
	}

	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return model.User{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, ports.NewUser{
		Email:        req.Email,
		UserName:     req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RegisteredAt: s.clock.Now().UTC(),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return model.User{}, emailConflict(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", role)
	return u, nil
}

func (s *UserService) resolveRole(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		return auth.RoleNameUser, nil
	}
	ok, err := s.roles.Exists(ctx, requested)
	if err != nil {
		return "", err
	}
	if !ok {
		return auth.RoleNameUser, nil
	}
	return requested, nil
}

// Get returns a user or a NotFound error.
func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

// GetByEmail returns a user by email or a NotFound error.
func (s *UserService) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// Update overwrites the editable profile fields of user id.
func (s *UserService) Update(ctx context.Context, id string, req model.UpdateUserRequest) (model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return model.User{}, err
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.users.Update(ctx, req.Apply(current))
	if err != nil {
		return model.User{}, emailConflict(err)
	}
	s.logger.InfoContext(ctx, "user updated", "user_id", u.ID)
	return u, nil
}

// Delete removes user id. Deleting an absent user succeeds.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// AssignRole grants an additional role to the user registered under email.
func (s *UserService) AssignRole(ctx context.Context, email, role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return apperrors.ValidationField("role", "Role is required.")
	}
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	ok, err := s.roles.Exists(ctx, role)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ValidationField("role", "The selected role does not exist.")
	}
	if err := s.users.AssignRole(ctx, u.ID, role); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "role assigned", "user_id", u.ID, "role", role)
	return nil
}

// emailConflict reports uniqueness violations on the email, whichever unique column tripped.
func emailConflict(err error) error {
	if !apperrors.IsConflict(err) {
		return err
	}
	switch apperrors.GetField(err) {
	case "", "email", "user_name":
		return &apperrors.AppError{
			Code:    apperrors.ErrCodeConflict,
			Message: duplicateEmailMessage,
			Field:   "email",
			Cause:   err,
		}
	}
	return err
}
