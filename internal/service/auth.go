package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password.")

var errSessionExpired = errors.New("session expired")

// LockedOutError is returned when too many failed logins were recorded for an email.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	mins := int(math.Ceil(e.RetryAfter.Minutes()))
	if mins < 1 {
		mins = 1
	}
	return "Too many failed login attempts. Try again in " + strconv.Itoa(mins) + " minute(s)."
}

// AuthServiceOptions groups dependencies for AuthService. Provider and RoleMapper are needed
// for the redirect flow; Credentials, Hasher and Limiter for local login. Directory stores
// let a local account contribute roles and claims to any login.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper

	Users       ports.UserStore
	Claims      ports.ClaimStore
	Credentials ports.CredentialStore
	Hasher      ports.PasswordHasher
	Limiter     ports.LoginLimiter

	SessionTTL time.Duration
	Clock      ports.Clock
	Logger     *slog.Logger
}

// AuthService issues, reads and revokes sessions.
type AuthService struct {
	provider    ports.AuthProvider
	sessions    ports.SessionStore
	roles       ports.RoleMapper
	users       ports.UserStore
	claims      ports.ClaimStore
	credentials ports.CredentialStore
	hasher      ports.PasswordHasher
	limiter     ports.LoginLimiter
	ttl         time.Duration
	clock       ports.Clock
	logger      *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	s := &AuthService{
		provider:    opts.Provider,
		sessions:    opts.Sessions,
		roles:       opts.Roles,
		users:       opts.Users,
		claims:      opts.Claims,
		credentials: opts.Credentials,
		hasher:      opts.Hasher,
		limiter:     opts.Limiter,
		ttl:         opts.SessionTTL,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = 8 * time.Hour
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "auth_service")
	return s
}

// SupportsRedirectLogin reports whether an external provider is configured.
func (s *AuthService) SupportsRedirectLogin() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin starts the provider flow and returns its auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("no auth provider configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, merges any local account with the same
// email into it and persists a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (domainauth.Session, error) {
	if s.provider == nil {
		return domainauth.Session{}, errors.New("no auth provider configured")
	}
	switch {
	case input.Code == "":
		return domainauth.Session{}, errors.New("authorization code is required")
	case input.State == "":
		return domainauth.Session{}, errors.New("state parameter is required")
	case input.Nonce == "":
		return domainauth.Session{}, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := domainauth.RoleGuest
	var roleNames []string
	if s.roles != nil {
		role = s.roles.Map(identity.Groups)
		roleNames = domainauth.StoredRoleNames(role)
	}
	claims := maps.Clone(identity.Claims)
	if claims == nil {
		claims = domainauth.Claims{}
	}

	userID := identity.UserID
	if local, found, lookupErr := s.localAccount(ctx, identity.Email); lookupErr != nil {
		return domainauth.Session{}, lookupErr
	} else if found {
		userID = local.user.ID
		role = domainauth.Higher(role, domainauth.RoleFromNames(local.roles))
		roleNames = mergeNames(roleNames, local.roles)
		maps.Copy(claims, local.claims)
	}

	sess := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    userID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      role,
		Roles:     roleNames,
		Claims:    claims,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "login completed", "user_id", sess.UserID, "role", sess.Role)
	return sess, nil
}

func (s *AuthService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("staff-portal-decoy")
		if err != nil {
			s.logger.Error("hash decoy password failed", "error", err)
			return
		}
		s.decoyHash = h
	})
	if s.decoyHash != "" {
		_, _ = s.hasher.Verify(password, s.decoyHash)
	}
}

// LocalLogin verifies email and password against the stored hash. Failures are counted
// per email; a success clears the count.
func (s *AuthService) LocalLogin(ctx context.Context, email, password string) (domainauth.Session, error) {
	if s.credentials == nil || s.hasher == nil {
		return domainauth.Session{}, errors.New("local login is not configured")
	}
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return domainauth.Session{}, ErrInvalidCredentials
	}

	if s.limiter != nil {
		ok, wait, err := s.limiter.Allowed(ctx, email)
		if err != nil {
			return domainauth.Session{}, fmt.Errorf("check login limiter: %w", err)
		}
		if !ok {
			s.logger.WarnContext(ctx, "login refused while locked out", "retry_after", wait)
			return domainauth.Session{}, &LockedOutError{RetryAfter: wait}
		}
	}

	_, hash, err := s.credentials.PasswordHash(ctx, email)
	if apperrors.IsNotFound(err) {
		// Unknown emails still pay for one verify so timing does not reveal which accounts exist.
		s.verifyDecoy(password)
		return domainauth.Session{}, s.failLogin(ctx, email)
	}
	if err != nil {
		return domainauth.Session{}, err
	}
	match, err := s.hasher.Verify(password, hash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash unreadable", "error", err)
	}
	if !match {
		return domainauth.Session{}, s.failLogin(ctx, email)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "reset login limiter failed", "error", err)
		}
	}

	local, found, err := s.localAccount(ctx, email)
	if err != nil {
		return domainauth.Session{}, err
	}
	if !found {
		return domainauth.Session{}, ErrInvalidCredentials
	}

	sess := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    local.user.ID,
		FirstName: local.user.FirstName,
		LastName:  local.user.LastName,
		Email:     local.user.Email,
		Role:      domainauth.RoleFromNames(local.roles),
		Roles:     local.roles,
		Claims:    local.claims,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "local login", "user_id", sess.UserID, "role", sess.Role)
	return sess, nil
}

func (s *AuthService) failLogin(ctx context.Context, email string) error {
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			return fmt.Errorf("record login failure: %w", err)
		}
	}
	return ErrInvalidCredentials
}

type localAccount struct {
	user   model.User
	roles  []string
	claims domainauth.Claims
}

// localAccount loads the stored user, roles and claims for email. found is false when there
// is no directory or no such user.
func (s *AuthService) localAccount(ctx context.Context, email string) (localAccount, bool, error) {
	if s.users == nil || strings.TrimSpace(email) == "" {
		return localAccount{}, false, nil
	}
	u, err := s.users.FindByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return localAccount{}, false, nil
	}
	if err != nil {
		return localAccount{}, false, fmt.Errorf("load local account: %w", err)
	}
	roles, err := s.users.RolesFor(ctx, u.ID)
	if err != nil {
		return localAccount{}, false, fmt.Errorf("load roles: %w", err)
	}
	claims := domainauth.Claims{}
	if s.claims != nil {
		stored, err := s.claims.ListFor(ctx, u.ID)
		if err != nil {
			return localAccount{}, false, fmt.Errorf("load claims: %w", err)
		}
		for _, c := range stored {
			claims[c.Type] = c.Value
		}
	}
	return localAccount{user: u, roles: roles, claims: claims}, true, nil
}

// GetSession retrieves a live session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.clock.Now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// mergeNames returns the case-insensitive union of a and b, sorted.
func mergeNames(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range slices.Concat(a, b) {
		k := strings.ToLower(n)
		if n == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func generateSessionID() string {
	return uuid.NewString()
}
