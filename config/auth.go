package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLocal verifies email and password against the user store.
	AuthModeLocal AuthMode = "local"
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch AuthMode(v) {
	case AuthModeLocal, AuthModeOAuth, AuthModeMock:
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: local, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`

	// ClaimMap maps principal claim types to JMESPath expressions evaluated against the
	// ID token claims, e.g. "EmploymentStartDate=hire_date;AdminClaim=contains(groups, 'portal-admins')".
	// An expression yielding null, false or an empty string leaves the claim unset.
	ClaimMap map[string]string `env:"CLAIM_MAP" envSeparator:";" envKeyValSeparator:"="`
}

// DevAuthConfig controls the identity logged in when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID    string            `env:"USER_ID"    envDefault:"dev-user"`
	Email     string            `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string            `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string            `env:"LAST_NAME"  envDefault:"User"`
	Groups    []string          `env:"GROUPS"     envDefault:"admins"          envSeparator:";"`
	Claims    map[string]string `env:"CLAIMS"     envSeparator:";"             envKeyValSeparator:"="`
}

// LoginConfig throttles failed local logins.
type LoginConfig struct {
	MaxAttempts   int           `env:"MAX_ATTEMPTS"   envDefault:"5"`
	LockoutWindow time.Duration `env:"LOCKOUT_WINDOW" envDefault:"15m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"local"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
	Login   LoginConfig   `envPrefix:"LOGIN_"`

	// SessionTTL bounds how long a session lives in Redis.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	// AdminGroup and UserGroup map IdP groups to roles in oauth and mock modes.
	AdminGroup string `env:"AUTH_ADMIN_GROUP" envDefault:"admins"`
	UserGroup  string `env:"AUTH_USER_GROUP"  envDefault:"users"`
}

// Sanitize fills defaults the env tags cannot express.
func (a *AuthConfig) Sanitize() {
	if a.Mode == "" {
		a.Mode = AuthModeLocal
	}
	if a.Login.MaxAttempts < 1 {
		a.Login.MaxAttempts = 5
	}
	if a.Login.LockoutWindow <= 0 {
		a.Login.LockoutWindow = 15 * time.Minute
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
}

// Validate checks mode-specific required settings.
func (a *AuthConfig) Validate() error {
	if a.Mode != AuthModeOAuth {
		return nil
	}
	var missing []string
	if a.OAuth.ClientID == "" {
		missing = append(missing, "OAUTH_CLIENT_ID")
	}
	if a.OAuth.ClientSecret == "" {
		missing = append(missing, "OAUTH_CLIENT_SECRET")
	}
	if a.OAuth.DiscoveryURL == "" {
		missing = append(missing, "OAUTH_DISCOVERY_URL")
	}
	if len(missing) > 0 {
		return errors.New("AUTH_MODE=oauth requires " + strings.Join(missing, ", "))
	}
	return nil
}
