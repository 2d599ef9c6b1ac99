package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/staff-portal/config"
	"github.com/target/staff-portal/internal/adapters/authroles"
	"github.com/target/staff-portal/internal/adapters/devauth"
	"github.com/target/staff-portal/internal/adapters/oidc"
	redisadapter "github.com/target/staff-portal/internal/adapters/redis"
	"github.com/target/staff-portal/internal/ports"
	"github.com/target/staff-portal/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Directory   Directory
	Logger      *slog.Logger
}

// Directory groups the stores a login consults for local accounts.
type Directory struct {
	Users       ports.UserStore
	Claims      ports.ClaimStore
	Credentials ports.CredentialStore
	Hasher      ports.PasswordHasher
}

// BuildAuthService wires the auth service for the configured mode. Every mode keeps sessions
// in Redis; local mode also needs the directory stores and a password hasher.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth requires a redis client for sessions")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := service.AuthServiceOptions{
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:"),
		Roles: authroles.StaticRoleMapper{
			AdminGroup: cfg.Auth.AdminGroup,
			UserGroup:  cfg.Auth.UserGroup,
		},
		Users:      cfg.Directory.Users,
		Claims:     cfg.Directory.Claims,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.Auth.DevAuth.UserID,
			Email:           cfg.Auth.DevAuth.Email,
			FirstName:       cfg.Auth.DevAuth.FirstName,
			LastName:        cfg.Auth.DevAuth.LastName,
			Groups:          cfg.Auth.DevAuth.Groups,
			Claims:          cfg.Auth.DevAuth.Claims,
			SessionDuration: cfg.Auth.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		logger.WarnContext(ctx, "dev auth enabled; every visitor signs in as the configured identity",
			"email", cfg.Auth.DevAuth.Email)
		opts.Provider = prov

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
			ClaimMap:     oauth.ClaimMap,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		opts.Provider = prov

	default:
		if cfg.Directory.Credentials == nil || cfg.Directory.Hasher == nil {
			return nil, errors.New("local auth requires a credential store and password hasher")
		}
		opts.Credentials = cfg.Directory.Credentials
		opts.Hasher = cfg.Directory.Hasher
		opts.Limiter = redisadapter.NewLoginLimiter(cfg.RedisClient, redisadapter.LoginLimiterConfig{
			MaxAttempts: cfg.Auth.Login.MaxAttempts,
			Window:      cfg.Auth.Login.LockoutWindow,
		})
	}

	logger.InfoContext(ctx, "auth configured", "mode", cfg.Auth.Mode)
	return service.NewAuthService(opts), nil
}
