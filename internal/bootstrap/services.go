package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/staff-portal/config"
	"github.com/target/staff-portal/internal/adapters/password"
	"github.com/target/staff-portal/internal/data"
	"github.com/target/staff-portal/internal/domain/policy"
	"github.com/target/staff-portal/internal/ports"
	"github.com/target/staff-portal/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Users    *service.UserService
	Claims   *service.ClaimService
	Auth     *service.AuthService
	Policies *policy.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Clock       ports.Clock
	Logger      *slog.Logger
}

type serviceRepositories struct {
	Users  *data.UserRepo
	Roles  *data.RoleRepo
	Claims *data.ClaimRepo
}

func buildRepositories(db *sql.DB) serviceRepositories {
	return serviceRepositories{
		Users:  data.NewUserRepo(db),
		Roles:  data.NewRoleRepo(db),
		Claims: data.NewClaimRepo(db),
	}
}

// NewDirectoryServices builds the services that only need the database: user management
// and stored claims. The admin CLI uses it directly.
func NewDirectoryServices(db *sql.DB, clock ports.Clock, logger *slog.Logger) (*service.UserService, *service.ClaimService, error) {
	d, err := newDirectory(db, clock, logger)
	if err != nil {
		return nil, nil, err
	}
	return d.users, d.claims, nil
}

type directory struct {
	repos  serviceRepositories
	hasher ports.PasswordHasher
	users  *service.UserService
	claims *service.ClaimService
}

func newDirectory(db *sql.DB, clock ports.Clock, logger *slog.Logger) (directory, error) {
	if db == nil {
		return directory{}, errors.New("database is required")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	hasher, err := password.NewArgon2(password.DefaultParams())
	if err != nil {
		return directory{}, fmt.Errorf("password hasher: %w", err)
	}
	repos := buildRepositories(db)
	pwPolicy := service.DefaultPasswordPolicy()

	return directory{
		repos:  repos,
		hasher: hasher,
		users: service.NewUserService(service.UserServiceOptions{
			Users:  repos.Users,
			Roles:  repos.Roles,
			Hasher: hasher,
			Clock:  clock,
			Policy: &pwPolicy,
			Logger: logger,
		}),
		claims: service.NewClaimService(service.ClaimServiceOptions{
			Users:  repos.Users,
			Claims: repos.Claims,
			Logger: logger,
		}),
	}, nil
}

// NewServices wires every service the HTTP server needs.
func NewServices(ctx context.Context, deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("app config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	dir, err := newDirectory(deps.DB, clock, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	policies, err := policy.NewRegistry(clock, policy.DefaultDefinitions()...)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("policy registry: %w", err)
	}

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Directory: Directory{
			Users:       dir.repos.Users,
			Claims:      dir.repos.Claims,
			Credentials: dir.repos.Users,
			Hasher:      dir.hasher,
		},
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Users:    dir.users,
		Claims:   dir.claims,
		Auth:     auth,
		Policies: policies,
	}, nil
}
