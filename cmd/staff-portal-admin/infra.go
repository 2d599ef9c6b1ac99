package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/staff-portal/internal/bootstrap"
	"github.com/target/staff-portal/internal/domain/model"
	"github.com/target/staff-portal/internal/migrate"
)

// userAdmin is the slice of the user service the CLI drives.
type userAdmin interface {
	Register(ctx context.Context, req model.RegisterUserRequest) (model.User, error)
	List(ctx context.Context) ([]model.UserWithRoles, error)
	AssignRole(ctx context.Context, email, role string) error
}

type claimAdmin interface {
	Grant(ctx context.Context, email, claimType, value string) error
	Revoke(ctx context.Context, email, claimType string) error
	List(ctx context.Context, email string) ([]model.Claim, error)
}

// migrator applies schema changes in one direction: up, down or status.
type migrator func(ctx context.Context, direction string) error

// environment is what a subcommand runs against. Close releases the database.
type environment struct {
	Users   userAdmin
	Claims  claimAdmin
	Migrate migrator
	Logger  *slog.Logger
	Close   func()
}

type openFunc func(ctx context.Context) (*environment, error)

// openEnvironment loads config and connects Postgres. Redis is not needed by any subcommand.
func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := bootstrap.InitLogger(cfg.LogLevel)

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	users, claims, err := bootstrap.NewDirectoryServices(db, nil, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &environment{
		Users:   users,
		Claims:  claims,
		Migrate: dbMigrator(db, logger),
		Logger:  logger,
		Close: func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("close database failed", "error", cerr)
			}
		},
	}, nil
}

func dbMigrator(db *sql.DB, logger *slog.Logger) migrator {
	return func(ctx context.Context, direction string) error {
		switch direction {
		case "up":
			return migrate.Up(ctx, db, logger)
		case "down":
			return migrate.Down(ctx, db, logger)
		case "status":
			return migrate.Status(ctx, db, logger)
		default:
			return fmt.Errorf("unknown migration direction %q", direction)
		}
	}
}
