package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/target/staff-portal/internal/data/pgxutil"
	"github.com/target/staff-portal/internal/ports"
)

// RoleRepo reads the role catalogue seeded by migrations.
type RoleRepo struct {
	DB *sql.DB
}

// NewRoleRepo creates a new RoleRepo.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db}
}

var _ ports.RoleStore = (*RoleRepo)(nil)

// ListNames returns every role name in alphabetical order.
func (r *RoleRepo) ListNames(ctx context.Context) ([]string, error) {
	var out []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		names, err := pgxutil.CollectStrings(ctx, conn, `SELECT name FROM roles ORDER BY name`)
		out = names
		return err
	})
	if err != nil {
		return nil, mapErr("list roles", err)
	}
	return out, nil
}

// Exists reports whether a role with the given name exists, ignoring case.
func (r *RoleRepo) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE lower(name) = lower($1))`, name).Scan(&ok)
	if err != nil {
		return false, mapErr("check role", err)
	}
	return ok, nil
}
