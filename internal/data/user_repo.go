package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/staff-portal/internal/data/pgxutil"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
)

const userColumns = `id::text AS id, email, user_name, first_name, last_name, registered_at`

// UserRepo provides database operations for users and their role memberships.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a UserRepo with the system clock.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom time provider.
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

var (
	_ ports.UserStore       = (*UserRepo)(nil)
	_ ports.CredentialStore = (*UserRepo)(nil)
)

// Create inserts the user and its role membership in one transaction. When the role
// does not exist nothing is written.
func (r *UserRepo) Create(ctx context.Context, nu ports.NewUser) (model.User, error) {
	registeredAt := nu.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = r.timeProvider.Now()
	}

	var out model.User
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			u, err := pgxutil.CollectOne[model.User](ctx, tx, `
				INSERT INTO users (email, user_name, first_name, last_name, password_hash, registered_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING `+userColumns,
				nu.Email, nu.UserName, nu.FirstName, nu.LastName, nu.PasswordHash, registeredAt.UTC(),
			)
			if err != nil {
				return err
			}

			tag, err := tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				SELECT $1::uuid, id FROM roles WHERE lower(name) = lower($2)
			`, u.ID, nu.Role)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return apperrors.ValidationField("role", "The selected role does not exist.")
			}
			out = u
			return nil
		},
	})
	if err != nil {
		return model.User{}, mapErr("create user", err)
	}
	return out, nil
}

// FindByID returns the user with the given id. Malformed ids are reported as not found.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, apperrors.NotFound("User not found.")
	}
	return r.findOne(ctx, "find user", `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id)
}

// FindByEmail matches the email case-insensitively.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, "find user by email",
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
}

func (r *UserRepo) findOne(ctx context.Context, op, query string, args ...any) (model.User, error) {
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		u, err := pgxutil.CollectOne[model.User](ctx, conn, query, args...)
		out = u
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apperrors.NotFound("User not found.")
	}
	if err != nil {
		return model.User{}, mapErr(op, err)
	}
	return out, nil
}

// Update writes the profile fields of u.
func (r *UserRepo) Update(ctx context.Context, u model.User) (model.User, error) {
	if !validID(u.ID) {
		return model.User{}, apperrors.NotFound("User not found.")
	}
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		updated, err := pgxutil.CollectOne[model.User](ctx, conn, `
			UPDATE users
			SET email = $2, user_name = $3, first_name = $4, last_name = $5, updated_at = $6
			WHERE id = $1::uuid
			RETURNING `+userColumns,
			u.ID, u.Email, u.UserName, u.FirstName, u.LastName, r.timeProvider.Now().UTC(),
		)
		out = updated
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apperrors.NotFound("User not found.")
	}
	if err != nil {
		return model.User{}, mapErr("update user", err)
	}
	return out, nil
}

// Delete removes the user. Role memberships and claims go with it.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	return mapErr("delete user", err)
}

// List returns every user ordered by registration time, then email.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		users, err := pgxutil.CollectAll[model.User](ctx, conn,
			`SELECT `+userColumns+` FROM users ORDER BY registered_at, email`)
		out = users
		return err
	})
	if err != nil {
		return nil, mapErr("list users", err)
	}
	return out, nil
}

// RolesFor returns the user's role names in alphabetical order.
func (r *UserRepo) RolesFor(ctx context.Context, userID string) ([]string, error) {
	if !validID(userID) {
		return nil, nil
	}
	var out []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		names, err := pgxutil.CollectStrings(ctx, conn, `
			SELECT r.name FROM roles r
			JOIN user_roles ur ON ur.role_id = r.id
			WHERE ur.user_id = $1::uuid
			ORDER BY r.name`, userID)
		out = names
		return err
	})
	if err != nil {
		return nil, mapErr("list user roles", err)
	}
	return out, nil
}

// PasswordHash returns the id and stored hash of the user with the given email.
func (r *UserRepo) PasswordHash(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := r.DB.QueryRowContext(ctx,
		`SELECT id::text, password_hash FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", apperrors.NotFound("User not found.")
	}
	if err != nil {
		return "", "", mapErr("read credentials", err)
	}
	return id, hash, nil
}

// AssignRole adds the named role to the user. Assigning a role the user already has is a no-op.
func (r *UserRepo) AssignRole(ctx context.Context, userID, role string) error {
	if !validID(userID) {
		return apperrors.NotFound("User not found.")
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1::uuid, id FROM roles WHERE lower(name) = lower($2)
		ON CONFLICT DO NOTHING`, userID, role)
	if err != nil {
		return mapErr("assign role", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM roles WHERE lower(name) = lower($1))`, role).Scan(&exists); err != nil {
			return mapErr("assign role", err)
		}
		if !exists {
			return apperrors.ValidationField("role", "The selected role does not exist.")
		}
	}
	return nil
}
