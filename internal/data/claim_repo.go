package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/target/staff-portal/internal/data/pgxutil"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
)

// ClaimRepo stores per-user claims such as EmploymentStartDate.
type ClaimRepo struct {
	DB *sql.DB
}

// NewClaimRepo creates a new ClaimRepo.
func NewClaimRepo(db *sql.DB) *ClaimRepo {
	return &ClaimRepo{DB: db}
}

var _ ports.ClaimStore = (*ClaimRepo)(nil)

// ListFor returns the user's claims ordered by type.
func (r *ClaimRepo) ListFor(ctx context.Context, userID string) ([]model.Claim, error) {
	if !validID(userID) {
		return nil, nil
	}
	var out []model.Claim
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		claims, err := pgxutil.CollectAll[model.Claim](ctx, conn, `
			SELECT user_id::text AS user_id, claim_type, claim_value
			FROM user_claims WHERE user_id = $1::uuid
			ORDER BY claim_type`, userID)
		out = claims
		return err
	})
	if err != nil {
		return nil, mapErr("list claims", err)
	}
	return out, nil
}

// Set inserts the claim or replaces the value of an existing claim of the same type.
func (r *ClaimRepo) Set(ctx context.Context, c model.Claim) error {
	if !validID(c.UserID) {
		return apperrors.NotFound("User not found.")
	}
	if c.Type == "" {
		return apperrors.ValidationField("claim_type", "Claim type is required.")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_claims (user_id, claim_type, claim_value)
		VALUES ($1::uuid, $2, $3)
		ON CONFLICT (user_id, claim_type) DO UPDATE SET claim_value = EXCLUDED.claim_value`,
		c.UserID, c.Type, c.Value)
	return mapErr("set claim", err)
}

// Remove deletes the claim. Removing an absent claim is not an error.
func (r *ClaimRepo) Remove(ctx context.Context, userID, claimType string) error {
	if !validID(userID) {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_claims WHERE user_id = $1::uuid AND claim_type = $2`, userID, claimType)
	return mapErr("remove claim", err)
}
