package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
)

// ClaimServiceOptions groups dependencies for ClaimService.
type ClaimServiceOptions struct {
	Users  ports.UserStore
	Claims ports.ClaimStore
	Logger *slog.Logger
}

// ClaimService grants and revokes stored claims by user email.
type ClaimService struct {
	users  ports.UserStore
	claims ports.ClaimStore
	logger *slog.Logger
}

// NewClaimService constructs a ClaimService.
func NewClaimService(opts ClaimServiceOptions) *ClaimService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimService{users: opts.Users, claims: opts.Claims, logger: logger.With("component", "claim_service")}
}

// Grant sets claimType to value for the user with the given email, replacing any previous value.
func (s *ClaimService) Grant(ctx context.Context, email, claimType, value string) error {
	claimType = strings.TrimSpace(claimType)
	if claimType == "" {
		return apperrors.ValidationField("type", "Claim type is required.")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.claims.Set(ctx, model.Claim{UserID: u.ID, Type: claimType, Value: strings.TrimSpace(value)}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "claim granted", "user_id", u.ID, "claim_type", claimType)
	return nil
}

// Revoke removes claimType from the user. Revoking a claim the user lacks succeeds.
func (s *ClaimService) Revoke(ctx context.Context, email, claimType string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.claims.Remove(ctx, u.ID, strings.TrimSpace(claimType)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "claim revoked", "user_id", u.ID, "claim_type", claimType)
	return nil
}

// List returns the stored claims of the user with the given email.
func (s *ClaimService) List(ctx context.Context, email string) ([]model.Claim, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.claims.ListFor(ctx, u.ID)
}
