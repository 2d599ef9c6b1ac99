package data

import (
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/target/staff-portal/internal/errors"
)

// mapErr classifies database errors and annotates the rest with op.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := apperrors.MapDBError(err)
	if apperrors.GetCode(mapped) != "" {
		return mapped
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
