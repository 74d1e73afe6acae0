package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"shopledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes handled by MapError.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateCheckViolation       = "23514"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// MapError translates driver errors into application errors.
// Errors that are already *apperror.AppError, and unknown errors, pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return apperror.NewConcurrencyConflict(err).WithDetail("sqlstate", pgErr.Code)
	case sqlStateUniqueViolation:
		return apperror.NewConflict("record already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewNotFound("referenced record", pgErr.ConstraintName).WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewValidation("value violates a check constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

// NotFoundOr maps pgx.ErrNoRows to NotFound for entity, and everything else via MapError.
func NotFoundOr(err error, entity string, key any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, key)
	}
	return MapError(err)
}
