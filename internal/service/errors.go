package service

import (
	"errors"
	"fmt"

	"fintech-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

// lockFailure maps a failed row lock to SYS_002 when the wait timed out and
// to SYS_001 otherwise.
func lockFailure(op string, err error) *apperror.AppError {
	wrapped := fmt.Errorf("%s: %w", op, err)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apperror.ErrLockTimeout(wrapped)
	}
	return apperror.InternalError(wrapped)
}

// pgUniqueViolation is the SQLSTATE raised when an insert hits a unique index.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
