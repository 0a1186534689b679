package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the field name from a unique violation detail:
// "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances:
// no rows → NotFound, unique violation → Conflict, not-null/check → Validation,
// context deadline/cancel → Timeout/Canceled. Unrecognized errors are
// returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "database operation timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "database operation canceled", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. Enqueue and the folder repository treat this as the
// concurrent-duplicate signal, not as a failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" && pgErr.Detail != "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				field = m[1]
			}
		}
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "value already exists",
			Field:   field,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "required field is missing",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "invalid value",
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "database error",
			Cause:   pgErr,
		}
	}
}
