package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the store distinguishes.
const (
	PgErrForeignKeyViolation = "23503"
	PgErrUniqueViolation     = "23505"
	PgErrUndefinedTable      = "42P01"
	PgErrConnectionException = "08000"
	PgErrConnectionFailure   = "08006"
	PgErrCannotConnectNow    = "57P03"
)

// Error classes returned wrapped by store operations.
var (
	ErrForeignKey   = errors.New("foreign key violation")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrMissingTable = errors.New("table does not exist")
	ErrConnection   = errors.New("database connection failure")
)

// classify wraps err with the operation name and, for PostgreSQL errors, an
// error class that callers can test with errors.Is.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var class error
	switch pgErr.Code {
	case PgErrForeignKeyViolation:
		class = ErrForeignKey
	case PgErrUniqueViolation:
		class = ErrDuplicateKey
	case PgErrUndefinedTable:
		class = ErrMissingTable
	case PgErrConnectionException, PgErrConnectionFailure, PgErrCannotConnectNow:
		class = ErrConnection
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	if pgErr.Detail != "" {
		return fmt.Errorf("%s: %w: %w (%s)", op, class, err, pgErr.Detail)
	}
	return fmt.Errorf("%s: %w: %w", op, class, err)
}
