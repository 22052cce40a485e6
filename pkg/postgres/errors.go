package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/worklog/pkg/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError classifies a driver error into the db error taxonomy.
// pgx.ErrNoRows is passed through untouched for callers to interpret.
func mapError(op string, err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return &db.ConflictError{Constraint: pgErr.ConstraintName, Detail: pgErr.Detail, Err: err}
		case pgCheckViolation:
			return db.NewCheckViolation(pgErr.ConstraintName, err)
		}
	}

	return &db.TransactionError{Op: op, Err: err}
}
