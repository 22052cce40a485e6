package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jakechorley/worklog/pkg/db"
)

// mapError classifies a driver error into the db error taxonomy.
// sql.ErrNoRows is passed through untouched for callers to interpret.
func mapError(op string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &db.ConflictError{Constraint: constraintDetail(sqliteErr.Error()), Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &db.ConflictError{Constraint: "foreign key", Detail: "referenced employee or project does not exist", Err: err}
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return db.NewCheckViolation(constraintDetail(sqliteErr.Error()), err)
		}
		if sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := sqliteErr.Error()
			if strings.Contains(msg, "CHECK constraint failed") {
				return db.NewCheckViolation(constraintDetail(msg), err)
			}
			return &db.ConflictError{Constraint: constraintDetail(msg), Err: err}
		}
	}

	return &db.TransactionError{Op: op, Err: err}
}

// constraintDetail pulls the constraint name or column list out of a message like
// "UNIQUE constraint failed: activity.employee_id, activity.work_date (2067)"
func constraintDetail(msg string) string {
	const marker = "constraint failed: "
	idx := strings.LastIndex(msg, marker)
	if idx < 0 {
		return msg
	}
	detail := msg[idx+len(marker):]
	if paren := strings.LastIndex(detail, " ("); paren >= 0 {
		detail = detail[:paren]
	}
	return strings.TrimSpace(detail)
}
