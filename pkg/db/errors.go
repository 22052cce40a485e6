package db

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an explicit update or delete names a record that does
// not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports input rejected before any write
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError for field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewCheckViolation builds the ValidationError for a failed CHECK constraint, described
// by what the constraint guards. constraint is the constraint name, or the check
// expression when the driver reports no name.
func NewCheckViolation(constraint string, err error) *ValidationError {
	field, message := constraint, "violates check constraint "+constraint
	switch {
	case strings.Contains(constraint, "planned_window"):
		field, message = "planned", "planned start is after planned end"
	case strings.Contains(constraint, "actual_window"):
		field, message = "actual", "actual start is after actual end"
	case strings.Contains(constraint, "hours"):
		field, message = "hours", "hours must not be negative"
	case strings.Contains(constraint, "role"):
		field, message = "role", "role must be admin, team_lead or employee"
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// ConflictError reports a uniqueness or foreign-key violation
type ConflictError struct {
	Constraint string
	Detail     string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("conflict on %s: %s", e.Constraint, e.Detail)
	}
	return fmt.Sprintf("conflict on %s", e.Constraint)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// TransactionError reports a store that was unavailable or aborted the transaction.
// Nothing from the failed call was persisted, so retrying is safe.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is or wraps a ConflictError
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsTransaction reports whether err is or wraps a TransactionError
func IsTransaction(err error) bool {
	var t *TransactionError
	return errors.As(err, &t)
}
