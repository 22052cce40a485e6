package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/core/carry"
	"github.com/jakechorley/worklog/pkg/db"
)

// AssignmentDayStore defines the database operations needed for per-day project entries
type AssignmentDayStore interface {
	access.DirectoryStore
	UpsertAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error)
	UpdateAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error)
	DeleteAssignment(ctx context.Context, key db.AssignmentKey) (bool, error)
	ListAssignmentsForDay(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error)
	ListLatestAssignmentsBefore(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error)
}

// DeleteOutcome tells a successful delete apart from a delete with nothing underneath
type DeleteOutcome string

const (
	Deleted DeleteOutcome = "deleted"
	// NothingToDelete is returned for a carried row, which has no stored record
	NothingToDelete DeleteOutcome = "nothing_to_delete"
)

// UpsertDayProject creates the employee's entry for a project and day or merges the
// supplied fields into the existing one
func UpsertDayProject(ctx context.Context, store AssignmentDayStore, logger *zap.Logger, p access.Principal, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	logger.Debug("Upserting day project", keyFields(key)...)

	patch, err := validateAssignment(key, patch)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, key.EmployeeID); err != nil {
		return nil, err
	}

	record, err := store.UpsertAssignment(ctx, key, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert day project: %w", err)
	}

	logger.Info("Upserted day project", append(keyFields(key), zap.String("status", string(record.Status)))...)
	return record, nil
}

// UpdateDayProject merges the supplied fields into an existing entry. It never creates
// one and returns db.ErrNotFound when the key has no record.
func UpdateDayProject(ctx context.Context, store AssignmentDayStore, logger *zap.Logger, p access.Principal, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	logger.Debug("Updating day project", keyFields(key)...)

	if patch.IsEmpty() {
		return nil, db.NewValidationError("patch", "at least one field must be supplied")
	}
	patch, err := validateAssignment(key, patch)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, key.EmployeeID); err != nil {
		return nil, err
	}

	record, err := store.UpdateAssignment(ctx, key, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update day project: %w", err)
	}

	logger.Info("Updated day project", append(keyFields(key), zap.String("status", string(record.Status)))...)
	return record, nil
}

// DeleteDayProject removes the entry for key. A key without a stored record, such as a
// carried row, yields NothingToDelete rather than an error.
func DeleteDayProject(ctx context.Context, store AssignmentDayStore, logger *zap.Logger, p access.Principal, key db.AssignmentKey) (DeleteOutcome, error) {
	logger.Debug("Deleting day project", keyFields(key)...)

	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := access.CanActOnEmployee(ctx, store, p, key.EmployeeID); err != nil {
		return "", err
	}

	deleted, err := store.DeleteAssignment(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to delete day project: %w", err)
	}
	if !deleted {
		logger.Info("No stored entry to delete", keyFields(key)...)
		return NothingToDelete, nil
	}

	logger.Info("Deleted day project", keyFields(key)...)
	return Deleted, nil
}

// ResolveDay returns the employee's effective project rows for date: the explicit
// entries plus rows carried forward from earlier days. statusFilter may be empty.
func ResolveDay(ctx context.Context, store AssignmentDayStore, logger *zap.Logger, p access.Principal, employeeID, date, statusFilter string) ([]carry.Row, error) {
	logger.Debug("Resolving day projects",
		zap.String("employee_id", employeeID),
		zap.String("date", date),
		zap.String("status", statusFilter))

	if err := validateDay("date", date); err != nil {
		return nil, err
	}
	var filter db.AssignmentStatus
	if statusFilter != "" {
		st, ok := db.ParseStatus(statusFilter)
		if !ok {
			return nil, db.NewValidationError("status", "unknown status %q", statusFilter)
		}
		filter = st
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	explicit, err := store.ListAssignmentsForDay(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list day projects: %w", err)
	}
	prior, err := store.ListLatestAssignmentsBefore(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list prior projects: %w", err)
	}

	rows := carry.Resolve(explicit, prior, filter)

	logger.Debug("Resolved day projects",
		zap.String("employee_id", employeeID),
		zap.Int("explicit", len(explicit)),
		zap.Int("rows", len(rows)))

	return rows, nil
}

func validateKey(key db.AssignmentKey) error {
	if err := requireID("employee_id", key.EmployeeID); err != nil {
		return err
	}
	if err := requireID("project_id", key.ProjectID); err != nil {
		return err
	}
	return validateDay("date", key.Date)
}

// validateAssignment checks key and patch and returns the patch with its status
// normalised to the canonical spelling
func validateAssignment(key db.AssignmentKey, patch db.AssignmentPatch) (db.AssignmentPatch, error) {
	if err := validateKey(key); err != nil {
		return patch, err
	}
	if err := validateWindow("planned", patch.PlannedStart, patch.PlannedEnd); err != nil {
		return patch, err
	}
	if err := validateWindow("actual", patch.ActualStart, patch.ActualEnd); err != nil {
		return patch, err
	}
	if hours, ok := patch.Hours.Get(); ok {
		if err := validateHours("hours", hours); err != nil {
			return patch, err
		}
	}
	if raw, ok := patch.Status.Get(); ok {
		st, known := db.ParseStatus(string(raw))
		if !known {
			return patch, db.NewValidationError("status", "unknown status %q", raw)
		}
		patch.Status = db.Some(st)
	}
	return patch, nil
}

func keyFields(key db.AssignmentKey) []zap.Field {
	return []zap.Field{
		zap.String("employee_id", key.EmployeeID),
		zap.String("project_id", key.ProjectID),
		zap.String("date", key.Date),
	}
}
