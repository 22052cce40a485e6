package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/worklog/pkg/db"
)

// patchArgs flattens a patch into (present, value) pairs in column order starting at
// the given parameter position: project_name, planned start/end, actual start/end,
// status, hours, comment.
func patchArgs(p db.AssignmentPatch) []any {
	nameSet, name := optionalArgs(p.ProjectName)
	psSet, ps := optionalArgs(p.PlannedStart)
	peSet, pe := optionalArgs(p.PlannedEnd)
	asSet, as := optionalArgs(p.ActualStart)
	aeSet, ae := optionalArgs(p.ActualEnd)
	hoursSet, hours := optionalHours(p.Hours)
	commentSet, comment := optionalArgs(p.Comment)

	var status *string
	if st, ok := p.Status.Get(); ok {
		s := string(st)
		status = &s
	}

	return []any{
		nameSet, name,
		psSet, ps,
		peSet, pe,
		asSet, as,
		aeSet, ae,
		p.Status.IsSet(), status,
		hoursSet, hours,
		commentSet, comment,
	}
}

// UpsertAssignment inserts the record for key or merges the patch into the existing
// one. The insert-or-merge is a single statement on the unique key, so concurrent
// writers to the same key serialize on the index rather than racing.
func (d *DB) UpsertAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	var record *db.AssignmentRecord

	err := d.inTx(ctx, "upsert assignment", func(tx pgx.Tx) error {
		args := append([]any{uuid.New().String(), key.EmployeeID, key.ProjectID, key.Date}, patchArgs(patch)...)

		row := tx.QueryRow(ctx, `
			INSERT INTO assignment AS a (
				id, employee_id, project_id, work_date, project_name,
				planned_start_date, planned_end_date, actual_start_date, actual_end_date,
				status, hours, comment
			)
			VALUES (
				$1, $2, $3, $4,
				CASE WHEN $5::boolean THEN $6::text ELSE (SELECT name FROM project WHERE id = $3) END,
				$8::date, $10::date, $12::date, $14::date,
				COALESCE($16::text, 'Active'),
				COALESCE($18::numeric, 0),
				$20::text
			)
			ON CONFLICT (employee_id, project_id, work_date) DO UPDATE SET
				project_name       = CASE WHEN $5::boolean THEN EXCLUDED.project_name ELSE a.project_name END,
				planned_start_date = CASE WHEN $7::boolean THEN EXCLUDED.planned_start_date ELSE a.planned_start_date END,
				planned_end_date   = CASE WHEN $9::boolean THEN EXCLUDED.planned_end_date ELSE a.planned_end_date END,
				actual_start_date  = CASE WHEN $11::boolean THEN EXCLUDED.actual_start_date ELSE a.actual_start_date END,
				actual_end_date    = CASE WHEN $13::boolean THEN EXCLUDED.actual_end_date ELSE a.actual_end_date END,
				status             = CASE WHEN $15::boolean THEN EXCLUDED.status ELSE a.status END,
				hours              = CASE WHEN $17::boolean THEN EXCLUDED.hours ELSE a.hours END,
				comment            = CASE WHEN $19::boolean THEN EXCLUDED.comment ELSE a.comment END
			RETURNING `+assignmentColumns, args...)

		r, err := scanAssignment(row)
		if err != nil {
			return mapError("upsert assignment", err)
		}
		record = r

		return recomputeProjectActualStart(ctx, tx, key.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return record, nil
}

// UpdateAssignment merges the patch into the existing record for key. It never creates
// a record and returns db.ErrNotFound when none exists.
func (d *DB) UpdateAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	var record *db.AssignmentRecord

	err := d.inTx(ctx, "update assignment", func(tx pgx.Tx) error {
		args := append([]any{key.EmployeeID, key.ProjectID, key.Date}, patchArgs(patch)...)

		row := tx.QueryRow(ctx, `
			UPDATE assignment SET
				project_name       = CASE WHEN $4::boolean THEN $5::text ELSE project_name END,
				planned_start_date = CASE WHEN $6::boolean THEN $7::date ELSE planned_start_date END,
				planned_end_date   = CASE WHEN $8::boolean THEN $9::date ELSE planned_end_date END,
				actual_start_date  = CASE WHEN $10::boolean THEN $11::date ELSE actual_start_date END,
				actual_end_date    = CASE WHEN $12::boolean THEN $13::date ELSE actual_end_date END,
				status             = CASE WHEN $14::boolean THEN $15::text ELSE status END,
				hours              = CASE WHEN $16::boolean THEN $17::numeric ELSE hours END,
				comment            = CASE WHEN $18::boolean THEN $19::text ELSE comment END
			WHERE employee_id = $1 AND project_id = $2 AND work_date = $3
			RETURNING `+assignmentColumns, args...)

		r, err := scanAssignment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return db.ErrNotFound
		}
		if err != nil {
			return mapError("update assignment", err)
		}
		record = r

		return recomputeProjectActualStart(ctx, tx, key.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	return record, nil
}

// DeleteAssignment removes the record for key, reporting whether one existed
func (d *DB) DeleteAssignment(ctx context.Context, key db.AssignmentKey) (bool, error) {
	var deleted bool

	err := d.inTx(ctx, "delete assignment", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM assignment
			WHERE employee_id = $1 AND project_id = $2 AND work_date = $3
		`, key.EmployeeID, key.ProjectID, key.Date)
		if err != nil {
			return mapError("delete assignment", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		deleted = true

		return recomputeProjectActualStart(ctx, tx, key.ProjectID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete assignment: %w", err)
	}

	return deleted, nil
}

// ListAssignmentsForDay retrieves the employee's explicit records for date
func (d *DB) ListAssignmentsForDay(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignment
		WHERE employee_id = $1 AND work_date = $2
		ORDER BY project_id
	`, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for day: %w", mapError("list assignments", err))
	}

	records, err := collectAssignments(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignments for day: %w", err)
	}
	return records, nil
}

// ListLatestAssignmentsBefore retrieves, per project, the employee's most recent
// record strictly before date, however large the gap
func (d *DB) ListLatestAssignmentsBefore(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT ON (project_id) `+assignmentColumns+`
		FROM assignment
		WHERE employee_id = $1 AND work_date < $2
		ORDER BY project_id, work_date DESC
	`, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior assignments: %w", mapError("list prior assignments", err))
	}

	records, err := collectAssignments(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prior assignments: %w", err)
	}
	return records, nil
}

// ListAssignmentsInRange retrieves the employee's records with dates in [start, end]
func (d *DB) ListAssignmentsInRange(ctx context.Context, employeeID, start, end string) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignment
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date, project_id
	`, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments in range: %w", mapError("list assignments", err))
	}

	records, err := collectAssignments(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignments in range: %w", err)
	}
	return records, nil
}
