package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/jakechorley/worklog/pkg/db"
)

// patchArgs flattens a patch into (present, value) pairs in column order:
// project_name, planned start/end, actual start/end, status, hours, comment.
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

const upsertAssignmentSQL = `
	INSERT INTO assignment AS a (
		id, employee_id, project_id, work_date, project_name,
		planned_start_date, planned_end_date, actual_start_date, actual_end_date,
		status, hours, comment
	)
	VALUES (
		?1, ?2, ?3, ?4,
		CASE WHEN ?5 THEN ?6 ELSE (SELECT name FROM project WHERE id = ?3) END,
		?8, ?10, ?12, ?14,
		COALESCE(?16, 'Active'),
		COALESCE(?18, '0'),
		?20
	)
	ON CONFLICT (employee_id, project_id, work_date) DO UPDATE SET
		project_name       = CASE WHEN ?5 THEN excluded.project_name ELSE a.project_name END,
		planned_start_date = CASE WHEN ?7 THEN excluded.planned_start_date ELSE a.planned_start_date END,
		planned_end_date   = CASE WHEN ?9 THEN excluded.planned_end_date ELSE a.planned_end_date END,
		actual_start_date  = CASE WHEN ?11 THEN excluded.actual_start_date ELSE a.actual_start_date END,
		actual_end_date    = CASE WHEN ?13 THEN excluded.actual_end_date ELSE a.actual_end_date END,
		status             = CASE WHEN ?15 THEN excluded.status ELSE a.status END,
		hours              = CASE WHEN ?17 THEN excluded.hours ELSE a.hours END,
		comment            = CASE WHEN ?19 THEN excluded.comment ELSE a.comment END
	RETURNING id, employee_id, project_id, work_date, project_name,
		planned_start_date, planned_end_date, actual_start_date, actual_end_date,
		status, hours, comment
`

const updateAssignmentSQL = `
	UPDATE assignment SET
		project_name       = CASE WHEN ?4 THEN ?5 ELSE project_name END,
		planned_start_date = CASE WHEN ?6 THEN ?7 ELSE planned_start_date END,
		planned_end_date   = CASE WHEN ?8 THEN ?9 ELSE planned_end_date END,
		actual_start_date  = CASE WHEN ?10 THEN ?11 ELSE actual_start_date END,
		actual_end_date    = CASE WHEN ?12 THEN ?13 ELSE actual_end_date END,
		status             = CASE WHEN ?14 THEN ?15 ELSE status END,
		hours              = CASE WHEN ?16 THEN ?17 ELSE hours END,
		comment            = CASE WHEN ?18 THEN ?19 ELSE comment END
	WHERE employee_id = ?1 AND project_id = ?2 AND work_date = ?3
	RETURNING id, employee_id, project_id, work_date, project_name,
		planned_start_date, planned_end_date, actual_start_date, actual_end_date,
		status, hours, comment
`

// UpsertAssignment inserts the record for key or merges the patch into the existing
// one with a single conditional insert on the unique key
func (d *DB) UpsertAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	var record db.AssignmentRecord

	err := d.inTx(ctx, "upsert assignment", func(tx *sqlx.Tx) error {
		args := append([]any{uuid.New().String(), key.EmployeeID, key.ProjectID, key.Date}, patchArgs(patch)...)

		var row assignmentRow
		if err := tx.QueryRowxContext(ctx, upsertAssignmentSQL, args...).StructScan(&row); err != nil {
			return mapError("upsert assignment", err)
		}
		record = row.toModel()

		return recomputeProjectActualStart(ctx, tx, key.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return &record, nil
}

// UpdateAssignment merges the patch into the existing record for key, returning
// db.ErrNotFound when none exists
func (d *DB) UpdateAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	var record db.AssignmentRecord

	err := d.inTx(ctx, "update assignment", func(tx *sqlx.Tx) error {
		args := append([]any{key.EmployeeID, key.ProjectID, key.Date}, patchArgs(patch)...)

		var row assignmentRow
		err := tx.QueryRowxContext(ctx, updateAssignmentSQL, args...).StructScan(&row)
		if errors.Is(err, sql.ErrNoRows) {
			return db.ErrNotFound
		}
		if err != nil {
			return mapError("update assignment", err)
		}
		record = row.toModel()

		return recomputeProjectActualStart(ctx, tx, key.ProjectID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	return &record, nil
}

// DeleteAssignment removes the record for key, reporting whether one existed
func (d *DB) DeleteAssignment(ctx context.Context, key db.AssignmentKey) (bool, error) {
	var deleted bool

	err := d.inTx(ctx, "delete assignment", func(tx *sqlx.Tx) error {
		del := sqlbuilder.SQLite.NewDeleteBuilder()
		del.DeleteFrom("assignment")
		del.Where(
			del.Equal("employee_id", key.EmployeeID),
			del.Equal("project_id", key.ProjectID),
			del.Equal("work_date", key.Date),
		)
		query, args := del.Build()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return mapError("delete assignment", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return mapError("delete assignment", err)
		}
		if n == 0 {
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
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(assignmentCols...)
	sb.From("assignment")
	sb.Where(
		sb.Equal("employee_id", employeeID),
		sb.Equal("work_date", date),
	)
	sb.OrderBy("project_id")
	query, args := sb.Build()

	var rows []assignmentRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query assignments for day: %w", mapError("list assignments", err))
	}
	return assignmentModels(rows), nil
}

// ListLatestAssignmentsBefore retrieves, per project, the employee's most recent
// record strictly before date
func (d *DB) ListLatestAssignmentsBefore(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(qualified("a", assignmentCols)...)
	sb.From("assignment a")
	sb.Where(
		sb.Equal("a.employee_id", employeeID),
		sb.LessThan("a.work_date", date),
		"a.work_date = (SELECT MAX(b.work_date) FROM assignment b"+
			" WHERE b.employee_id = a.employee_id AND b.project_id = a.project_id"+
			" AND b.work_date < "+sb.Var(date)+")",
	)
	sb.OrderBy("a.project_id")
	query, args := sb.Build()

	var rows []assignmentRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query prior assignments: %w", mapError("list prior assignments", err))
	}
	return assignmentModels(rows), nil
}

// ListAssignmentsInRange retrieves the employee's records with dates in [start, end]
func (d *DB) ListAssignmentsInRange(ctx context.Context, employeeID, start, end string) ([]db.AssignmentRecord, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(assignmentCols...)
	sb.From("assignment")
	sb.Where(
		sb.Equal("employee_id", employeeID),
		sb.Between("work_date", start, end),
	)
	sb.OrderBy("work_date", "project_id")
	query, args := sb.Build()

	var rows []assignmentRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query assignments in range: %w", mapError("list assignments", err))
	}
	return assignmentModels(rows), nil
}

// recomputeProjectActualStart sets project.actual_start_date to the earliest actual
// start across the project's remaining assignment rows (NULL when none remain), inside
// the caller's transaction
func recomputeProjectActualStart(ctx context.Context, tx *sqlx.Tx, projectID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE project
		SET actual_start_date = (
			SELECT MIN(actual_start_date) FROM assignment WHERE project_id = ?1
		)
		WHERE id = ?1
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to recompute project actual start: %w", mapError("recompute project actual start", err))
	}
	return nil
}
