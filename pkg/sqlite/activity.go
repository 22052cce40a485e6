package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/jakechorley/worklog/pkg/db"
)

// GetActivities retrieves an employee's activity records for a day, ordered by label
func (d *DB) GetActivities(ctx context.Context, employeeID, date string) ([]db.ActivityRecord, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(activityCols...)
	sb.From("activity")
	sb.Where(
		sb.Equal("employee_id", employeeID),
		sb.Equal("work_date", date),
	)
	sb.OrderBy("activity_label")
	query, args := sb.Build()

	var rows []activityRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", mapError("get activities", err))
	}
	return activityModels(rows), nil
}

// ReplaceActivities replaces the employee's whole ledger for a day with items in one
// transaction
func (d *DB) ReplaceActivities(ctx context.Context, employeeID, date string, items []db.ActivityInput) ([]db.ActivityRecord, error) {
	records := make([]db.ActivityRecord, 0, len(items))

	err := d.inTx(ctx, "replace activities", func(tx *sqlx.Tx) error {
		del := sqlbuilder.SQLite.NewDeleteBuilder()
		del.DeleteFrom("activity")
		del.Where(del.Equal("employee_id", employeeID), del.Equal("work_date", date))
		query, args := del.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapError("replace activities", err)
		}

		if len(items) == 0 {
			return nil
		}

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto("activity")
		ib.Cols(activityCols...)
		for _, item := range items {
			record := db.ActivityRecord{
				ID:         uuid.New().String(),
				EmployeeID: employeeID,
				Date:       date,
				Label:      item.Label,
				Hours:      item.Hours,
				Comment:    item.Comment,
			}
			ib.Values(record.ID, record.EmployeeID, record.Date, record.Label, record.Hours.String(), record.Comment)
			records = append(records, record)
		}
		query, args = ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapError("insert activities", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace activities: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Label < records[j].Label
	})
	return records, nil
}

// UpdateActivity merges patch into one existing activity record
func (d *DB) UpdateActivity(ctx context.Context, employeeID, date, recordID string, patch db.ActivityPatch) (*db.ActivityRecord, error) {
	labelSet, label := optionalArgs(patch.Label)
	hoursSet, hours := optionalHours(patch.Hours)
	commentSet, comment := optionalArgs(patch.Comment)

	var record db.ActivityRecord
	err := d.inTx(ctx, "update activity", func(tx *sqlx.Tx) error {
		var row activityRow
		err := tx.QueryRowxContext(ctx, `
			UPDATE activity SET
				activity_label = CASE WHEN ?4 THEN ?5 ELSE activity_label END,
				hours          = CASE WHEN ?6 THEN ?7 ELSE hours END,
				comment        = CASE WHEN ?8 THEN ?9 ELSE comment END
			WHERE id = ?1 AND employee_id = ?2 AND work_date = ?3
			RETURNING id, employee_id, work_date, activity_label, hours, comment
		`, recordID, employeeID, date, labelSet, label, hoursSet, hours, commentSet, comment).StructScan(&row)
		if errors.Is(err, sql.ErrNoRows) {
			return db.ErrNotFound
		}
		if err != nil {
			return mapError("update activity", err)
		}
		record = row.toModel()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	return &record, nil
}

// DeleteActivity removes one activity record, returning db.ErrNotFound when absent
func (d *DB) DeleteActivity(ctx context.Context, employeeID, date, recordID string) error {
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("activity")
	del.Where(
		del.Equal("id", recordID),
		del.Equal("employee_id", employeeID),
		del.Equal("work_date", date),
	)
	query, args := del.Build()

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", mapError("delete activity", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", mapError("delete activity", err))
	}
	if n == 0 {
		return fmt.Errorf("failed to delete activity %s: %w", recordID, db.ErrNotFound)
	}
	return nil
}

// ListActivitiesInRange retrieves the employee's activity records with dates in [start, end]
func (d *DB) ListActivitiesInRange(ctx context.Context, employeeID, start, end string) ([]db.ActivityRecord, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(activityCols...)
	sb.From("activity")
	sb.Where(
		sb.Equal("employee_id", employeeID),
		sb.Between("work_date", start, end),
	)
	sb.OrderBy("work_date", "activity_label")
	query, args := sb.Build()

	var rows []activityRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query activities in range: %w", mapError("list activities", err))
	}
	return activityModels(rows), nil
}
