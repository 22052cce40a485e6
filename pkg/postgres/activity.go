package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/worklog/pkg/db"
)

// GetActivities retrieves an employee's activity records for a day, ordered by label
func (d *DB) GetActivities(ctx context.Context, employeeID, date string) ([]db.ActivityRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activity
		WHERE employee_id = $1 AND work_date = $2
		ORDER BY activity_label
	`, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", mapError("get activities", err))
	}

	records, err := collectActivities(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activities: %w", err)
	}
	return records, nil
}

// ReplaceActivities replaces the employee's whole ledger for a day with items.
// The delete and the inserts share one transaction, so any failure keeps the prior day.
func (d *DB) ReplaceActivities(ctx context.Context, employeeID, date string, items []db.ActivityInput) ([]db.ActivityRecord, error) {
	records := make([]db.ActivityRecord, 0, len(items))

	err := d.inTx(ctx, "replace activities", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM activity WHERE employee_id = $1 AND work_date = $2
		`, employeeID, date)
		if err != nil {
			return mapError("replace activities", err)
		}

		for _, item := range items {
			record := db.ActivityRecord{
				ID:         uuid.New().String(),
				EmployeeID: employeeID,
				Date:       date,
				Label:      item.Label,
				Hours:      item.Hours,
				Comment:    item.Comment,
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO activity (id, employee_id, work_date, activity_label, hours, comment)
				VALUES ($1, $2, $3, $4, $5::numeric, $6)
			`, record.ID, record.EmployeeID, record.Date, record.Label, record.Hours.String(), record.Comment)
			if err != nil {
				return mapError("insert activity", err)
			}
			records = append(records, record)
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

	var record *db.ActivityRecord
	err := d.inTx(ctx, "update activity", func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE activity SET
				activity_label = CASE WHEN $4::boolean THEN $5::text ELSE activity_label END,
				hours          = CASE WHEN $6::boolean THEN $7::numeric ELSE hours END,
				comment        = CASE WHEN $8::boolean THEN $9::text ELSE comment END
			WHERE id = $1 AND employee_id = $2 AND work_date = $3
			RETURNING `+activityColumns,
			recordID, employeeID, date, labelSet, label, hoursSet, hours, commentSet, comment)

		a, err := scanActivity(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return db.ErrNotFound
		}
		if err != nil {
			return mapError("update activity", err)
		}
		record = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	return record, nil
}

// DeleteActivity removes one activity record, returning db.ErrNotFound when absent
func (d *DB) DeleteActivity(ctx context.Context, employeeID, date, recordID string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM activity WHERE id = $1 AND employee_id = $2 AND work_date = $3
	`, recordID, employeeID, date)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", mapError("delete activity", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete activity %s: %w", recordID, db.ErrNotFound)
	}
	return nil
}

// ListActivitiesInRange retrieves the employee's activity records with dates in [start, end]
func (d *DB) ListActivitiesInRange(ctx context.Context, employeeID, start, end string) ([]db.ActivityRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activity
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date, activity_label
	`, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities in range: %w", mapError("list activities", err))
	}

	records, err := collectActivities(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activities in range: %w", err)
	}
	return records, nil
}
