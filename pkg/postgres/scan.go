package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/db"
)

const activityColumns = `id, employee_id, work_date, activity_label, hours, comment`

const assignmentColumns = `id, employee_id, project_id, work_date, project_name,
	planned_start_date, planned_end_date, actual_start_date, actual_end_date,
	status, hours, comment`

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func dayPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func scanActivity(row pgx.Row) (*db.ActivityRecord, error) {
	var a db.ActivityRecord
	var workDate time.Time
	var hours pgtype.Numeric
	if err := row.Scan(&a.ID, &a.EmployeeID, &workDate, &a.Label, &hours, &a.Comment); err != nil {
		return nil, err
	}
	a.Date = workDate.Format("2006-01-02")
	a.Hours = numericToDecimal(hours)
	return &a, nil
}

// scanAssignment scans assignmentColumns followed by any extra destinations
func scanAssignment(row pgx.Row, extra ...any) (*db.AssignmentRecord, error) {
	var r db.AssignmentRecord
	var workDate time.Time
	var plannedStart, plannedEnd, actualStart, actualEnd *time.Time
	var status string
	var hours pgtype.Numeric

	dest := []any{
		&r.ID, &r.EmployeeID, &r.ProjectID, &workDate, &r.ProjectName,
		&plannedStart, &plannedEnd, &actualStart, &actualEnd,
		&status, &hours, &r.Comment,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	r.Date = workDate.Format("2006-01-02")
	r.PlannedStart = dayPtr(plannedStart)
	r.PlannedEnd = dayPtr(plannedEnd)
	r.ActualStart = dayPtr(actualStart)
	r.ActualEnd = dayPtr(actualEnd)
	r.Status = db.AssignmentStatus(status)
	r.Hours = numericToDecimal(hours)
	return &r, nil
}

func collectAssignments(rows pgx.Rows) ([]db.AssignmentRecord, error) {
	defer rows.Close()

	var records []db.AssignmentRecord
	for rows.Next() {
		r, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func collectActivities(rows pgx.Rows) ([]db.ActivityRecord, error) {
	defer rows.Close()

	var records []db.ActivityRecord
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// optionalArgs flattens an Optional into a presence flag and a nullable value
func optionalArgs[T any](o db.Optional[T]) (bool, *T) {
	return o.IsSet(), o.Ptr()
}

func optionalHours(o db.Optional[decimal.Decimal]) (bool, *string) {
	v, ok := o.Get()
	if !ok {
		return false, nil
	}
	s := v.String()
	return true, &s
}
