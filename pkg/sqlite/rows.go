package sqlite

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/db"
)

var activityCols = []string{"id", "employee_id", "work_date", "activity_label", "hours", "comment"}

var assignmentCols = []string{
	"id", "employee_id", "project_id", "work_date", "project_name",
	"planned_start_date", "planned_end_date", "actual_start_date", "actual_end_date",
	"status", "hours", "comment",
}

// qualified prefixes cols with a table alias and keeps the bare column name
func qualified(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c + " AS " + c
	}
	return out
}

type activityRow struct {
	ID         string          `db:"id"`
	EmployeeID string          `db:"employee_id"`
	WorkDate   string          `db:"work_date"`
	Label      string          `db:"activity_label"`
	Hours      decimal.Decimal `db:"hours"`
	Comment    sql.NullString  `db:"comment"`
}

func (r activityRow) toModel() db.ActivityRecord {
	return db.ActivityRecord{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       r.WorkDate,
		Label:      r.Label,
		Hours:      r.Hours,
		Comment:    nullable(r.Comment),
	}
}

type assignmentRow struct {
	ID           string          `db:"id"`
	EmployeeID   string          `db:"employee_id"`
	ProjectID    string          `db:"project_id"`
	WorkDate     string          `db:"work_date"`
	ProjectName  sql.NullString  `db:"project_name"`
	PlannedStart sql.NullString  `db:"planned_start_date"`
	PlannedEnd   sql.NullString  `db:"planned_end_date"`
	ActualStart  sql.NullString  `db:"actual_start_date"`
	ActualEnd    sql.NullString  `db:"actual_end_date"`
	Status       string          `db:"status"`
	Hours        decimal.Decimal `db:"hours"`
	Comment      sql.NullString  `db:"comment"`
}

func (r assignmentRow) toModel() db.AssignmentRecord {
	return db.AssignmentRecord{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		ProjectID:    r.ProjectID,
		Date:         r.WorkDate,
		ProjectName:  nullable(r.ProjectName),
		PlannedStart: nullable(r.PlannedStart),
		PlannedEnd:   nullable(r.PlannedEnd),
		ActualStart:  nullable(r.ActualStart),
		ActualEnd:    nullable(r.ActualEnd),
		Status:       db.AssignmentStatus(r.Status),
		Hours:        r.Hours,
		Comment:      nullable(r.Comment),
	}
}

func assignmentModels(rows []assignmentRow) []db.AssignmentRecord {
	records := make([]db.AssignmentRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toModel())
	}
	return records
}

func activityModels(rows []activityRow) []db.ActivityRecord {
	records := make([]db.ActivityRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toModel())
	}
	return records
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
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
