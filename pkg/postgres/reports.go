package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jakechorley/worklog/pkg/db"
)

const contributionSelect = `
	SELECT a.employee_id, e.name, a.project_id,
		COALESCE(p.name, a.project_name, ''), a.work_date, a.hours
	FROM assignment a
	JOIN employee e ON e.id = a.employee_id
	LEFT JOIN project p ON p.id = a.project_id
`

// ListProjectContributions retrieves every assignment row for a project in [start, end]
func (d *DB) ListProjectContributions(ctx context.Context, projectID, start, end string) ([]db.ContributionRow, error) {
	rows, err := d.pool.Query(ctx, contributionSelect+`
		WHERE a.project_id = $1 AND a.work_date BETWEEN $2 AND $3
		ORDER BY a.work_date, a.employee_id
	`, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query project contributions: %w", mapError("list project contributions", err))
	}
	return collectContributions(rows)
}

// ListTeamContributions retrieves every assignment row of the team's members in [start, end]
func (d *DB) ListTeamContributions(ctx context.Context, teamID, start, end string) ([]db.ContributionRow, error) {
	rows, err := d.pool.Query(ctx, contributionSelect+`
		WHERE e.team_id = $1 AND a.work_date BETWEEN $2 AND $3
		ORDER BY a.work_date, a.employee_id
	`, teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query team contributions: %w", mapError("list team contributions", err))
	}
	return collectContributions(rows)
}

// ListTeamActivities retrieves every activity record of the team's members in [start, end]
func (d *DB) ListTeamActivities(ctx context.Context, teamID, start, end string) ([]db.ActivityRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT act.id, act.employee_id, act.work_date, act.activity_label, act.hours, act.comment
		FROM activity act
		JOIN employee e ON e.id = act.employee_id
		WHERE e.team_id = $1 AND act.work_date BETWEEN $2 AND $3
		ORDER BY act.work_date, act.employee_id, act.activity_label
	`, teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query team activities: %w", mapError("list team activities", err))
	}

	records, err := collectActivities(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan team activities: %w", err)
	}
	return records, nil
}

func collectContributions(rows pgx.Rows) ([]db.ContributionRow, error) {
	defer rows.Close()

	var result []db.ContributionRow
	for rows.Next() {
		var c db.ContributionRow
		var workDate time.Time
		var hours pgtype.Numeric
		if err := rows.Scan(&c.EmployeeID, &c.EmployeeName, &c.ProjectID, &c.ProjectName, &workDate, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Date = workDate.Format("2006-01-02")
		c.Hours = numericToDecimal(hours)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributions: %w", err)
	}
	return result, nil
}
