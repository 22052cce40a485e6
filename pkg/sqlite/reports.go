package sqlite

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/db"
)

type contributionRow struct {
	EmployeeID   string          `db:"employee_id"`
	EmployeeName string          `db:"employee_name"`
	ProjectID    string          `db:"project_id"`
	ProjectName  string          `db:"project_name"`
	WorkDate     string          `db:"work_date"`
	Hours        decimal.Decimal `db:"hours"`
}

func contributionQuery() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		"a.employee_id AS employee_id",
		"e.name AS employee_name",
		"a.project_id AS project_id",
		"COALESCE(p.name, a.project_name, '') AS project_name",
		"a.work_date AS work_date",
		"a.hours AS hours",
	)
	sb.From("assignment a")
	sb.Join("employee e", "e.id = a.employee_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "project p", "p.id = a.project_id")
	return sb
}

func (d *DB) listContributions(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]db.ContributionRow, error) {
	query, args := sb.Build()

	var rows []contributionRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError("list contributions", err)
	}

	result := make([]db.ContributionRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, db.ContributionRow{
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			ProjectID:    r.ProjectID,
			ProjectName:  r.ProjectName,
			Date:         r.WorkDate,
			Hours:        r.Hours,
		})
	}
	return result, nil
}

// ListProjectContributions retrieves every assignment row for a project in [start, end]
func (d *DB) ListProjectContributions(ctx context.Context, projectID, start, end string) ([]db.ContributionRow, error) {
	sb := contributionQuery()
	sb.Where(
		sb.Equal("a.project_id", projectID),
		sb.Between("a.work_date", start, end),
	)
	sb.OrderBy("a.work_date", "a.employee_id")

	rows, err := d.listContributions(ctx, sb)
	if err != nil {
		return nil, fmt.Errorf("failed to query project contributions: %w", err)
	}
	return rows, nil
}

// ListTeamContributions retrieves every assignment row of the team's members in [start, end]
func (d *DB) ListTeamContributions(ctx context.Context, teamID, start, end string) ([]db.ContributionRow, error) {
	sb := contributionQuery()
	sb.Where(
		sb.Equal("e.team_id", teamID),
		sb.Between("a.work_date", start, end),
	)
	sb.OrderBy("a.work_date", "a.employee_id")

	rows, err := d.listContributions(ctx, sb)
	if err != nil {
		return nil, fmt.Errorf("failed to query team contributions: %w", err)
	}
	return rows, nil
}

// ListTeamActivities retrieves every activity record of the team's members in [start, end]
func (d *DB) ListTeamActivities(ctx context.Context, teamID, start, end string) ([]db.ActivityRecord, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(qualified("act", activityCols)...)
	sb.From("activity act")
	sb.Join("employee e", "e.id = act.employee_id")
	sb.Where(
		sb.Equal("e.team_id", teamID),
		sb.Between("act.work_date", start, end),
	)
	sb.OrderBy("act.work_date", "act.employee_id", "act.activity_label")
	query, args := sb.Build()

	var rows []activityRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query team activities: %w", mapError("list team activities", err))
	}
	return activityModels(rows), nil
}
