package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/worklog/pkg/db"
)

// GetEmployee retrieves one employee
func (d *DB) GetEmployee(ctx context.Context, id string) (*db.Employee, error) {
	var e db.Employee
	var role string
	var teamID *string
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, role, team_id FROM employee WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &role, &teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", mapError("get employee", err))
	}
	e.Role = db.Role(role)
	if teamID != nil {
		e.TeamID = *teamID
	}
	return &e, nil
}

// GetTeam retrieves one team
func (d *DB) GetTeam(ctx context.Context, id string) (*db.Team, error) {
	var t db.Team
	err := d.pool.QueryRow(ctx, `SELECT id, name FROM team WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", mapError("get team", err))
	}
	return &t, nil
}

// GetProject retrieves one project, including its derived actual start date
func (d *DB) GetProject(ctx context.Context, id string) (*db.Project, error) {
	var p db.Project
	var plannedStart, plannedEnd, actualStart *time.Time
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, status, planned_start_date, planned_end_date, actual_start_date
		FROM project WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Status, &plannedStart, &plannedEnd, &actualStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapError("get project", err))
	}
	p.PlannedStart = dayPtr(plannedStart)
	p.PlannedEnd = dayPtr(plannedEnd)
	p.ActualStartDate = dayPtr(actualStart)
	return &p, nil
}

// ListTeamMembers retrieves a team's employees ordered by name
func (d *DB) ListTeamMembers(ctx context.Context, teamID string) ([]db.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, role FROM employee WHERE team_id = $1 ORDER BY name, id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", mapError("list team members", err))
	}
	defer rows.Close()

	var members []db.Employee
	for rows.Next() {
		var e db.Employee
		var role string
		if err := rows.Scan(&e.ID, &e.Name, &role); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		e.Role = db.Role(role)
		e.TeamID = teamID
		members = append(members, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return members, nil
}

// HasAdmin reports whether any employee holds the admin role
func (d *DB) HasAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employee WHERE role = 'admin')`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for admins: %w", mapError("has admin", err))
	}
	return exists, nil
}

// SaveMasterData upserts teams, employees and projects by id in one transaction.
// A project's actual start date is never written here.
func (d *DB) SaveMasterData(ctx context.Context, data db.MasterData) error {
	err := d.inTx(ctx, "save master data", func(tx pgx.Tx) error {
		for _, t := range data.Teams {
			_, err := tx.Exec(ctx, `
				INSERT INTO team (id, name) VALUES ($1, $2)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
			`, t.ID, t.Name)
			if err != nil {
				return mapError("save team", err)
			}
		}

		for _, e := range data.Employees {
			var teamID *string
			if e.TeamID != "" {
				teamID = &e.TeamID
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO employee (id, name, role, team_id) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name, role = EXCLUDED.role, team_id = EXCLUDED.team_id
			`, e.ID, e.Name, string(e.Role), teamID)
			if err != nil {
				return mapError("save employee", err)
			}
		}

		for _, p := range data.Projects {
			_, err := tx.Exec(ctx, `
				INSERT INTO project (id, name, status, planned_start_date, planned_end_date)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					status = EXCLUDED.status,
					planned_start_date = EXCLUDED.planned_start_date,
					planned_end_date = EXCLUDED.planned_end_date
			`, p.ID, p.Name, p.Status, p.PlannedStart, p.PlannedEnd)
			if err != nil {
				return mapError("save project", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save master data: %w", err)
	}
	return nil
}

// DeleteEmployee removes an employee. Their activity and assignment rows go with them
// through the cascade, and every project they had rows on gets its actual start date
// recomputed in the same transaction.
func (d *DB) DeleteEmployee(ctx context.Context, id string) error {
	err := d.inTx(ctx, "delete employee", func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT DISTINCT project_id FROM assignment WHERE employee_id = $1
			ORDER BY project_id
		`, id)
		if err != nil {
			return mapError("list employee projects", err)
		}
		projectIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return mapError("list employee projects", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM employee WHERE id = $1`, id)
		if err != nil {
			return mapError("delete employee", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("employee %s: %w", id, db.ErrNotFound)
		}

		for _, projectID := range projectIDs {
			if err := recomputeProjectActualStart(ctx, tx, projectID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}
