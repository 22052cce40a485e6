package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/jakechorley/worklog/pkg/db"
)

type employeeRow struct {
	ID     string         `db:"id"`
	Name   string         `db:"name"`
	Role   string         `db:"role"`
	TeamID sql.NullString `db:"team_id"`
}

func (r employeeRow) toModel() db.Employee {
	return db.Employee{ID: r.ID, Name: r.Name, Role: db.Role(r.Role), TeamID: r.TeamID.String}
}

type projectRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Status       string         `db:"status"`
	PlannedStart sql.NullString `db:"planned_start_date"`
	PlannedEnd   sql.NullString `db:"planned_end_date"`
	ActualStart  sql.NullString `db:"actual_start_date"`
}

// GetEmployee retrieves one employee
func (d *DB) GetEmployee(ctx context.Context, id string) (*db.Employee, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "role", "team_id").From("employee").Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row employeeRow
	err := d.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", mapError("get employee", err))
	}
	e := row.toModel()
	return &e, nil
}

// GetTeam retrieves one team
func (d *DB) GetTeam(ctx context.Context, id string) (*db.Team, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name").From("team").Where(sb.Equal("id", id))
	query, args := sb.Build()

	var t struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	err := d.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", mapError("get team", err))
	}
	return &db.Team{ID: t.ID, Name: t.Name}, nil
}

// GetProject retrieves one project, including its derived actual start date
func (d *DB) GetProject(ctx context.Context, id string) (*db.Project, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "status", "planned_start_date", "planned_end_date", "actual_start_date").
		From("project").
		Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row projectRow
	err := d.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapError("get project", err))
	}
	return &db.Project{
		ID:              row.ID,
		Name:            row.Name,
		Status:          row.Status,
		PlannedStart:    nullable(row.PlannedStart),
		PlannedEnd:      nullable(row.PlannedEnd),
		ActualStartDate: nullable(row.ActualStart),
	}, nil
}

// ListTeamMembers retrieves a team's employees ordered by name
func (d *DB) ListTeamMembers(ctx context.Context, teamID string) ([]db.Employee, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "role", "team_id").
		From("employee").
		Where(sb.Equal("team_id", teamID)).
		OrderBy("name", "id")
	query, args := sb.Build()

	var rows []employeeRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", mapError("list team members", err))
	}

	members := make([]db.Employee, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toModel())
	}
	return members, nil
}

// HasAdmin reports whether any employee holds the admin role
func (d *DB) HasAdmin(ctx context.Context) (bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From("employee").Where(sb.Equal("role", string(db.RoleAdmin)))
	query, args := sb.Build()

	var n int
	if err := d.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("failed to check for admins: %w", mapError("has admin", err))
	}
	return n > 0, nil
}

// SaveMasterData upserts teams, employees and projects by id in one transaction.
// A project's actual start date is never written here.
func (d *DB) SaveMasterData(ctx context.Context, data db.MasterData) error {
	err := d.inTx(ctx, "save master data", func(tx *sqlx.Tx) error {
		for _, t := range data.Teams {
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("team").Cols("id", "name").Values(t.ID, t.Name)
			ib.SQL("ON CONFLICT (id) DO UPDATE SET name = excluded.name")
			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return mapError("save team", err)
			}
		}

		for _, e := range data.Employees {
			var teamID *string
			if e.TeamID != "" {
				teamID = &e.TeamID
			}
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("employee").Cols("id", "name", "role", "team_id").Values(e.ID, e.Name, string(e.Role), teamID)
			ib.SQL("ON CONFLICT (id) DO UPDATE SET name = excluded.name, role = excluded.role, team_id = excluded.team_id")
			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return mapError("save employee", err)
			}
		}

		for _, p := range data.Projects {
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("project").
				Cols("id", "name", "status", "planned_start_date", "planned_end_date").
				Values(p.ID, p.Name, p.Status, p.PlannedStart, p.PlannedEnd)
			ib.SQL("ON CONFLICT (id) DO UPDATE SET name = excluded.name, status = excluded.status, " +
				"planned_start_date = excluded.planned_start_date, planned_end_date = excluded.planned_end_date")
			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
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

// DeleteEmployee removes an employee, cascading their ledger and assignment rows, and
// recomputes the actual start date of every project they had rows on in the same
// transaction
func (d *DB) DeleteEmployee(ctx context.Context, id string) error {
	err := d.inTx(ctx, "delete employee", func(tx *sqlx.Tx) error {
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("project_id").Distinct().From("assignment").Where(sb.Equal("employee_id", id))
		query, args := sb.Build()

		var projectIDs []string
		if err := tx.SelectContext(ctx, &projectIDs, query, args...); err != nil {
			return mapError("list employee projects", err)
		}

		del := sqlbuilder.SQLite.NewDeleteBuilder()
		del.DeleteFrom("employee").Where(del.Equal("id", id))
		query, args = del.Build()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return mapError("delete employee", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return mapError("delete employee", err)
		}
		if n == 0 {
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
