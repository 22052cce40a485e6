// Package access decides what an authenticated principal may read or write.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jakechorley/worklog/pkg/db"
)

// ErrForbidden is returned when the principal may not act on the target
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated caller supplied by the identity collaborator
type Principal struct {
	EmployeeID string
	Role       db.Role
}

// DirectoryStore defines the lookups the access checks need
type DirectoryStore interface {
	GetEmployee(ctx context.Context, id string) (*db.Employee, error)
}

// Resolve builds the principal for an employee id, taking the role from the directory
func Resolve(ctx context.Context, store DirectoryStore, employeeID string) (Principal, error) {
	e, err := store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Principal{}, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if !e.Role.IsValid() {
		return Principal{}, fmt.Errorf("employee %s has unknown role %q: %w", e.ID, e.Role, ErrForbidden)
	}
	return Principal{EmployeeID: e.ID, Role: e.Role}, nil
}

// CanActOnEmployee checks that p may read or write the target employee's entries.
// Employees reach only themselves, team leads also reach members of their own team, and
// admins reach everyone.
func CanActOnEmployee(ctx context.Context, store DirectoryStore, p Principal, employeeID string) error {
	if p.Role == db.RoleAdmin || p.EmployeeID == employeeID {
		return nil
	}
	if p.Role != db.RoleTeamLead {
		return fmt.Errorf("%s may not act on employee %s: %w", p.EmployeeID, employeeID, ErrForbidden)
	}

	lead, err := store.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to look up team lead: %w", err)
	}
	target, err := store.GetEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	if lead.TeamID == "" || lead.TeamID != target.TeamID {
		return fmt.Errorf("%s does not lead the team of %s: %w", p.EmployeeID, employeeID, ErrForbidden)
	}
	return nil
}

// CanViewTeam checks that p is an admin or the lead of teamID
func CanViewTeam(ctx context.Context, store DirectoryStore, p Principal, teamID string) error {
	if p.Role == db.RoleAdmin {
		return nil
	}
	if p.Role == db.RoleTeamLead {
		lead, err := store.GetEmployee(ctx, p.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to look up team lead: %w", err)
		}
		if lead.TeamID == teamID {
			return nil
		}
	}
	return fmt.Errorf("%s may not view team %s: %w", p.EmployeeID, teamID, ErrForbidden)
}

// CanViewProject checks that p may see project-wide reports
func CanViewProject(p Principal) error {
	if p.Role == db.RoleAdmin || p.Role == db.RoleTeamLead {
		return nil
	}
	return fmt.Errorf("%s may not view project reports: %w", p.EmployeeID, ErrForbidden)
}

// RequireAdmin checks that p is an admin
func RequireAdmin(p Principal) error {
	if p.Role == db.RoleAdmin {
		return nil
	}
	return fmt.Errorf("%s is not an admin: %w", p.EmployeeID, ErrForbidden)
}
