package db

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Role is the role carried by an authenticated principal
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeamLead Role = "team_lead"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTeamLead || r == RoleEmployee
}

// AssignmentStatus is the lifecycle state of an employee's project assignment
type AssignmentStatus string

const (
	StatusActive    AssignmentStatus = "Active"
	StatusOnHold    AssignmentStatus = "On Hold"
	StatusPending   AssignmentStatus = "Pending"
	StatusCompleted AssignmentStatus = "Completed"
)

var knownStatuses = []AssignmentStatus{StatusActive, StatusOnHold, StatusPending, StatusCompleted}

// ParseStatus matches s case-insensitively against the known statuses
func ParseStatus(s string) (AssignmentStatus, bool) {
	for _, st := range knownStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status stops carry-forward
func (s AssignmentStatus) IsTerminal() bool {
	return strings.EqualFold(string(s), string(StatusCompleted))
}

// Matches reports whether s equals other, ignoring case
func (s AssignmentStatus) Matches(other AssignmentStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// Team represents a team of employees
type Team struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// Employee represents an employee. The core treats it as an opaque foreign key.
type Employee struct {
	ID     string `yaml:"id" validate:"required"`
	Name   string `yaml:"name" validate:"required"`
	Role   Role   `yaml:"role" validate:"required,oneof=admin team_lead employee"`
	TeamID string `yaml:"teamID,omitempty"` // Empty string if no team
}

// Project represents a project. ActualStartDate is derived from assignment rows and is
// only ever written by the store's aggregate maintenance.
type Project struct {
	ID              string  `yaml:"id" validate:"required"`
	Name            string  `yaml:"name" validate:"required"`
	Status          string  `yaml:"status,omitempty"`
	PlannedStart    *string `yaml:"plannedStart,omitempty"`
	PlannedEnd      *string `yaml:"plannedEnd,omitempty"`
	ActualStartDate *string `yaml:"-"`
}

// ActivityRecord is one non-project activity entry for an employee on a day
type ActivityRecord struct {
	ID         string
	EmployeeID string
	Date       string
	Label      string
	Hours      decimal.Decimal
	Comment    *string
}

// ActivityInput is one item of a full-day activity batch
type ActivityInput struct {
	Label   string
	Hours   decimal.Decimal
	Comment *string
}

// AssignmentKey is the natural key of an assignment record
type AssignmentKey struct {
	EmployeeID string
	ProjectID  string
	Date       string
}

// AssignmentRecord is an employee's state on a project for one day
type AssignmentRecord struct {
	ID           string
	EmployeeID   string
	ProjectID    string
	Date         string
	ProjectName  *string // snapshot of the project name at write time
	PlannedStart *string
	PlannedEnd   *string
	ActualStart  *string
	ActualEnd    *string
	Status       AssignmentStatus
	Hours        decimal.Decimal
	Comment      *string
}

// Key returns the record's natural key
func (r AssignmentRecord) Key() AssignmentKey {
	return AssignmentKey{EmployeeID: r.EmployeeID, ProjectID: r.ProjectID, Date: r.Date}
}

// ContributionRow is an assignment row joined with the names used by reports
type ContributionRow struct {
	EmployeeID   string
	EmployeeName string
	ProjectID    string
	ProjectName  string // master project name, falling back to the record snapshot
	Date         string
	Hours        decimal.Decimal
}

// MasterData is a batch of teams, employees and projects to upsert by id
type MasterData struct {
	Teams     []Team     `yaml:"teams" validate:"dive"`
	Employees []Employee `yaml:"employees" validate:"dive"`
	Projects  []Project  `yaml:"projects" validate:"dive"`
}
