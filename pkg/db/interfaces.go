package db

import "context"

// ActivityStore defines the activity ledger operations
type ActivityStore interface {
	GetActivities(ctx context.Context, employeeID, date string) ([]ActivityRecord, error)
	ReplaceActivities(ctx context.Context, employeeID, date string, items []ActivityInput) ([]ActivityRecord, error)
	UpdateActivity(ctx context.Context, employeeID, date, recordID string, patch ActivityPatch) (*ActivityRecord, error)
	DeleteActivity(ctx context.Context, employeeID, date, recordID string) error
	ListActivitiesInRange(ctx context.Context, employeeID, start, end string) ([]ActivityRecord, error)
}

// AssignmentStore defines the project assignment operations. Every mutation
// recomputes the owning project's actual start date in the same transaction.
type AssignmentStore interface {
	UpsertAssignment(ctx context.Context, key AssignmentKey, patch AssignmentPatch) (*AssignmentRecord, error)
	UpdateAssignment(ctx context.Context, key AssignmentKey, patch AssignmentPatch) (*AssignmentRecord, error)
	// DeleteAssignment reports false when there was no record for key
	DeleteAssignment(ctx context.Context, key AssignmentKey) (bool, error)
	ListAssignmentsForDay(ctx context.Context, employeeID, date string) ([]AssignmentRecord, error)
	// ListLatestAssignmentsBefore returns, per project, the employee's record with the
	// greatest date strictly before date
	ListLatestAssignmentsBefore(ctx context.Context, employeeID, date string) ([]AssignmentRecord, error)
	ListAssignmentsInRange(ctx context.Context, employeeID, start, end string) ([]AssignmentRecord, error)
}

// DirectoryStore defines the master data lookups the core needs
type DirectoryStore interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetTeam(ctx context.Context, id string) (*Team, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]Employee, error)
	HasAdmin(ctx context.Context) (bool, error)
	SaveMasterData(ctx context.Context, data MasterData) error
	DeleteEmployee(ctx context.Context, id string) error
}

// ReportStore defines the range reads used by team and project reports
type ReportStore interface {
	ListProjectContributions(ctx context.Context, projectID, start, end string) ([]ContributionRow, error)
	ListTeamContributions(ctx context.Context, teamID, start, end string) ([]ContributionRow, error)
	ListTeamActivities(ctx context.Context, teamID, start, end string) ([]ActivityRecord, error)
}

// Database defines the interface for all database operations.
// Both the PostgreSQL-backed postgres.DB and the SQLite-backed sqlite.DB implement it.
type Database interface {
	ActivityStore
	AssignmentStore
	DirectoryStore
	ReportStore
	RunMigrations(ctx context.Context) error
	Close() error
}
