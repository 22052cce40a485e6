package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/core/dates"
	"github.com/jakechorley/worklog/pkg/db"
)

// MasterDataStore defines the database operations needed to maintain master data
type MasterDataStore interface {
	access.DirectoryStore
	HasAdmin(ctx context.Context) (bool, error)
	SaveMasterData(ctx context.Context, data db.MasterData) error
	DeleteEmployee(ctx context.Context, id string) error
}

// ImportResult counts what an import upserted
type ImportResult struct {
	Teams     int
	Employees int
	Projects  int
}

// ParseMasterData decodes and validates a YAML master data document
func ParseMasterData(content []byte) (*db.MasterData, error) {
	var data db.MasterData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, &db.ValidationError{Field: "file", Message: "invalid master data YAML", Err: err}
	}

	validate := validator.New()
	if err := validate.Struct(&data); err != nil {
		return nil, &db.ValidationError{Field: "file", Message: err.Error(), Err: err}
	}

	if err := checkUniqueIDs("teams", len(data.Teams), func(i int) string { return data.Teams[i].ID }); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs("employees", len(data.Employees), func(i int) string { return data.Employees[i].ID }); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs("projects", len(data.Projects), func(i int) string { return data.Projects[i].ID }); err != nil {
		return nil, err
	}

	for i, proj := range data.Projects {
		if err := dates.ValidateWindow(proj.PlannedStart, proj.PlannedEnd); err != nil {
			return nil, &db.ValidationError{Field: fmt.Sprintf("projects[%d]", i), Message: err.Error(), Err: err}
		}
		// Derived from assignment rows only
		data.Projects[i].ActualStartDate = nil
	}

	return &data, nil
}

func checkUniqueIDs(section string, n int, id func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		if seen[id(i)] {
			return db.NewValidationError(fmt.Sprintf("%s[%d].id", section, i), "duplicate id %q", id(i))
		}
		seen[id(i)] = true
	}
	return nil
}

// ImportMasterData upserts the teams, employees and projects in a YAML document by id in
// one transaction. Once any admin exists p must be an admin; a nil p is accepted only
// while the directory has no admin, which is how a fresh database is seeded.
func ImportMasterData(ctx context.Context, store MasterDataStore, logger *zap.Logger, p *access.Principal, content []byte) (*ImportResult, error) {
	logger.Debug("Importing master data", zap.Int("bytes", len(content)))

	if err := requireImportAdmin(ctx, store, p); err != nil {
		return nil, err
	}

	data, err := ParseMasterData(content)
	if err != nil {
		return nil, err
	}

	if err := store.SaveMasterData(ctx, *data); err != nil {
		return nil, fmt.Errorf("failed to save master data: %w", err)
	}

	result := &ImportResult{
		Teams:     len(data.Teams),
		Employees: len(data.Employees),
		Projects:  len(data.Projects),
	}
	logger.Info("Imported master data",
		zap.Int("teams", result.Teams),
		zap.Int("employees", result.Employees),
		zap.Int("projects", result.Projects))

	return result, nil
}

func requireImportAdmin(ctx context.Context, store MasterDataStore, p *access.Principal) error {
	if p != nil {
		return access.RequireAdmin(*p)
	}
	hasAdmin, err := store.HasAdmin(ctx)
	if err != nil {
		return err
	}
	if hasAdmin {
		return fmt.Errorf("an admin principal is required to import master data: %w", access.ErrForbidden)
	}
	return nil
}

// DeleteEmployee removes an employee with their entries. The store recomputes every
// affected project's actual start date in the same transaction.
func DeleteEmployee(ctx context.Context, store MasterDataStore, logger *zap.Logger, p access.Principal, employeeID string) error {
	logger.Debug("Deleting employee", zap.String("employee_id", employeeID))

	if err := requireID("employee_id", employeeID); err != nil {
		return err
	}
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if employeeID == p.EmployeeID {
		return db.NewValidationError("employee_id", "an admin cannot delete themselves")
	}

	if err := store.DeleteEmployee(ctx, employeeID); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	logger.Info("Deleted employee", zap.String("employee_id", employeeID))
	return nil
}
