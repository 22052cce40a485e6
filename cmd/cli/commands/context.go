package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/worklog/internal/config"
	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/core/dates"
	"github.com/jakechorley/worklog/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context
	Clock    dates.Clock
	Workdays *dates.Workdays
	// As is the employee id the command acts as, set by the --as flag
	As string
}

// Principal resolves the caller named by --as
func (app *AppContext) Principal() (access.Principal, error) {
	if app.As == "" {
		return access.Principal{}, fmt.Errorf("--as <employee-id> is required for this command")
	}
	p, err := access.Resolve(app.Ctx, app.Database, app.As)
	if err != nil {
		return access.Principal{}, err
	}
	app.Logger.Debug("Resolved principal", zap.String("employee_id", p.EmployeeID), zap.String("role", string(p.Role)))
	return p, nil
}

// dayArg returns args[i] when present, otherwise today
func (app *AppContext) dayArg(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return app.Clock.Today()
}
