package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/worklog/cmd/cli/commands"
	"github.com/jakechorley/worklog/internal/config"
	"github.com/jakechorley/worklog/pkg/core/dates"
	"github.com/jakechorley/worklog/pkg/postgres"
	"github.com/jakechorley/worklog/pkg/sqlite"
	"github.com/jakechorley/worklog/pkg/utils/logging"
)

var (
	env     string
	verbose bool
)

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:           "worklog",
		Short:         "Worklog CLI - Record daily activities and project time",
		Long:          `A CLI tool for logging daily non-project activities and per-project time, with carry-forward of ongoing project assignments and team reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				if err := app.Database.Close(); err != nil && app.Logger != nil {
					app.Logger.Warn("Failed to close database", zap.Error(err))
				}
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&app.As, "as", "", "Employee id to act as")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.ActivitiesCmd(app))
	rootCmd.AddCommand(commands.ProjectsCmd(app))
	rootCmd.AddCommand(commands.ReportCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportCmd(app))
	rootCmd.AddCommand(commands.EmployeesCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Error: %v\n", err)
		os.Exit(1)
	}
}

// initApp loads config, then sets up logger, clock, workday calendar and database
func initApp(app *commands.AppContext) error {
	var err error
	app.Ctx = context.Background()

	app.Cfg, err = config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, app.Cfg.LogsDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.String("backend", app.Cfg.Backend),
		zap.String("timezone", app.Cfg.Timezone))

	app.Clock, err = dates.NewClockForZone(app.Cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to create clock: %w", err)
	}

	app.Workdays, err = dates.NewWorkdays(app.Cfg.Workdays)
	if err != nil {
		return fmt.Errorf("failed to parse workdays: %w", err)
	}

	switch app.Cfg.Backend {
	case config.BackendPostgres:
		app.Logger.Debug("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Database = pg
	case config.BackendSQLite:
		app.Logger.Debug("Opening SQLite database", zap.String("path", app.Cfg.SQLitePath))
		lite, err := sqlite.Open(app.Cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Database = lite
	default:
		return fmt.Errorf("unknown backend %q", app.Cfg.Backend)
	}

	app.Logger.Debug("Database initialized", zap.String("backend", app.Cfg.Backend))
	return nil
}
