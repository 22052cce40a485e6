package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/core/services"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Database.RunMigrations(app.Ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Database is up to date (%s)\n", app.Cfg.Backend)
			return nil
		},
	}
}

// ImportCmd creates the import command for master data
func ImportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert teams, employees and projects from a YAML file",
		Long: `Upsert teams, employees and projects from a YAML file.

Once the directory holds an admin, import must run with --as <admin>. Without --as it
only seeds a database that has no admin yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read master data file: %w", err)
			}

			var p *access.Principal
			if app.As != "" {
				resolved, err := app.Principal()
				if err != nil {
					return err
				}
				p = &resolved
			}

			result, err := services.ImportMasterData(app.Ctx, app.Database, app.Logger, p, content)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Imported %d teams, %d employees, %d projects\n",
				result.Teams, result.Employees, result.Projects)
			return nil
		},
	}
}

// EmployeesCmd creates the employees command group
func EmployeesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Maintain employees",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <employee>",
		Short: "Delete an employee together with all their entries (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			if err := services.DeleteEmployee(app.Ctx, app.Database, app.Logger, p, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Deleted employee %s\n", args[0])
			return nil
		},
	})

	return cmd
}
