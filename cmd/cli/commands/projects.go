package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/worklog/pkg/core/services"
	"github.com/jakechorley/worklog/pkg/db"
)

// ProjectsCmd creates the projects command group for per-day project entries
func ProjectsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "View and edit an employee's per-day project entries",
	}

	cmd.AddCommand(projectsDayCmd(app))
	cmd.AddCommand(projectsUpsertCmd(app))
	cmd.AddCommand(projectsUpdateCmd(app))
	cmd.AddCommand(projectsDeleteCmd(app))

	return cmd
}

func projectsDayCmd(app *AppContext) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "day <employee> [date]",
		Short: "Show the projects in effect for an employee on a day, including carried ones",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			date := app.dayArg(args, 1)

			rows, err := services.ResolveDay(app.Ctx, app.Database, app.Logger, p, args[0], date, status)
			if err != nil {
				return err
			}

			printResolvedDay(cmd.OutOrStdout(), args[0], date, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show rows with this status")

	return cmd
}

func projectsUpsertCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upsert <employee> <project> <date>",
		Short: "Create or merge into an employee's entry for a project and day",
		Long: `Create or merge into an employee's entry for a project and day.

Only the flags given are written. Everything else keeps its stored value, or its default
(hours 0, status Active) when the entry is new. Fields can also come from a YAML file
(-f); flags win over the file and a null in the file leaves the field unset.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			patch, err := assignmentPatch(cmd)
			if err != nil {
				return err
			}

			record, err := services.UpsertDayProject(app.Ctx, app.Database, app.Logger, p, keyFromArgs(args), patch)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Saved entry\n")
			printAssignment(cmd.OutOrStdout(), record)
			return nil
		},
	}

	addAssignmentFlags(cmd)
	return cmd
}

func projectsUpdateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <employee> <project> <date>",
		Short: "Update an existing entry; fails if the day has no stored entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			patch, err := assignmentPatch(cmd)
			if err != nil {
				return err
			}

			record, err := services.UpdateDayProject(app.Ctx, app.Database, app.Logger, p, keyFromArgs(args), patch)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Updated entry\n")
			printAssignment(cmd.OutOrStdout(), record)
			return nil
		},
	}

	addAssignmentFlags(cmd)
	return cmd
}

func projectsDeleteCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <employee> <project> <date>",
		Short: "Delete an employee's entry for a project and day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			outcome, err := services.DeleteDayProject(app.Ctx, app.Database, app.Logger, p, keyFromArgs(args))
			if err != nil {
				return err
			}

			switch outcome {
			case services.NothingToDelete:
				fmt.Fprintf(cmd.OutOrStdout(), "\nNothing to delete: %s has no stored entry for %s on %s\n", args[0], args[1], args[2])
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Deleted entry for %s on %s\n", args[1], args[2])
			}
			return nil
		},
	}
}

func keyFromArgs(args []string) db.AssignmentKey {
	return db.AssignmentKey{EmployeeID: args[0], ProjectID: args[1], Date: args[2]}
}

func addAssignmentFlags(cmd *cobra.Command) {
	cmd.Flags().String("project-name", "", "Project name snapshot")
	cmd.Flags().String("planned-start", "", "Planned start day (YYYY-MM-DD)")
	cmd.Flags().String("planned-end", "", "Planned end day (YYYY-MM-DD)")
	cmd.Flags().String("actual-start", "", "Actual start day (YYYY-MM-DD)")
	cmd.Flags().String("actual-end", "", "Actual end day (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "Active, On Hold, Pending or Completed")
	cmd.Flags().String("hours", "", "Hours spent")
	cmd.Flags().String("comment", "", "Comment")
	cmd.Flags().StringP("file", "f", "", "YAML file with the fields to write")
}

// assignmentPatch reads the optional patch file and lays the command-line flags over it
func assignmentPatch(cmd *cobra.Command) (db.AssignmentPatch, error) {
	var base db.AssignmentPatch
	if err := readPatchFile(cmd, &base); err != nil {
		return base, err
	}
	patch, err := assignmentPatchFromFlags(cmd)
	if err != nil {
		return patch, err
	}
	return patch.Over(base), nil
}

// readPatchFile decodes the YAML file named by --file into out, if one was given
func readPatchFile(cmd *cobra.Command, out any) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read patch file: %w", err)
	}
	if err := yaml.Unmarshal(content, out); err != nil {
		return &db.ValidationError{Field: "file", Message: "invalid patch YAML", Err: err}
	}
	return nil
}

// assignmentPatchFromFlags sets a patch field for every flag given on the command line
func assignmentPatchFromFlags(cmd *cobra.Command) (db.AssignmentPatch, error) {
	var patch db.AssignmentPatch
	flags := cmd.Flags()

	stringFields := []struct {
		flag string
		dst  *db.Optional[string]
	}{
		{"project-name", &patch.ProjectName},
		{"planned-start", &patch.PlannedStart},
		{"planned-end", &patch.PlannedEnd},
		{"actual-start", &patch.ActualStart},
		{"actual-end", &patch.ActualEnd},
		{"comment", &patch.Comment},
	}
	for _, f := range stringFields {
		if flags.Changed(f.flag) {
			v, _ := flags.GetString(f.flag)
			*f.dst = db.Some(v)
		}
	}

	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		patch.Status = db.Some(db.AssignmentStatus(v))
	}
	if flags.Changed("hours") {
		v, _ := flags.GetString("hours")
		h, err := parseHoursFlag(v)
		if err != nil {
			return patch, err
		}
		patch.Hours = db.Some(h)
	}

	return patch, nil
}
