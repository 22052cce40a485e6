package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/worklog/pkg/core/services"
)

// ReportCmd creates the report command group
func ReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read-only rollups over activity and project hours",
	}

	cmd.AddCommand(reportEmployeeCmd(app))
	cmd.AddCommand(reportDailyCmd(app))
	cmd.AddCommand(reportContributorsCmd(app))
	cmd.AddCommand(reportTeamHoursCmd(app))
	cmd.AddCommand(reportUtilizationCmd(app))
	cmd.AddCommand(reportMissingCmd(app))

	return cmd
}

func reportEmployeeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "employee <employee> <start> <end>",
		Short: "All activity and project entries of an employee in a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			report, err := services.EmployeeRange(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printEmployeeRange(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func reportDailyCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daily <employee> [date]",
		Short: "Entry counts and hours of an employee for a day (defaults to today)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			summary, err := services.GetDailySummary(app.Ctx, app.Database, app.Logger, p, args[0], app.dayArg(args, 1))
			if err != nil {
				return err
			}

			printDailySummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func reportContributorsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "contributors <project> <start> <end>",
		Short: "Hours per employee on a project, largest first",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			totals, err := services.ProjectContributors(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printContributors(cmd.OutOrStdout(), args[0], totals)
			return nil
		},
	}
}

func reportTeamHoursCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "team-hours <team> <start> <end>",
		Short: "Hours per project across a team, largest first",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			totals, err := services.TeamProjectHours(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printProjectTotals(cmd.OutOrStdout(), args[0], totals)
			return nil
		},
	}
}

func reportUtilizationCmd(app *AppContext) *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "utilization <team> <start> <end>",
		Short: "Activity hours per category and project hours for each team member",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("category") {
				categories = app.Cfg.UtilizationCategories
			}

			summary, err := services.TeamUtilizationSummary(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2], categories)
			if err != nil {
				return err
			}

			printUtilization(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category to pivot (repeatable, defaults to config)")

	return cmd
}

func reportMissingCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "missing <employee> <start> [end]",
		Short: "Workdays in a range on which an employee logged nothing (end defaults to today)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			end := app.dayArg(args, 2)

			missing, err := services.MissingEntries(app.Ctx, app.Database, app.Logger, p, app.Workdays, args[0], args[1], end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(missing) == 0 {
				fmt.Fprintf(out, "\n✓ No missing entries for %s between %s and %s\n", args[0], args[1], end)
				return nil
			}
			fmt.Fprintf(out, "\n%d workdays without entries for %s:\n", len(missing), args[0])
			for _, day := range missing {
				fmt.Fprintf(out, "  - %s\n", day)
			}
			return nil
		},
	}
}
