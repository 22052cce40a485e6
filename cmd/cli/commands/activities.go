package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/worklog/pkg/core/services"
	"github.com/jakechorley/worklog/pkg/db"
)

// ActivitiesCmd creates the activities command group
func ActivitiesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "View and edit an employee's non-project activity hours",
	}

	cmd.AddCommand(activitiesGetCmd(app))
	cmd.AddCommand(activitiesReplaceCmd(app))
	cmd.AddCommand(activitiesUpdateCmd(app))
	cmd.AddCommand(activitiesDeleteCmd(app))

	return cmd
}

func activitiesGetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <employee> [date]",
		Short: "Show an employee's activities for a day (defaults to today)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}
			date := app.dayArg(args, 1)

			records, err := services.GetDayActivities(app.Ctx, app.Database, app.Logger, p, args[0], date)
			if err != nil {
				return err
			}

			printActivities(cmd.OutOrStdout(), args[0], date, records)
			return nil
		},
	}
}

func activitiesReplaceCmd(app *AppContext) *cobra.Command {
	var items []string
	var file string

	cmd := &cobra.Command{
		Use:   "replace <employee> <date>",
		Short: "Replace an employee's whole activity ledger for a day",
		Long: `Replace an employee's whole activity ledger for a day.

Items are given as --item Label=hours[:comment] (repeatable) or read from a YAML file
holding a list of {label, hours, comment}. Giving no items clears the day.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			batch, err := activityItems(items, file)
			if err != nil {
				return err
			}

			records, err := services.ReplaceDayActivities(app.Ctx, app.Database, app.Logger, p, args[0], args[1], batch)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Replaced activities for %s on %s\n", args[0], args[1])
			printActivities(cmd.OutOrStdout(), args[0], args[1], records)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&items, "item", nil, "Activity as Label=hours[:comment] (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with the day's activities")

	return cmd
}

func activitiesUpdateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <employee> <date> <record-id>",
		Short: "Update fields of one activity record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			patch, err := activityPatch(cmd)
			if err != nil {
				return err
			}

			record, err := services.UpdateActivity(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2], patch)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Updated activity %s\n", record.ID)
			printActivities(cmd.OutOrStdout(), args[0], args[1], []db.ActivityRecord{*record})
			return nil
		},
	}

	cmd.Flags().String("label", "", "Activity label")
	cmd.Flags().String("hours", "", "Hours spent")
	cmd.Flags().String("comment", "", "Comment")
	cmd.Flags().StringP("file", "f", "", "YAML file with the fields to write")

	return cmd
}

func activitiesDeleteCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <employee> <date> <record-id>",
		Short: "Delete one activity record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Principal()
			if err != nil {
				return err
			}

			if err := services.DeleteActivity(app.Ctx, app.Database, app.Logger, p, args[0], args[1], args[2]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Deleted activity %s\n", args[2])
			return nil
		},
	}
}

// activityItems builds a batch from --item values and an optional YAML file
func activityItems(items []string, file string) ([]services.ActivityItem, error) {
	var batch []services.ActivityItem

	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read activities file: %w", err)
		}
		if err := yaml.Unmarshal(content, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse activities file: %w", err)
		}
	}

	for _, raw := range items {
		item, err := parseActivityItem(raw)
		if err != nil {
			return nil, err
		}
		batch = append(batch, item)
	}

	return batch, nil
}

// parseActivityItem parses Label=hours[:comment]
func parseActivityItem(raw string) (services.ActivityItem, error) {
	label, rest, ok := strings.Cut(raw, "=")
	if !ok {
		return services.ActivityItem{}, fmt.Errorf("invalid --item %q: expected Label=hours[:comment]", raw)
	}

	item := services.ActivityItem{Label: label}
	hours, comment, hasComment := strings.Cut(rest, ":")
	item.Hours = hours
	if hasComment {
		item.Comment = &comment
	}
	return item, nil
}

func activityPatchFromFlags(cmd *cobra.Command) (db.ActivityPatch, error) {
	var patch db.ActivityPatch
	flags := cmd.Flags()

	if flags.Changed("label") {
		v, _ := flags.GetString("label")
		patch.Label = db.Some(v)
	}
	if flags.Changed("hours") {
		v, _ := flags.GetString("hours")
		h, err := parseHoursFlag(v)
		if err != nil {
			return patch, err
		}
		patch.Hours = db.Some(h)
	}
	if flags.Changed("comment") {
		v, _ := flags.GetString("comment")
		patch.Comment = db.Some(v)
	}

	return patch, nil
}

// activityPatch reads the optional patch file and lays the command-line flags over it
func activityPatch(cmd *cobra.Command) (db.ActivityPatch, error) {
	var base db.ActivityPatch
	if err := readPatchFile(cmd, &base); err != nil {
		return base, err
	}
	patch, err := activityPatchFromFlags(cmd)
	if err != nil {
		return patch, err
	}
	return patch.Over(base), nil
}

func parseHoursFlag(v string) (decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return decimal.Zero, db.NewValidationError("hours", "must not be empty")
	}
	return services.ParseHours("hours", v)
}
