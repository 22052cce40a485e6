package commands

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/core/carry"
	"github.com/jakechorley/worklog/pkg/core/services"
	"github.com/jakechorley/worklog/pkg/db"
)

const (
	colorReset = "\033[0m"
	colorDim   = "\033[2m"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func printActivities(out io.Writer, employeeID, date string, records []db.ActivityRecord) {
	fmt.Fprintf(out, "\nActivities for %s on %s\n\n", employeeID, date)
	if len(records) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}

	total := decimal.Zero
	w := newTable(out)
	fmt.Fprintln(w, "  ID\tLABEL\tHOURS\tCOMMENT")
	for _, r := range records {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", r.ID, r.Label, r.Hours.String(), orDash(r.Comment))
		total = total.Add(r.Hours)
	}
	w.Flush()
	fmt.Fprintf(out, "\n  Total: %s hours\n", total.String())
}

// resolvedRowLine renders one row of a resolved day; carried rows are marked
func resolvedRowLine(r carry.Row) string {
	hours := r.Hours.String()
	id := r.ID
	marker := ""
	if r.Carried {
		hours = "-"
		id = "-"
		marker = " (carried)"
	}
	return fmt.Sprintf("  %s\t%s\t%s%s\t%s..%s\t%s..%s\t%s\t%s",
		orDash(r.ProjectName), r.ProjectID, r.Status, marker,
		orDash(r.PlannedStart), orDash(r.PlannedEnd),
		orDash(r.ActualStart), orDash(r.ActualEnd),
		hours, id)
}

func printResolvedDay(out io.Writer, employeeID, date string, rows []carry.Row) {
	fmt.Fprintf(out, "\nProjects for %s on %s\n\n", employeeID, date)
	if len(rows) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}

	// Align first, then dim carried lines so the escape codes take no column width
	var table bytes.Buffer
	w := newTable(&table)
	fmt.Fprintln(w, "  PROJECT\tID\tSTATUS\tPLANNED\tACTUAL\tHOURS\tRECORD")
	for _, r := range rows {
		fmt.Fprintln(w, resolvedRowLine(r))
	}
	w.Flush()

	lines := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	fmt.Fprintln(out, lines[0])
	for i, line := range lines[1:] {
		if rows[i].Carried {
			line = colorDim + line + colorReset
		}
		fmt.Fprintln(out, line)
	}
}

func printAssignment(out io.Writer, r *db.AssignmentRecord) {
	w := newTable(out)
	fmt.Fprintf(w, "\n  Record:\t%s\n", r.ID)
	fmt.Fprintf(w, "  Employee:\t%s\n", r.EmployeeID)
	fmt.Fprintf(w, "  Project:\t%s (%s)\n", orDash(r.ProjectName), r.ProjectID)
	fmt.Fprintf(w, "  Date:\t%s\n", r.Date)
	fmt.Fprintf(w, "  Status:\t%s\n", r.Status)
	fmt.Fprintf(w, "  Planned:\t%s..%s\n", orDash(r.PlannedStart), orDash(r.PlannedEnd))
	fmt.Fprintf(w, "  Actual:\t%s..%s\n", orDash(r.ActualStart), orDash(r.ActualEnd))
	fmt.Fprintf(w, "  Hours:\t%s\n", r.Hours.String())
	fmt.Fprintf(w, "  Comment:\t%s\n", orDash(r.Comment))
	w.Flush()
}

func printEmployeeRange(out io.Writer, report *services.EmployeeRangeReport) {
	fmt.Fprintf(out, "\nEntries for %s from %s to %s\n", report.EmployeeID, report.Start, report.End)

	fmt.Fprintf(out, "\nActivities (%d)\n\n", len(report.Activities))
	if len(report.Activities) > 0 {
		w := newTable(out)
		fmt.Fprintln(w, "  DATE\tLABEL\tHOURS\tCOMMENT")
		for _, a := range report.Activities {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.Date, a.Label, a.Hours, a.Comment)
		}
		w.Flush()
	}

	fmt.Fprintf(out, "\nProject entries (%d)\n\n", len(report.ProjectEntries))
	if len(report.ProjectEntries) > 0 {
		w := newTable(out)
		fmt.Fprintln(w, "  DATE\tPROJECT\tSTATUS\tHOURS\tCOMMENT")
		for _, e := range report.ProjectEntries {
			name := e.ProjectName
			if name == "" {
				name = e.ProjectID
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", e.Date, name, e.Status, e.Hours, e.Comment)
		}
		w.Flush()
	}
}

func printDailySummary(out io.Writer, s *services.DailySummary) {
	fmt.Fprintf(out, "\nSummary for %s on %s\n\n", s.EmployeeID, s.Date)
	w := newTable(out)
	fmt.Fprintf(w, "  Activities:\t%d\t%s hours\n", s.ActivityCount, s.ActivityHours.String())
	fmt.Fprintf(w, "  Projects:\t%d\t%s hours\n", s.ProjectCount, s.ProjectHours.String())
	fmt.Fprintf(w, "  Total:\t\t%s hours\n", s.TotalHours.String())
	w.Flush()
	if !s.HasEntries {
		fmt.Fprintln(out, "\n  ⚠ No entries logged for this day")
	}
}

func printContributors(out io.Writer, projectID string, totals []services.ContributorTotal) {
	fmt.Fprintf(out, "\nContributors to %s\n\n", projectID)
	if len(totals) == 0 {
		fmt.Fprintln(out, "  (no hours logged)")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "  EMPLOYEE\tID\tHOURS")
	for _, t := range totals {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", t.EmployeeName, t.EmployeeID, t.Hours.String())
	}
	w.Flush()
}

func printProjectTotals(out io.Writer, teamID string, totals []services.ProjectTotal) {
	fmt.Fprintf(out, "\nProject hours for team %s\n\n", teamID)
	if len(totals) == 0 {
		fmt.Fprintln(out, "  (no hours logged)")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "  PROJECT\tID\tHOURS")
	for _, t := range totals {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", t.ProjectName, t.ProjectID, t.Hours.String())
	}
	w.Flush()
}

func printUtilization(out io.Writer, s *services.UtilizationSummary) {
	fmt.Fprintf(out, "\nUtilization for team %s\n\n", s.TeamID)
	if len(s.Rows) == 0 {
		fmt.Fprintln(out, "  (no members)")
		return
	}

	w := newTable(out)
	header := append([]string{"EMPLOYEE"}, s.Categories...)
	header = append(header, "PROJECTS")
	fmt.Fprintln(w, "  "+strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range s.Rows {
		cells := []string{row.EmployeeName}
		for _, c := range s.Categories {
			cells = append(cells, row.Categories[c].String())
		}
		cells = append(cells, row.ProjectHours.String())
		fmt.Fprintln(w, "  "+strings.Join(cells, "\t"))
	}
	w.Flush()
}
