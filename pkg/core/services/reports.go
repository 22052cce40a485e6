package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/core/dates"
	"github.com/jakechorley/worklog/pkg/db"
)

// ReportStore defines the database operations needed by the reports
type ReportStore interface {
	access.DirectoryStore
	GetTeam(ctx context.Context, id string) (*db.Team, error)
	GetProject(ctx context.Context, id string) (*db.Project, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]db.Employee, error)
	ListActivitiesInRange(ctx context.Context, employeeID, start, end string) ([]db.ActivityRecord, error)
	ListAssignmentsInRange(ctx context.Context, employeeID, start, end string) ([]db.AssignmentRecord, error)
	ListProjectContributions(ctx context.Context, projectID, start, end string) ([]db.ContributionRow, error)
	ListTeamContributions(ctx context.Context, teamID, start, end string) ([]db.ContributionRow, error)
	ListTeamActivities(ctx context.Context, teamID, start, end string) ([]db.ActivityRecord, error)
}

// ActivityView is an activity record shaped for display
type ActivityView struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Label   string `json:"label"`
	Hours   string `json:"hours"`
	Comment string `json:"comment"`
}

// ProjectEntryView is an assignment record shaped for display
type ProjectEntryView struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	ProjectID    string `json:"projectId"`
	ProjectName  string `json:"projectName"`
	PlannedStart string `json:"plannedStart"`
	PlannedEnd   string `json:"plannedEnd"`
	ActualStart  string `json:"actualStart"`
	ActualEnd    string `json:"actualEnd"`
	Status       string `json:"status"`
	Hours        string `json:"hours"`
	Comment      string `json:"comment"`
}

// EmployeeRangeReport holds an employee's entries within a date range
type EmployeeRangeReport struct {
	EmployeeID     string             `json:"employeeId"`
	Start          string             `json:"start"`
	End            string             `json:"end"`
	Activities     []ActivityView     `json:"activities"`
	ProjectEntries []ProjectEntryView `json:"projectEntries"`
}

// DailySummary counts an employee's explicit entries for one day
type DailySummary struct {
	EmployeeID    string          `json:"employeeId"`
	Date          string          `json:"date"`
	ActivityCount int             `json:"activityCount"`
	ActivityHours decimal.Decimal `json:"activityHours"`
	ProjectCount  int             `json:"projectCount"`
	ProjectHours  decimal.Decimal `json:"projectHours"`
	TotalHours    decimal.Decimal `json:"totalHours"`
	HasEntries    bool            `json:"hasEntries"`
}

// ContributorTotal is one employee's hours on a project
type ContributorTotal struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Hours        decimal.Decimal `json:"hours"`
}

// ProjectTotal is one project's hours across a team
type ProjectTotal struct {
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName"`
	Hours       decimal.Decimal `json:"hours"`
}

// UtilizationRow is one team member's activity hours per category plus project hours
type UtilizationRow struct {
	EmployeeID   string                     `json:"employeeId"`
	EmployeeName string                     `json:"employeeName"`
	Categories   map[string]decimal.Decimal `json:"categories"`
	ProjectHours decimal.Decimal            `json:"projectHours"`
}

// UtilizationSummary is the per-member pivot for a team
type UtilizationSummary struct {
	TeamID     string           `json:"teamId"`
	Categories []string         `json:"categories"`
	Rows       []UtilizationRow `json:"rows"`
}

// EmployeeRange returns the employee's activity and project entries in [start, end]
func EmployeeRange(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, employeeID, start, end string) (*EmployeeRangeReport, error) {
	logger.Debug("Building employee range report",
		zap.String("employee_id", employeeID),
		zap.String("start", start),
		zap.String("end", end))

	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	activities, err := store.ListActivitiesInRange(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	assignments, err := store.ListAssignmentsInRange(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list project entries: %w", err)
	}

	report := &EmployeeRangeReport{
		EmployeeID:     employeeID,
		Start:          start,
		End:            end,
		Activities:     make([]ActivityView, 0, len(activities)),
		ProjectEntries: make([]ProjectEntryView, 0, len(assignments)),
	}
	for _, a := range activities {
		report.Activities = append(report.Activities, ActivityView{
			ID:      a.ID,
			Date:    a.Date,
			Label:   a.Label,
			Hours:   a.Hours.String(),
			Comment: deref(a.Comment),
		})
	}
	for _, r := range assignments {
		report.ProjectEntries = append(report.ProjectEntries, projectEntryView(r))
	}

	return report, nil
}

func projectEntryView(r db.AssignmentRecord) ProjectEntryView {
	return ProjectEntryView{
		ID:           r.ID,
		Date:         r.Date,
		ProjectID:    r.ProjectID,
		ProjectName:  deref(r.ProjectName),
		PlannedStart: deref(r.PlannedStart),
		PlannedEnd:   deref(r.PlannedEnd),
		ActualStart:  deref(r.ActualStart),
		ActualEnd:    deref(r.ActualEnd),
		Status:       string(r.Status),
		Hours:        r.Hours.String(),
		Comment:      deref(r.Comment),
	}
}

// GetDailySummary counts the employee's activity and project entries for date
func GetDailySummary(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, employeeID, date string) (*DailySummary, error) {
	logger.Debug("Building daily summary", zap.String("employee_id", employeeID), zap.String("date", date))

	if err := validateDay("date", date); err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	summaries, err := summarizeRange(ctx, store, employeeID, date, date)
	if err != nil {
		return nil, err
	}
	return summaries.day(employeeID, date), nil
}

// MissingEntries returns the workdays in [start, end] on which the employee has no
// activity or project entry
func MissingEntries(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, workdays *dates.Workdays, employeeID, start, end string) ([]string, error) {
	logger.Debug("Finding missing entries",
		zap.String("employee_id", employeeID),
		zap.String("start", start),
		zap.String("end", end),
		zap.String("workdays", workdays.Rule()))

	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	days, err := workdays.Between(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to expand workdays: %w", err)
	}
	summaries, err := summarizeRange(ctx, store, employeeID, start, end)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0)
	for _, day := range days {
		if !summaries.day(employeeID, day).HasEntries {
			missing = append(missing, day)
		}
	}

	logger.Debug("Found missing entries", zap.Int("workdays", len(days)), zap.Int("missing", len(missing)))
	return missing, nil
}

type rangeSummaries struct {
	activities map[string][]db.ActivityRecord
	projects   map[string][]db.AssignmentRecord
}

func summarizeRange(ctx context.Context, store ReportStore, employeeID, start, end string) (*rangeSummaries, error) {
	activities, err := store.ListActivitiesInRange(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	assignments, err := store.ListAssignmentsInRange(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list project entries: %w", err)
	}

	s := &rangeSummaries{
		activities: make(map[string][]db.ActivityRecord),
		projects:   make(map[string][]db.AssignmentRecord),
	}
	for _, a := range activities {
		s.activities[a.Date] = append(s.activities[a.Date], a)
	}
	for _, r := range assignments {
		s.projects[r.Date] = append(s.projects[r.Date], r)
	}
	return s, nil
}

func (s *rangeSummaries) day(employeeID, date string) *DailySummary {
	summary := &DailySummary{
		EmployeeID:    employeeID,
		Date:          date,
		ActivityHours: decimal.Zero,
		ProjectHours:  decimal.Zero,
	}
	for _, a := range s.activities[date] {
		summary.ActivityCount++
		summary.ActivityHours = summary.ActivityHours.Add(a.Hours)
	}
	for _, r := range s.projects[date] {
		summary.ProjectCount++
		summary.ProjectHours = summary.ProjectHours.Add(r.Hours)
	}
	summary.TotalHours = summary.ActivityHours.Add(summary.ProjectHours)
	summary.HasEntries = summary.ActivityCount+summary.ProjectCount > 0
	return summary
}

// ProjectContributors sums each employee's hours on a project in [start, end], omitting
// employees with no hours, largest first
func ProjectContributors(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, projectID, start, end string) ([]ContributorTotal, error) {
	logger.Debug("Building project contributors",
		zap.String("project_id", projectID),
		zap.String("start", start),
		zap.String("end", end))

	if err := requireID("project_id", projectID); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := access.CanViewProject(p); err != nil {
		return nil, err
	}
	if _, err := store.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	rows, err := store.ListProjectContributions(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list project contributions: %w", err)
	}

	byEmployee := make(map[string]*ContributorTotal)
	for _, r := range rows {
		total, ok := byEmployee[r.EmployeeID]
		if !ok {
			total = &ContributorTotal{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName, Hours: decimal.Zero}
			byEmployee[r.EmployeeID] = total
		}
		total.Hours = total.Hours.Add(r.Hours)
	}

	result := make([]ContributorTotal, 0, len(byEmployee))
	for _, total := range byEmployee {
		if total.Hours.IsZero() {
			continue
		}
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Hours.Cmp(result[j].Hours); c != 0 {
			return c > 0
		}
		if result[i].EmployeeName != result[j].EmployeeName {
			return result[i].EmployeeName < result[j].EmployeeName
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})

	return result, nil
}

// TeamProjectHours sums the team's hours per project in [start, end], omitting projects
// with no hours, largest first
func TeamProjectHours(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, teamID, start, end string) ([]ProjectTotal, error) {
	logger.Debug("Building team project hours",
		zap.String("team_id", teamID),
		zap.String("start", start),
		zap.String("end", end))

	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := access.CanViewTeam(ctx, store, p, teamID); err != nil {
		return nil, err
	}
	if _, err := store.GetTeam(ctx, teamID); err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	rows, err := store.ListTeamContributions(ctx, teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list team contributions: %w", err)
	}

	byProject := make(map[string]*ProjectTotal)
	for _, r := range rows {
		total, ok := byProject[r.ProjectID]
		if !ok {
			total = &ProjectTotal{ProjectID: r.ProjectID, ProjectName: r.ProjectName, Hours: decimal.Zero}
			byProject[r.ProjectID] = total
		}
		total.Hours = total.Hours.Add(r.Hours)
	}

	result := make([]ProjectTotal, 0, len(byProject))
	for _, total := range byProject {
		if total.Hours.IsZero() {
			continue
		}
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Hours.Cmp(result[j].Hours); c != 0 {
			return c > 0
		}
		if result[i].ProjectName != result[j].ProjectName {
			return result[i].ProjectName < result[j].ProjectName
		}
		return result[i].ProjectID < result[j].ProjectID
	})

	return result, nil
}

// TeamUtilizationSummary pivots each team member's activity hours in [start, end] into
// categories and adds their project hours. Every member gets a row and every category a
// value, zero when nothing was logged. Labels outside categories are not pivoted.
func TeamUtilizationSummary(ctx context.Context, store ReportStore, logger *zap.Logger, p access.Principal, teamID, start, end string, categories []string) (*UtilizationSummary, error) {
	logger.Debug("Building team utilization summary",
		zap.String("team_id", teamID),
		zap.String("start", start),
		zap.String("end", end),
		zap.Strings("categories", categories))

	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := access.CanViewTeam(ctx, store, p, teamID); err != nil {
		return nil, err
	}
	if _, err := store.GetTeam(ctx, teamID); err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	members, err := store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	activities, err := store.ListTeamActivities(ctx, teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list team activities: %w", err)
	}
	contributions, err := store.ListTeamContributions(ctx, teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list team contributions: %w", err)
	}

	// Labels match categories ignoring case
	categoryByKey := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryByKey[strings.ToLower(c)] = c
	}

	rows := make([]UtilizationRow, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		row := UtilizationRow{
			EmployeeID:   m.ID,
			EmployeeName: m.Name,
			Categories:   make(map[string]decimal.Decimal, len(categories)),
			ProjectHours: decimal.Zero,
		}
		for _, c := range categories {
			row.Categories[c] = decimal.Zero
		}
		index[m.ID] = len(rows)
		rows = append(rows, row)
	}

	for _, a := range activities {
		i, ok := index[a.EmployeeID]
		if !ok {
			continue
		}
		category, ok := categoryByKey[strings.ToLower(a.Label)]
		if !ok {
			continue
		}
		rows[i].Categories[category] = rows[i].Categories[category].Add(a.Hours)
	}
	for _, c := range contributions {
		i, ok := index[c.EmployeeID]
		if !ok {
			continue
		}
		rows[i].ProjectHours = rows[i].ProjectHours.Add(c.Hours)
	}

	return &UtilizationSummary{TeamID: teamID, Categories: categories, Rows: rows}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
