package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/db"
)

// mockStore is an in-memory stand-in for the database used by service unit tests
type mockStore struct {
	employees     map[string]db.Employee
	teams         map[string]db.Team
	projects      map[string]db.Project
	activities    []db.ActivityRecord
	assignments   []db.AssignmentRecord
	contributions []db.ContributionRow

	replaced     []db.ActivityInput
	upserts      []db.AssignmentPatch
	saved        *db.MasterData
	deletedEmp   string
	writeCalls   int
	deleteResult bool
	err          error
}

func newMockStore() *mockStore {
	return &mockStore{
		employees: map[string]db.Employee{
			"admin": {ID: "admin", Name: "Ada", Role: db.RoleAdmin},
			"lead":  {ID: "lead", Name: "Lee", Role: db.RoleTeamLead, TeamID: "team-a"},
			"emp-1": {ID: "emp-1", Name: "Ann", Role: db.RoleEmployee, TeamID: "team-a"},
			"emp-2": {ID: "emp-2", Name: "Bob", Role: db.RoleEmployee, TeamID: "team-a"},
			"emp-9": {ID: "emp-9", Name: "Zed", Role: db.RoleEmployee, TeamID: "team-b"},
		},
		teams: map[string]db.Team{
			"team-a": {ID: "team-a", Name: "Alpha"},
			"team-b": {ID: "team-b", Name: "Beta"},
		},
		projects: map[string]db.Project{
			"proj-x": {ID: "proj-x", Name: "Apollo"},
		},
	}
}

func (m *mockStore) GetEmployee(ctx context.Context, id string) (*db.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, db.ErrNotFound)
	}
	return &e, nil
}

func (m *mockStore) GetTeam(ctx context.Context, id string) (*db.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, db.ErrNotFound)
	}
	return &t, nil
}

func (m *mockStore) GetProject(ctx context.Context, id string) (*db.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, db.ErrNotFound)
	}
	return &p, nil
}

func (m *mockStore) ListTeamMembers(ctx context.Context, teamID string) ([]db.Employee, error) {
	var members []db.Employee
	for _, e := range m.employees {
		if e.TeamID == teamID {
			members = append(members, e)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (m *mockStore) HasAdmin(ctx context.Context) (bool, error) {
	for _, e := range m.employees {
		if e.Role == db.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) SaveMasterData(ctx context.Context, data db.MasterData) error {
	m.writeCalls++
	if m.err != nil {
		return m.err
	}
	m.saved = &data
	return nil
}

func (m *mockStore) DeleteEmployee(ctx context.Context, id string) error {
	m.writeCalls++
	if m.err != nil {
		return m.err
	}
	m.deletedEmp = id
	return nil
}

func (m *mockStore) GetActivities(ctx context.Context, employeeID, date string) ([]db.ActivityRecord, error) {
	var out []db.ActivityRecord
	for _, a := range m.activities {
		if a.EmployeeID == employeeID && a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) ReplaceActivities(ctx context.Context, employeeID, date string, items []db.ActivityInput) ([]db.ActivityRecord, error) {
	m.writeCalls++
	if m.err != nil {
		return nil, m.err
	}
	m.replaced = items
	out := make([]db.ActivityRecord, 0, len(items))
	for i, item := range items {
		out = append(out, db.ActivityRecord{
			ID:         fmt.Sprintf("act-%d", i),
			EmployeeID: employeeID,
			Date:       date,
			Label:      item.Label,
			Hours:      item.Hours,
			Comment:    item.Comment,
		})
	}
	return out, nil
}

func (m *mockStore) UpdateActivity(ctx context.Context, employeeID, date, recordID string, patch db.ActivityPatch) (*db.ActivityRecord, error) {
	m.writeCalls++
	if m.err != nil {
		return nil, m.err
	}
	for i, a := range m.activities {
		if a.ID == recordID && a.EmployeeID == employeeID && a.Date == date {
			mergeActivity(&m.activities[i], patch)
			rec := m.activities[i]
			return &rec, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) DeleteActivity(ctx context.Context, employeeID, date, recordID string) error {
	m.writeCalls++
	if m.err != nil {
		return m.err
	}
	return nil
}

func (m *mockStore) ListActivitiesInRange(ctx context.Context, employeeID, start, end string) ([]db.ActivityRecord, error) {
	var out []db.ActivityRecord
	for _, a := range m.activities {
		if a.EmployeeID == employeeID && a.Date >= start && a.Date <= end {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	m.writeCalls++
	if m.err != nil {
		return nil, m.err
	}
	m.upserts = append(m.upserts, patch)
	rec := db.AssignmentRecord{
		ID:         "rec-1",
		EmployeeID: key.EmployeeID,
		ProjectID:  key.ProjectID,
		Date:       key.Date,
		Status:     db.StatusActive,
		Hours:      decimal.Zero,
	}
	mergeAssignment(&rec, patch)
	return &rec, nil
}

func (m *mockStore) UpdateAssignment(ctx context.Context, key db.AssignmentKey, patch db.AssignmentPatch) (*db.AssignmentRecord, error) {
	m.writeCalls++
	if m.err != nil {
		return nil, m.err
	}
	for i, r := range m.assignments {
		if r.Key() == key {
			mergeAssignment(&m.assignments[i], patch)
			rec := m.assignments[i]
			return &rec, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) DeleteAssignment(ctx context.Context, key db.AssignmentKey) (bool, error) {
	m.writeCalls++
	if m.err != nil {
		return false, m.err
	}
	return m.deleteResult, nil
}

func (m *mockStore) ListAssignmentsForDay(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error) {
	var out []db.AssignmentRecord
	for _, r := range m.assignments {
		if r.EmployeeID == employeeID && r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListLatestAssignmentsBefore(ctx context.Context, employeeID, date string) ([]db.AssignmentRecord, error) {
	latest := make(map[string]db.AssignmentRecord)
	for _, r := range m.assignments {
		if r.EmployeeID != employeeID || r.Date >= date {
			continue
		}
		if cur, ok := latest[r.ProjectID]; !ok || r.Date > cur.Date {
			latest[r.ProjectID] = r
		}
	}
	out := make([]db.AssignmentRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) ListAssignmentsInRange(ctx context.Context, employeeID, start, end string) ([]db.AssignmentRecord, error) {
	var out []db.AssignmentRecord
	for _, r := range m.assignments {
		if r.EmployeeID == employeeID && r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListProjectContributions(ctx context.Context, projectID, start, end string) ([]db.ContributionRow, error) {
	var out []db.ContributionRow
	for _, c := range m.contributions {
		if c.ProjectID == projectID && c.Date >= start && c.Date <= end {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListTeamContributions(ctx context.Context, teamID, start, end string) ([]db.ContributionRow, error) {
	var out []db.ContributionRow
	for _, c := range m.contributions {
		if m.employees[c.EmployeeID].TeamID == teamID && c.Date >= start && c.Date <= end {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListTeamActivities(ctx context.Context, teamID, start, end string) ([]db.ActivityRecord, error) {
	var out []db.ActivityRecord
	for _, a := range m.activities {
		if m.employees[a.EmployeeID].TeamID == teamID && a.Date >= start && a.Date <= end {
			out = append(out, a)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func setPtr(o db.Optional[string], dst **string) {
	if v, ok := o.Get(); ok {
		*dst = &v
	}
}

// mergeAssignment applies patch to r by presence, as the stores do in SQL
func mergeAssignment(r *db.AssignmentRecord, p db.AssignmentPatch) {
	setPtr(p.ProjectName, &r.ProjectName)
	setPtr(p.PlannedStart, &r.PlannedStart)
	setPtr(p.PlannedEnd, &r.PlannedEnd)
	setPtr(p.ActualStart, &r.ActualStart)
	setPtr(p.ActualEnd, &r.ActualEnd)
	setPtr(p.Comment, &r.Comment)
	if v, ok := p.Status.Get(); ok {
		r.Status = v
	}
	if v, ok := p.Hours.Get(); ok {
		r.Hours = v
	}
}

func mergeActivity(r *db.ActivityRecord, p db.ActivityPatch) {
	if v, ok := p.Label.Get(); ok {
		r.Label = v
	}
	if v, ok := p.Hours.Get(); ok {
		r.Hours = v
	}
	setPtr(p.Comment, &r.Comment)
}
