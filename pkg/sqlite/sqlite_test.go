package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/worklog/pkg/db"
)

func strPtr(s string) *string { return &s }

func newTestDB(t *testing.T) *DB {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "worklog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.RunMigrations(ctx))

	err = store.SaveMasterData(ctx, db.MasterData{
		Teams: []db.Team{{ID: "team-1", Name: "Platform"}},
		Employees: []db.Employee{
			{ID: "emp-1", Name: "Alex", Role: db.RoleEmployee, TeamID: "team-1"},
			{ID: "emp-2", Name: "Sam", Role: db.RoleTeamLead, TeamID: "team-1"},
		},
		Projects: []db.Project{
			{ID: "proj-x", Name: "Apollo", Status: "Active"},
			{ID: "proj-y", Name: "Borealis", Status: "Active"},
		},
	})
	require.NoError(t, err)

	return store
}

func TestHasAdmin(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	has, err := store.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SaveMasterData(ctx, db.MasterData{
		Employees: []db.Employee{{ID: "boss", Name: "Morgan", Role: db.RoleAdmin}},
	}))

	has, err = store.HasAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	store := newTestDB(t)
	assert.NoError(t, store.RunMigrations(context.Background()))
}

func TestUpsertAssignment_InsertsDefaults(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}

	rec, err := store.UpsertAssignment(ctx, key, db.AssignmentPatch{Comment: db.Some("kickoff")})
	require.NoError(t, err)

	assert.Equal(t, db.StatusActive, rec.Status)
	assert.True(t, rec.Hours.IsZero())
	require.NotNil(t, rec.ProjectName)
	assert.Equal(t, "Apollo", *rec.ProjectName)
	assert.Nil(t, rec.PlannedStart)
	require.NotNil(t, rec.Comment)
	assert.Equal(t, "kickoff", *rec.Comment)
}

func TestUpsertAssignment_MergesByPresence(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}

	_, err := store.UpsertAssignment(ctx, key, db.AssignmentPatch{
		Hours:   db.Some(decimal.RequireFromString("3.5")),
		Comment: db.Some("first"),
	})
	require.NoError(t, err)

	rec, err := store.UpsertAssignment(ctx, key, db.AssignmentPatch{Status: db.Some(db.StatusOnHold)})
	require.NoError(t, err)

	assert.Equal(t, db.StatusOnHold, rec.Status)
	assert.Equal(t, "3.5", rec.Hours.String())
	require.NotNil(t, rec.Comment)
	assert.Equal(t, "first", *rec.Comment)

	rows, err := store.ListAssignmentsForDay(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpsertAssignment_Idempotent(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}
	patch := db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(2)), ActualStart: db.Some("2024-03-01")}

	first, err := store.UpsertAssignment(ctx, key, patch)
	require.NoError(t, err)
	second, err := store.UpsertAssignment(ctx, key, patch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUpsertAssignment_RejectsReversedMergedWindow(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}

	_, err := store.UpsertAssignment(ctx, key, db.AssignmentPatch{PlannedEnd: db.Some("2024-03-10")})
	require.NoError(t, err)

	_, err = store.UpsertAssignment(ctx, key, db.AssignmentPatch{PlannedStart: db.Some("2024-03-20")})
	var vErr *db.ValidationError
	require.True(t, errors.As(err, &vErr), "expected validation error, got %v", err)
	assert.Equal(t, "planned", vErr.Field)
	assert.Equal(t, "planned start is after planned end", vErr.Message)

	rows, err := store.ListAssignmentsForDay(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PlannedStart)
}

func TestUpsertAssignment_UnknownProjectIsConflict(t *testing.T) {
	store := newTestDB(t)
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "missing", Date: "2024-03-01"}

	_, err := store.UpsertAssignment(context.Background(), key, db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(1))})
	require.Error(t, err)
	assert.True(t, db.IsConflict(err))
}

func TestUpdateAssignment_NotFound(t *testing.T) {
	store := newTestDB(t)
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}

	_, err := store.UpdateAssignment(context.Background(), key, db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(1))})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteAssignment_NothingToDelete(t *testing.T) {
	store := newTestDB(t)
	key := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"}

	deleted, err := store.DeleteAssignment(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProjectActualStart_TracksAssignments(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	k1 := db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-05"}
	k2 := db.AssignmentKey{EmployeeID: "emp-2", ProjectID: "proj-x", Date: "2024-03-06"}

	_, err := store.UpsertAssignment(ctx, k1, db.AssignmentPatch{ActualStart: db.Some("2024-03-05")})
	require.NoError(t, err)
	_, err = store.UpsertAssignment(ctx, k2, db.AssignmentPatch{ActualStart: db.Some("2024-03-02")})
	require.NoError(t, err)

	p, err := store.GetProject(ctx, "proj-x")
	require.NoError(t, err)
	require.NotNil(t, p.ActualStartDate)
	assert.Equal(t, "2024-03-02", *p.ActualStartDate)

	deleted, err := store.DeleteAssignment(ctx, k2)
	require.NoError(t, err)
	require.True(t, deleted)

	p, err = store.GetProject(ctx, "proj-x")
	require.NoError(t, err)
	require.NotNil(t, p.ActualStartDate)
	assert.Equal(t, "2024-03-05", *p.ActualStartDate)

	deleted, err = store.DeleteAssignment(ctx, k1)
	require.NoError(t, err)
	require.True(t, deleted)

	p, err = store.GetProject(ctx, "proj-x")
	require.NoError(t, err)
	assert.Nil(t, p.ActualStartDate)
}

func TestSaveMasterData_KeepsDerivedActualStart(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-05"},
		db.AssignmentPatch{ActualStart: db.Some("2024-03-05")})
	require.NoError(t, err)

	err = store.SaveMasterData(ctx, db.MasterData{
		Projects: []db.Project{{ID: "proj-x", Name: "Apollo II", Status: "Active"}},
	})
	require.NoError(t, err)

	p, err := store.GetProject(ctx, "proj-x")
	require.NoError(t, err)
	assert.Equal(t, "Apollo II", p.Name)
	require.NotNil(t, p.ActualStartDate)
	assert.Equal(t, "2024-03-05", *p.ActualStartDate)
}

func TestListLatestAssignmentsBefore_OnePerProject(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	for _, date := range []string{"2024-03-01", "2024-03-03"} {
		_, err := store.UpsertAssignment(ctx,
			db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: date},
			db.AssignmentPatch{Comment: db.Some(date)})
		require.NoError(t, err)
	}
	_, err := store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-y", Date: "2024-03-02"},
		db.AssignmentPatch{Status: db.Some(db.StatusCompleted)})
	require.NoError(t, err)
	_, err = store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-y", Date: "2024-03-10"},
		db.AssignmentPatch{})
	require.NoError(t, err)

	rows, err := store.ListLatestAssignmentsBefore(ctx, "emp-1", "2024-03-05")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "proj-x", rows[0].ProjectID)
	assert.Equal(t, "2024-03-03", rows[0].Date)
	assert.Equal(t, "proj-y", rows[1].ProjectID)
	assert.Equal(t, "2024-03-02", rows[1].Date)
}

func TestReplaceActivities_ReplacesWholeDay(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{
		{Label: "Training", Hours: decimal.NewFromInt(2)},
		{Label: "Admin", Hours: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)

	recs, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{
		{Label: "Meeting", Hours: decimal.RequireFromString("1.5"), Comment: strPtr("standup")},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got, err := store.GetActivities(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Meeting", got[0].Label)
	assert.Equal(t, "1.5", got[0].Hours.String())
	require.NotNil(t, got[0].Comment)
	assert.Equal(t, "standup", *got[0].Comment)
}

func TestReplaceActivities_EmptyClearsDay(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{{Label: "Admin", Hours: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	recs, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)

	got, err := store.GetActivities(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceActivities_FailureLeavesPriorLedger(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{{Label: "Admin", Hours: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	// Duplicate labels trip the unique constraint after the delete has run
	_, err = store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{
		{Label: "Training", Hours: decimal.NewFromInt(1)},
		{Label: "Training", Hours: decimal.NewFromInt(2)},
	})
	require.Error(t, err)
	assert.True(t, db.IsConflict(err))

	got, err := store.GetActivities(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Admin", got[0].Label)
}

func TestUpdateActivity(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	recs, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{
		{Label: "Admin", Hours: decimal.NewFromInt(1), Comment: strPtr("email")},
	})
	require.NoError(t, err)

	rec, err := store.UpdateActivity(ctx, "emp-1", "2024-03-01", recs[0].ID, db.ActivityPatch{Hours: db.Some(decimal.NewFromInt(3))})
	require.NoError(t, err)
	assert.Equal(t, "3", rec.Hours.String())
	assert.Equal(t, "Admin", rec.Label)
	require.NotNil(t, rec.Comment)
	assert.Equal(t, "email", *rec.Comment)

	_, err = store.UpdateActivity(ctx, "emp-1", "2024-03-02", recs[0].ID, db.ActivityPatch{Hours: db.Some(decimal.NewFromInt(3))})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateActivity_LabelUniqueIgnoringCase(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	recs, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{
		{Label: "Admin", Hours: decimal.NewFromInt(1)},
		{Label: "Meeting", Hours: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)
	require.Equal(t, "Admin", recs[0].Label)

	_, err = store.UpdateActivity(ctx, "emp-1", "2024-03-01", recs[0].ID, db.ActivityPatch{Label: db.Some("meeting")})
	assert.True(t, db.IsConflict(err), "expected conflict, got %v", err)

	got, err := store.GetActivities(ctx, "emp-1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Admin", got[0].Label)
	assert.Equal(t, "Meeting", got[1].Label)
}

func TestDeleteActivity(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	recs, err := store.ReplaceActivities(ctx, "emp-1", "2024-03-01", []db.ActivityInput{{Label: "Admin", Hours: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteActivity(ctx, "emp-1", "2024-03-01", recs[0].ID))
	assert.ErrorIs(t, store.DeleteActivity(ctx, "emp-1", "2024-03-01", recs[0].ID), db.ErrNotFound)
}

func TestDeleteEmployee_RecomputesProjects(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"},
		db.AssignmentPatch{ActualStart: db.Some("2024-03-01")})
	require.NoError(t, err)
	_, err = store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-2", ProjectID: "proj-x", Date: "2024-03-04"},
		db.AssignmentPatch{ActualStart: db.Some("2024-03-04")})
	require.NoError(t, err)

	require.NoError(t, store.DeleteEmployee(ctx, "emp-1"))

	p, err := store.GetProject(ctx, "proj-x")
	require.NoError(t, err)
	require.NotNil(t, p.ActualStartDate)
	assert.Equal(t, "2024-03-04", *p.ActualStartDate)

	_, err = store.GetEmployee(ctx, "emp-1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	assert.ErrorIs(t, store.DeleteEmployee(ctx, "emp-1"), db.ErrNotFound)
}

func TestTeamReports(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01"},
		db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(4))})
	require.NoError(t, err)
	_, err = store.UpsertAssignment(ctx,
		db.AssignmentKey{EmployeeID: "emp-2", ProjectID: "proj-x", Date: "2024-03-02"},
		db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(2))})
	require.NoError(t, err)
	_, err = store.ReplaceActivities(ctx, "emp-2", "2024-03-02", []db.ActivityInput{{Label: "Training", Hours: decimal.NewFromInt(3)}})
	require.NoError(t, err)

	contribs, err := store.ListProjectContributions(ctx, "proj-x", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, contribs, 2)
	assert.Equal(t, "Alex", contribs[0].EmployeeName)
	assert.Equal(t, "Apollo", contribs[0].ProjectName)

	team, err := store.ListTeamContributions(ctx, "team-1", "2024-03-02", "2024-03-02")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "emp-2", team[0].EmployeeID)

	acts, err := store.ListTeamActivities(ctx, "team-1", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "Training", acts[0].Label)

	members, err := store.ListTeamMembers(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Alex", members[0].Name)
}
