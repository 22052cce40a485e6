package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/db"
)

func dayKey(date string) db.AssignmentKey {
	return db.AssignmentKey{EmployeeID: "emp-1", ProjectID: "proj-x", Date: date}
}

func TestUpsertDayProject_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   db.AssignmentKey
		patch db.AssignmentPatch
		field string
	}{
		{name: "bad date", key: dayKey("01/03/2024"), field: "date"},
		{name: "missing project", key: db.AssignmentKey{EmployeeID: "emp-1", Date: "2024-03-01"}, field: "project_id"},
		{name: "reversed planned window", key: dayKey("2024-03-01"), patch: db.AssignmentPatch{
			PlannedStart: db.Some("2024-03-10"),
			PlannedEnd:   db.Some("2024-03-01"),
		}, field: "planned"},
		{name: "reversed actual window", key: dayKey("2024-03-01"), patch: db.AssignmentPatch{
			ActualStart: db.Some("2024-03-10"),
			ActualEnd:   db.Some("2024-03-09"),
		}, field: "actual"},
		{name: "bad window date", key: dayKey("2024-03-01"), patch: db.AssignmentPatch{
			PlannedStart: db.Some("soon"),
		}, field: "planned"},
		{name: "negative hours", key: dayKey("2024-03-01"), patch: db.AssignmentPatch{
			Hours: db.Some(decimal.NewFromInt(-2)),
		}, field: "hours"},
		{name: "unknown status", key: dayKey("2024-03-01"), patch: db.AssignmentPatch{
			Status: db.Some(db.AssignmentStatus("Abandoned")),
		}, field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()

			_, err := UpsertDayProject(context.Background(), store, zap.NewNop(), asEmp1, tt.key, tt.patch)

			var vErr *db.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, 0, store.writeCalls)
		})
	}
}

func TestUpsertDayProject_NormalisesStatus(t *testing.T) {
	store := newMockStore()

	rec, err := UpsertDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-01"),
		db.AssignmentPatch{Status: db.Some(db.AssignmentStatus("on hold"))})
	require.NoError(t, err)

	assert.Equal(t, db.StatusOnHold, rec.Status)
	require.Len(t, store.upserts, 1)
	st, _ := store.upserts[0].Status.Get()
	assert.Equal(t, db.StatusOnHold, st)
}

func TestUpsertDayProject_Forbidden(t *testing.T) {
	store := newMockStore()

	_, err := UpsertDayProject(context.Background(), store, zap.NewNop(), asEmp1,
		db.AssignmentKey{EmployeeID: "emp-2", ProjectID: "proj-x", Date: "2024-03-01"}, db.AssignmentPatch{})

	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestUpdateDayProject(t *testing.T) {
	store := newMockStore()
	store.assignments = []db.AssignmentRecord{
		{ID: "rec-1", EmployeeID: "emp-1", ProjectID: "proj-x", Date: "2024-03-01", Status: db.StatusActive, Comment: strPtr("keep")},
	}

	rec, err := UpdateDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-01"),
		db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(5))})
	require.NoError(t, err)
	assert.Equal(t, "5", rec.Hours.String())
	assert.Equal(t, "keep", *rec.Comment)

	_, err = UpdateDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-02"),
		db.AssignmentPatch{Hours: db.Some(decimal.NewFromInt(5))})
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = UpdateDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-01"), db.AssignmentPatch{})
	assert.True(t, db.IsValidation(err))
}

func TestDeleteDayProject_Outcomes(t *testing.T) {
	store := newMockStore()

	store.deleteResult = true
	outcome, err := DeleteDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)

	store.deleteResult = false
	outcome, err = DeleteDayProject(context.Background(), store, zap.NewNop(), asEmp1, dayKey("2024-03-02"))
	require.NoError(t, err)
	assert.Equal(t, NothingToDelete, outcome)
}

func TestResolveDay(t *testing.T) {
	store := newMockStore()
	store.assignments = []db.AssignmentRecord{
		{ID: "a", EmployeeID: "emp-1", ProjectID: "p1", Date: "2024-01-01", ProjectName: strPtr("Zeta"), Status: db.StatusActive, Hours: decimal.NewFromInt(3)},
		{ID: "b", EmployeeID: "emp-1", ProjectID: "p2", Date: "2024-01-02", ProjectName: strPtr("alpha"), Status: db.StatusCompleted},
		{ID: "c", EmployeeID: "emp-1", ProjectID: "p3", Date: "2024-01-03", ProjectName: strPtr("Mid"), Status: db.StatusPending, Hours: decimal.NewFromInt(1)},
	}

	rows, err := ResolveDay(context.Background(), store, zap.NewNop(), asEmp1, "emp-1", "2024-01-03", "")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "p3", rows[0].ProjectID)
	assert.False(t, rows[0].Carried)
	assert.Equal(t, "p1", rows[1].ProjectID)
	assert.True(t, rows[1].Carried)
	assert.True(t, rows[1].Hours.IsZero())

	rows, err = ResolveDay(context.Background(), store, zap.NewNop(), asEmp1, "emp-1", "2024-01-03", "active")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ProjectID)

	_, err = ResolveDay(context.Background(), store, zap.NewNop(), asEmp1, "emp-1", "2024-01-03", "Archived")
	assert.True(t, db.IsValidation(err))
}
