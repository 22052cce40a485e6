// Package carry reconstructs the assignment rows an employee should see on a day.
//
// A day's view is the explicit records written for that day plus, for every other
// project the employee has history on, a carried row copied from the most recent earlier
// record. Carrying stops once that most recent record is Completed. Only the single most
// recent prior record per project is consulted, so an older Active record never revives
// a project whose latest prior record is Completed.
package carry

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/db"
)

// Row is one entry of a resolved day
type Row struct {
	db.AssignmentRecord
	// Carried is true when no record exists for the day and the row was inferred
	Carried bool
}

// Resolve merges the explicit records of one day with rows carried from prior, the
// latest record per project strictly before that day.
//
// When statusFilter is non-empty both explicit and carried rows must match it
// (case-insensitive). The result holds at most one row per project, sorted by project
// name ignoring case with missing names last, ties broken by project id.
func Resolve(explicit, prior []db.AssignmentRecord, statusFilter db.AssignmentStatus) []Row {
	rows := make([]Row, 0, len(explicit)+len(prior))
	seen := make(map[string]bool, len(explicit))

	for _, rec := range explicit {
		if seen[rec.ProjectID] {
			continue
		}
		// The project is spoken for on this day even if the filter hides it
		seen[rec.ProjectID] = true
		if !matches(rec.Status, statusFilter) {
			continue
		}
		rows = append(rows, Row{AssignmentRecord: rec})
	}

	for _, rec := range latestPerProject(prior) {
		if seen[rec.ProjectID] {
			continue
		}
		seen[rec.ProjectID] = true
		if rec.Status.IsTerminal() || !matches(rec.Status, statusFilter) {
			continue
		}
		rows = append(rows, carried(rec))
	}

	SortRows(rows)
	return rows
}

// carried copies the lasting fields of rec and clears the day-specific ones
func carried(rec db.AssignmentRecord) Row {
	return Row{
		AssignmentRecord: db.AssignmentRecord{
			EmployeeID:   rec.EmployeeID,
			ProjectID:    rec.ProjectID,
			ProjectName:  rec.ProjectName,
			PlannedStart: rec.PlannedStart,
			PlannedEnd:   rec.PlannedEnd,
			ActualStart:  rec.ActualStart,
			ActualEnd:    rec.ActualEnd,
			Status:       rec.Status,
			Hours:        decimal.Zero,
		},
		Carried: true,
	}
}

// latestPerProject keeps the greatest-date record for each project. Stores already
// return one row per project; this guards callers that pass a wider history.
func latestPerProject(records []db.AssignmentRecord) []db.AssignmentRecord {
	latest := make(map[string]db.AssignmentRecord, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		cur, ok := latest[rec.ProjectID]
		if !ok {
			order = append(order, rec.ProjectID)
			latest[rec.ProjectID] = rec
			continue
		}
		if rec.Date > cur.Date {
			latest[rec.ProjectID] = rec
		}
	}

	out := make([]db.AssignmentRecord, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

func matches(status, filter db.AssignmentStatus) bool {
	return filter == "" || status.Matches(filter)
}

// SortRows orders rows by lower-cased project name, missing names last, then project id
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})
}

func less(a, b Row) bool {
	an, bn := a.ProjectName, b.ProjectName
	switch {
	case an == nil && bn != nil:
		return false
	case an != nil && bn == nil:
		return true
	case an != nil && bn != nil:
		al, bl := strings.ToLower(*an), strings.ToLower(*bn)
		if al != bl {
			return al < bl
		}
	}
	return a.ProjectID < b.ProjectID
}
