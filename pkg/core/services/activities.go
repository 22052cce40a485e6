package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/worklog/pkg/core/access"
	"github.com/jakechorley/worklog/pkg/db"
)

// ActivityLedgerStore defines the database operations needed by the activity ledger
type ActivityLedgerStore interface {
	access.DirectoryStore
	GetActivities(ctx context.Context, employeeID, date string) ([]db.ActivityRecord, error)
	ReplaceActivities(ctx context.Context, employeeID, date string, items []db.ActivityInput) ([]db.ActivityRecord, error)
	UpdateActivity(ctx context.Context, employeeID, date, recordID string, patch db.ActivityPatch) (*db.ActivityRecord, error)
	DeleteActivity(ctx context.Context, employeeID, date, recordID string) error
}

// ActivityItem is one raw entry of a full-day activity batch, as read from flags or a file
type ActivityItem struct {
	Label   string  `yaml:"label"`
	Hours   string  `yaml:"hours"`
	Comment *string `yaml:"comment,omitempty"`
}

// GetDayActivities returns an employee's activity records for a day, ordered by label
func GetDayActivities(ctx context.Context, store ActivityLedgerStore, logger *zap.Logger, p access.Principal, employeeID, date string) ([]db.ActivityRecord, error) {
	logger.Debug("Getting day activities", zap.String("employee_id", employeeID), zap.String("date", date))

	if err := validateDay("date", date); err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	records, err := store.GetActivities(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}
	return records, nil
}

// ReplaceDayActivities replaces the employee's whole activity ledger for a day.
// Every item is validated first; one bad item rejects the batch and nothing is written.
func ReplaceDayActivities(ctx context.Context, store ActivityLedgerStore, logger *zap.Logger, p access.Principal, employeeID, date string, items []ActivityItem) ([]db.ActivityRecord, error) {
	logger.Debug("Replacing day activities",
		zap.String("employee_id", employeeID),
		zap.String("date", date),
		zap.Int("items", len(items)))

	if err := validateDay("date", date); err != nil {
		return nil, err
	}
	inputs, err := validateActivityBatch(items)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}

	records, err := store.ReplaceActivities(ctx, employeeID, date, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to replace activities: %w", err)
	}

	logger.Info("Replaced day activities",
		zap.String("employee_id", employeeID),
		zap.String("date", date),
		zap.Int("count", len(records)))

	return records, nil
}

func validateActivityBatch(items []ActivityItem) ([]db.ActivityInput, error) {
	inputs := make([]db.ActivityInput, 0, len(items))
	seen := make(map[string]int, len(items))

	for i, item := range items {
		field := fmt.Sprintf("activities[%d]", i)

		label := strings.TrimSpace(item.Label)
		if label == "" {
			return nil, db.NewValidationError(field+".label", "is required")
		}
		key := strings.ToLower(label)
		if first, dup := seen[key]; dup {
			return nil, db.NewValidationError(field+".label", "duplicate activity label %q (also at activities[%d])", label, first)
		}
		seen[key] = i

		hours, err := ParseHours(field+".hours", item.Hours)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs, db.ActivityInput{Label: label, Hours: hours, Comment: item.Comment})
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].Label < inputs[j].Label
	})
	return inputs, nil
}

// UpdateActivity patches one activity record by presence
func UpdateActivity(ctx context.Context, store ActivityLedgerStore, logger *zap.Logger, p access.Principal, employeeID, date, recordID string, patch db.ActivityPatch) (*db.ActivityRecord, error) {
	logger.Debug("Updating activity",
		zap.String("employee_id", employeeID),
		zap.String("date", date),
		zap.String("record_id", recordID))

	if err := validateDay("date", date); err != nil {
		return nil, err
	}
	if err := requireID("record_id", recordID); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, db.NewValidationError("patch", "at least one field must be supplied")
	}
	if label, ok := patch.Label.Get(); ok {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, db.NewValidationError("label", "must not be empty")
		}
		patch.Label = db.Some(label)
	}
	if hours, ok := patch.Hours.Get(); ok {
		if err := validateHours("hours", hours); err != nil {
			return nil, err
		}
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return nil, err
	}
	if label, ok := patch.Label.Get(); ok {
		if err := checkLabelFree(ctx, store, employeeID, date, recordID, label); err != nil {
			return nil, err
		}
	}

	record, err := store.UpdateActivity(ctx, employeeID, date, recordID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	logger.Info("Updated activity", zap.String("employee_id", employeeID), zap.String("record_id", recordID))
	return record, nil
}

// checkLabelFree rejects a label that another record of the day already uses, ignoring case
func checkLabelFree(ctx context.Context, store ActivityLedgerStore, employeeID, date, recordID, label string) error {
	records, err := store.GetActivities(ctx, employeeID, date)
	if err != nil {
		return fmt.Errorf("failed to get activities: %w", err)
	}
	for _, r := range records {
		if r.ID != recordID && strings.EqualFold(r.Label, label) {
			return db.NewValidationError("label", "duplicate activity label %q (already used by %q)", label, r.Label)
		}
	}
	return nil
}

// DeleteActivity removes one activity record
func DeleteActivity(ctx context.Context, store ActivityLedgerStore, logger *zap.Logger, p access.Principal, employeeID, date, recordID string) error {
	logger.Debug("Deleting activity",
		zap.String("employee_id", employeeID),
		zap.String("date", date),
		zap.String("record_id", recordID))

	if err := validateDay("date", date); err != nil {
		return err
	}
	if err := requireID("record_id", recordID); err != nil {
		return err
	}
	if err := access.CanActOnEmployee(ctx, store, p, employeeID); err != nil {
		return err
	}

	if err := store.DeleteActivity(ctx, employeeID, date, recordID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	logger.Info("Deleted activity", zap.String("employee_id", employeeID), zap.String("record_id", recordID))
	return nil
}
