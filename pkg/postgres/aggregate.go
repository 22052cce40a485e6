package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// recomputeProjectActualStart sets project.actual_start_date to the earliest actual
// start across the project's remaining assignment rows, or NULL when there are none.
// It must run inside the transaction of the assignment write that triggered it.
//
// The project row is locked first and the MIN is read by a separate statement, so under
// READ COMMITTED the recompute sees every assignment write committed by a transaction
// that held the lock before us.
//
// This is a full re-scan of the project's rows on every write.
func recomputeProjectActualStart(ctx context.Context, tx pgx.Tx, projectID string) error {
	if _, err := tx.Exec(ctx, `SELECT 1 FROM project WHERE id = $1 FOR UPDATE`, projectID); err != nil {
		return fmt.Errorf("failed to lock project: %w", mapError("lock project", err))
	}

	_, err := tx.Exec(ctx, `
		UPDATE project
		SET actual_start_date = (
			SELECT MIN(actual_start_date) FROM assignment WHERE project_id = $1
		)
		WHERE id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to recompute project actual start: %w", mapError("recompute project actual start", err))
	}
	return nil
}
