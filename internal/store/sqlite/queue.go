package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"bolsillo/internal/store"
)

// Offline queue persistence. Records are keyed by the caller-assigned
// operation id; enqueueing the same id again overwrites rather than
// duplicates, matching the replay idempotency contract.

func (r *Repository) EnqueueOperation(ctx context.Context, op store.QueuedOperation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO queued_operations (id, kind, collection, payload, enqueued_at, retry_count, last_error, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			collection = excluded.collection,
			payload = excluded.payload,
			status = 'pending'`,
		op.ID, op.Kind, op.Collection, string(op.Payload), op.EnqueuedAt, op.RetryCount, op.LastError)
	if err != nil {
		return fmt.Errorf("enqueue operation: %w", err)
	}

	slog.DebugContext(ctx, "Operation enqueued",
		"id", op.ID,
		"kind", op.Kind,
		"collection", op.Collection)
	return nil
}

func (r *Repository) PendingOperations(ctx context.Context, limit int) ([]store.QueuedOperation, error) {
	query := `
		SELECT id, kind, collection, payload, enqueued_at, retry_count, last_error
		FROM queued_operations
		WHERE status = 'pending'
		ORDER BY enqueued_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending operations: %w", err)
	}
	defer rows.Close()

	var out []store.QueuedOperation
	for rows.Next() {
		var op store.QueuedOperation
		var payload string
		if err := rows.Scan(&op.ID, &op.Kind, &op.Collection, &payload,
			&op.EnqueuedAt, &op.RetryCount, &op.LastError); err != nil {
			return nil, fmt.Errorf("scan queued operation: %w", err)
		}
		op.Payload = []byte(payload)
		out = append(out, op)
	}
	return out, rows.Err()
}

func (r *Repository) MarkOperationInFlight(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE queued_operations SET status = 'inflight' WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("mark operation in flight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("queued operation %s not found or not pending", id)
	}
	return nil
}

func (r *Repository) CompleteOperation(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM queued_operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("complete operation: %w", err)
	}
	return nil
}

func (r *Repository) FailOperation(ctx context.Context, id string, cause string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE queued_operations
		SET status = 'pending', retry_count = retry_count + 1, last_error = ?
		WHERE id = ?`, cause, id); err != nil {
		return fmt.Errorf("fail operation: %w", err)
	}
	return nil
}

// ResetInFlightOperations returns in-flight records to pending. Called at
// startup so operations stranded by a crash mid-drain are retried.
func (r *Repository) ResetInFlightOperations(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE queued_operations SET status = 'pending' WHERE status = 'inflight'`)
	if err != nil {
		return fmt.Errorf("reset in-flight operations: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.WarnContext(ctx, "Reset stale in-flight operations", "count", n)
	}
	return nil
}

func (r *Repository) ResetFailedOperations(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE queued_operations SET retry_count = 0, last_error = ''`); err != nil {
		return fmt.Errorf("reset failed operations: %w", err)
	}
	return nil
}

func (r *Repository) QueueStats(ctx context.Context) (store.QueueStats, error) {
	var stats store.QueueStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'inflight' THEN 1 END),
			COUNT(CASE WHEN status = 'pending' AND retry_count > 0 THEN 1 END)
		FROM queued_operations`).
		Scan(&stats.Pending, &stats.InFlight, &stats.WithErrors)
	if err != nil {
		return stats, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}
