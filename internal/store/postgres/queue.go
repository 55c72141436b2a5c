package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"bolsillo/internal/store"
)

func (r *Repository) EnqueueOperation(ctx context.Context, op store.QueuedOperation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO queued_operations (id, kind, collection, payload, enqueued_at, retry_count, last_error, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			collection = EXCLUDED.collection,
			payload = EXCLUDED.payload,
			status = 'pending'`,
		op.ID, op.Kind, op.Collection, string(op.Payload), op.EnqueuedAt, op.RetryCount, op.LastError)
	if err != nil {
		return fmt.Errorf("enqueue operation: %w", err)
	}
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
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending operations: %w", err)
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
	tag, err := r.pool.Exec(ctx,
		`UPDATE queued_operations SET status = 'inflight' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("mark operation in flight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("operation %s is not pending", id)
	}
	return nil
}

func (r *Repository) CompleteOperation(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM queued_operations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("complete operation: %w", err)
	}
	return nil
}

func (r *Repository) FailOperation(ctx context.Context, id string, cause string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE queued_operations
		SET status = 'pending', retry_count = retry_count + 1, last_error = $2
		WHERE id = $1`, id, cause)
	if err != nil {
		return fmt.Errorf("fail operation: %w", err)
	}
	return nil
}

// ResetInFlightOperations returns records stranded by a crash to pending.
// Called once at startup before the first drain.
func (r *Repository) ResetInFlightOperations(ctx context.Context) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE queued_operations SET status = 'pending' WHERE status = 'inflight'`)
	if err != nil {
		return fmt.Errorf("reset in-flight operations: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "reset stranded queue operations", "count", n)
	}
	return nil
}

func (r *Repository) ResetFailedOperations(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE queued_operations
		SET retry_count = 0, last_error = ''
		WHERE status = 'pending' AND retry_count > 0`)
	if err != nil {
		return fmt.Errorf("reset failed operations: %w", err)
	}
	return nil
}

func (r *Repository) QueueStats(ctx context.Context) (store.QueueStats, error) {
	var s store.QueueStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'inflight'),
			COUNT(*) FILTER (WHERE status = 'pending' AND retry_count > 0)
		FROM queued_operations`).Scan(&s.Pending, &s.InFlight, &s.WithErrors)
	if err != nil {
		return store.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return s, nil
}
