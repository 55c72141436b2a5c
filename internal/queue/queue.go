// Package queue implements the durable offline mutation queue. Mutations
// attempted while offline, or that fail with a recoverable error, are
// persisted as QueuedOperation records and replayed when connectivity
// returns. Replay outcomes are independent per operation and failures are
// never silently dropped.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

const (
	// DefaultMaxFailures is how many consecutive drain failures park an
	// operation for manual retry.
	DefaultMaxFailures = 3
	// DefaultDrainConcurrency bounds parallel replays during a drain.
	DefaultDrainConcurrency = 4
)

type Queue struct {
	store       store.QueueStore
	apply       func(ctx context.Context, op store.QueuedOperation) error
	retry       RetryConfig
	maxFailures int
	concurrency int
}

type Option func(*Queue)

func WithRetry(cfg RetryConfig) Option {
	return func(q *Queue) { q.retry = cfg }
}

func WithMaxFailures(n int) Option {
	return func(q *Queue) { q.maxFailures = n }
}

func WithDrainConcurrency(n int) Option {
	return func(q *Queue) { q.concurrency = n }
}

func New(st store.QueueStore, applier *Applier, opts ...Option) *Queue {
	q := &Queue{
		store:       st,
		apply:       applier.Apply,
		retry:       DefaultRetryConfig(),
		maxFailures: DefaultMaxFailures,
		concurrency: DefaultDrainConcurrency,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue persists op for later replay. The caller assigns the id; it must
// be stable across retries of the same logical mutation.
func (q *Queue) Enqueue(ctx context.Context, op store.QueuedOperation) error {
	if op.ID == "" {
		return fmt.Errorf("%w: queued operation needs an id", core.ErrUnknownOperation)
	}
	if !op.Kind.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownOperation, op.Kind)
	}
	if err := q.store.EnqueueOperation(ctx, op); err != nil {
		return err
	}
	slog.InfoContext(ctx, "queued operation for replay",
		"operation_id", op.ID, "kind", op.Kind, "collection", op.Collection)
	return nil
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Applied int
	Failed  int
	Parked  int // operations over the failure limit, awaiting manual retry
	Skipped int // claimed by a concurrent drain, not attempted here
}

type drainOutcome int

const (
	outcomeApplied drainOutcome = iota
	outcomeFailed
	outcomeSkipped
)

// Drain replays all pending operations. Operations run concurrently with
// independent outcomes: one failure does not block the others. Successes
// are removed; failures stay pending with an incremented retry count, and
// operations past the failure limit are skipped until RetryFailed.
func (q *Queue) Drain(ctx context.Context) (DrainResult, error) {
	ops, err := q.store.PendingOperations(ctx, 0)
	if err != nil {
		return DrainResult{}, fmt.Errorf("load pending operations: %w", err)
	}

	var res DrainResult
	results := make(chan drainOutcome, len(ops))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)
	for _, op := range ops {
		if op.RetryCount >= q.maxFailures {
			res.Parked++
			continue
		}
		g.Go(func() error {
			results <- q.drainOne(gctx, op)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	close(results)

	for outcome := range results {
		switch outcome {
		case outcomeApplied:
			res.Applied++
		case outcomeFailed:
			res.Failed++
		case outcomeSkipped:
			res.Skipped++
		}
	}
	slog.InfoContext(ctx, "queue drain finished",
		"applied", res.Applied, "failed", res.Failed,
		"parked", res.Parked, "skipped", res.Skipped)
	return res, nil
}

func (q *Queue) drainOne(ctx context.Context, op store.QueuedOperation) drainOutcome {
	if err := q.store.MarkOperationInFlight(ctx, op.ID); err != nil {
		// Claimed by a concurrent drain; not a failure of this operation.
		slog.DebugContext(ctx, "skipping contended operation", "operation_id", op.ID)
		return outcomeSkipped
	}

	err := q.retry.Do(ctx, func(ctx context.Context) error {
		return q.apply(ctx, op)
	})
	if err != nil {
		slog.WarnContext(ctx, "queued operation failed",
			"operation_id", op.ID, "collection", op.Collection,
			"retry_count", op.RetryCount+1, "error", err)
		if failErr := q.store.FailOperation(ctx, op.ID, err.Error()); failErr != nil {
			slog.ErrorContext(ctx, "could not record operation failure",
				"operation_id", op.ID, "error", failErr)
		}
		return outcomeFailed
	}

	if err := q.store.CompleteOperation(ctx, op.ID); err != nil {
		// The write landed; the record will be replayed once more and
		// converge through idempotent replay.
		slog.ErrorContext(ctx, "could not remove completed operation",
			"operation_id", op.ID, "error", err)
		return outcomeFailed
	}
	return outcomeApplied
}

// RetryFailed clears failure counters so parked operations rejoin the next
// drain. Manual escape hatch; nothing is ever auto-dropped.
func (q *Queue) RetryFailed(ctx context.Context) error {
	return q.store.ResetFailedOperations(ctx)
}

// Recover returns operations stranded in-flight by a crash to pending.
// Call once at startup before the first drain.
func (q *Queue) Recover(ctx context.Context) error {
	return q.store.ResetInFlightOperations(ctx)
}

func (q *Queue) Stats(ctx context.Context) (store.QueueStats, error) {
	return q.store.QueueStats(ctx)
}
