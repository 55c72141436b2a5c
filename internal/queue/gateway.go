package queue

import (
	"context"
	"log/slog"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

// Gateway is the write front door. Online writes go straight to the store;
// writes attempted while offline, or that fail with a recoverable error,
// are parked in the durable queue instead of being lost.
type Gateway struct {
	applier *Applier
	queue   *Queue
	online  func() bool
}

// NewGateway wires the write path. online reports current connectivity;
// pass a function that always returns true for a purely local deployment.
func NewGateway(applier *Applier, q *Queue, online func() bool) *Gateway {
	return &Gateway{applier: applier, queue: q, online: online}
}

// Execute applies op now when possible, otherwise enqueues it. The returned
// queued flag tells the caller whether the effect is deferred. Validation
// and referential failures are returned as-is: queueing cannot fix bad
// input or a missing entity.
func (g *Gateway) Execute(ctx context.Context, op store.QueuedOperation) (queued bool, err error) {
	if !g.online() {
		return true, g.queue.Enqueue(ctx, op)
	}

	err = g.applier.Apply(ctx, op)
	if err == nil {
		return false, nil
	}
	if !core.IsRecoverable(err) {
		return false, err
	}

	slog.WarnContext(ctx, "online write failed, queueing for replay",
		"operation_id", op.ID, "collection", op.Collection, "error", err)
	if enqErr := g.queue.Enqueue(ctx, op); enqErr != nil {
		return false, enqErr
	}
	return true, nil
}

// Put persists record in collection under the given id, immediately or via
// the queue.
func (g *Gateway) Put(ctx context.Context, id string, kind store.OperationKind, collection string, record any) (bool, error) {
	op, err := NewOperation(id, kind, collection, record)
	if err != nil {
		return false, err
	}
	return g.Execute(ctx, op)
}

// Delete removes the record with the given id from collection.
func (g *Gateway) Delete(ctx context.Context, id string, collection string, record any) (bool, error) {
	op, err := NewOperation(id, store.OpDelete, collection, record)
	if err != nil {
		return false, err
	}
	return g.Execute(ctx, op)
}
