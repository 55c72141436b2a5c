package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

// Applier replays a queued operation against the store. Replay is
// idempotent because Put is create-or-update keyed by the record id and
// deleting an already-deleted record is tolerated.
type Applier struct {
	store store.Store
}

func NewApplier(st store.Store) *Applier {
	return &Applier{store: st}
}

func (a *Applier) Apply(ctx context.Context, op store.QueuedOperation) error {
	switch op.Collection {
	case store.CollectionTransactions:
		var t core.Transaction
		if err := json.Unmarshal(op.Payload, &t); err != nil {
			return fmt.Errorf("decode transaction payload: %w", err)
		}
		if op.Kind == store.OpDelete {
			return tolerateMissing(a.store.DeleteTransaction(ctx, t.ID))
		}
		return a.store.PutTransaction(ctx, t)

	case store.CollectionAccounts:
		var acc core.Account
		if err := json.Unmarshal(op.Payload, &acc); err != nil {
			return fmt.Errorf("decode account payload: %w", err)
		}
		if op.Kind == store.OpDelete {
			return tolerateMissing(a.store.DeleteAccount(ctx, acc.ID))
		}
		return a.store.PutAccount(ctx, acc)

	case store.CollectionDebts:
		var d core.Debt
		if err := json.Unmarshal(op.Payload, &d); err != nil {
			return fmt.Errorf("decode debt payload: %w", err)
		}
		if op.Kind == store.OpDelete {
			return tolerateMissing(a.store.DeleteDebt(ctx, d.ID))
		}
		return a.store.PutDebt(ctx, d)
	}
	return fmt.Errorf("%w: collection %q", core.ErrUnknownOperation, op.Collection)
}

// tolerateMissing absorbs not-found on delete replay: the effect already
// holds, so a second replay of the same operation id must still succeed.
func tolerateMissing(err error) error {
	if core.IsReferential(err) {
		return nil
	}
	return err
}

// NewOperation builds a durable queue record for a mutation. The operation
// id keys both the queue record and the replayed write, which is what makes
// double replay after a crash converge instead of duplicating effects.
func NewOperation(id string, kind store.OperationKind, collection string, record any) (store.QueuedOperation, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return store.QueuedOperation{}, fmt.Errorf("encode %s payload: %w", collection, err)
	}
	return store.QueuedOperation{
		ID:         id,
		Kind:       kind,
		Collection: collection,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}, nil
}
