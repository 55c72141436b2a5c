// Package store defines the persistence ports of the ledger core: a
// document store per collection, a transactional-write capability for
// multi-document atomic units, and durable offline-queue records.
//
// All Put operations are create-or-update keyed by the record id, which is
// what makes offline-queue replay idempotent: replaying the same operation
// id twice converges on the same end state.
package store

import (
	"context"
	"time"

	"bolsillo/internal/core"
)

// Collection names used by queued operations.
const (
	CollectionTransactions = "transactions"
	CollectionAccounts     = "accounts"
	CollectionDebts        = "debts"
)

// OperationKind of a queued mutation.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

func (k OperationKind) IsValid() bool {
	switch k {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// QueuedOperation is a pending mutation awaiting replay. The id is assigned
// by the caller and keys both the queue record and the replayed write.
type QueuedOperation struct {
	ID         string
	Kind       OperationKind
	Collection string
	Payload    []byte // JSON-encoded record
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}

// QueueStats summarizes durable queue state.
type QueueStats struct {
	Pending    int
	InFlight   int
	WithErrors int // pending records that have failed at least once
}

type AccountStore interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	PutAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id string) error
}

type TransactionStore interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListAccountTransactions(ctx context.Context, accountID string) ([]core.Transaction, error)
	PutTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type DebtStore interface {
	GetDebt(ctx context.Context, id string) (core.Debt, error)
	ListDebts(ctx context.Context) ([]core.Debt, error)
	PutDebt(ctx context.Context, d core.Debt) error
	DeleteDebt(ctx context.Context, id string) error
}

type RecurringStore interface {
	GetRecurring(ctx context.Context, id string) (core.RecurringPayment, error)
	ListRecurring(ctx context.Context) ([]core.RecurringPayment, error)
	PutRecurring(ctx context.Context, r core.RecurringPayment) error
	DeleteRecurring(ctx context.Context, id string) error
}

// QueueStore persists QueuedOperation records so replay survives restarts.
type QueueStore interface {
	EnqueueOperation(ctx context.Context, op QueuedOperation) error
	PendingOperations(ctx context.Context, limit int) ([]QueuedOperation, error)
	MarkOperationInFlight(ctx context.Context, id string) error
	CompleteOperation(ctx context.Context, id string) error
	FailOperation(ctx context.Context, id string, cause string) error
	ResetInFlightOperations(ctx context.Context) error
	ResetFailedOperations(ctx context.Context) error
	QueueStats(ctx context.Context) (QueueStats, error)
}

// Tx is the read-then-write surface available inside an atomic unit.
// Existence checks performed through it see the same snapshot the writes
// commit against, which closes the check-then-act race.
type Tx interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	PutTransaction(ctx context.Context, t core.Transaction) error
}

// Atomic runs fn so that all its writes commit together or not at all.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(tx Tx) error) error
}

// Store is the full persistence capability consumed by the application.
type Store interface {
	AccountStore
	TransactionStore
	DebtStore
	RecurringStore
	QueueStore
	Atomic
	Close() error
}
