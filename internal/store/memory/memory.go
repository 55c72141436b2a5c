// Package memory provides an in-process Store used by the memory backend
// and by tests. A single mutex doubles as the transactional-write
// primitive: for a single-node store, mutual exclusion gives the same
// all-or-nothing visibility an engine transaction would.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

type queueRecord struct {
	op       store.QueuedOperation
	inFlight bool
}

type Store struct {
	mu           sync.Mutex
	accounts     map[string]core.Account
	transactions map[string]core.Transaction
	debts        map[string]core.Debt
	recurring    map[string]core.RecurringPayment
	queue        map[string]*queueRecord
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.Account),
		transactions: make(map[string]core.Transaction),
		debts:        make(map[string]core.Debt),
		recurring:    make(map[string]core.RecurringPayment),
		queue:        make(map[string]*queueRecord),
	}
}

func (s *Store) Close() error { return nil }

// Accounts

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccountLocked(id)
}

func (s *Store) getAccountLocked(id string) (core.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) PutAccount(ctx context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	delete(s.accounts, id)
	return nil
}

// Transactions

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListAccountTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.References(accountID) {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func sortTransactions(txns []core.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].OccurredAt.Equal(txns[j].OccurredAt) {
			return txns[i].OccurredAt.Before(txns[j].OccurredAt)
		}
		return txns[i].ID < txns[j].ID
	})
}

func (s *Store) PutTransaction(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putTransactionLocked(t)
}

func (s *Store) putTransactionLocked(t core.Transaction) error {
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	delete(s.transactions, id)
	return nil
}

// Debts

func (s *Store) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.Debt{}, fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	return d, nil
}

func (s *Store) ListDebts(ctx context.Context) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Debt, 0, len(s.debts))
	for _, d := range s.debts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) PutDebt(ctx context.Context, d core.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debts[d.ID] = d
	return nil
}

func (s *Store) DeleteDebt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	delete(s.debts, id)
	return nil
}

// Recurring payments

func (s *Store) GetRecurring(ctx context.Context, id string) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok {
		return core.RecurringPayment{}, fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	return r, nil
}

func (s *Store) ListRecurring(ctx context.Context) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringPayment, 0, len(s.recurring))
	for _, r := range s.recurring {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) PutRecurring(ctx context.Context, r core.RecurringPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[r.ID] = r
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	delete(s.recurring, id)
	return nil
}

// Offline queue

func (s *Store) EnqueueOperation(ctx context.Context, op store.QueuedOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[op.ID] = &queueRecord{op: op}
	return nil
}

func (s *Store) PendingOperations(ctx context.Context, limit int) ([]store.QueuedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.QueuedOperation
	for _, rec := range s.queue {
		if !rec.inFlight {
			out = append(out, rec.op)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnqueuedAt.Equal(out[j].EnqueuedAt) {
			return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkOperationInFlight(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.queue[id]
	if !ok {
		return fmt.Errorf("queued operation %s not found", id)
	}
	rec.inFlight = true
	return nil
}

func (s *Store) CompleteOperation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, id)
	return nil
}

func (s *Store) FailOperation(ctx context.Context, id string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.queue[id]
	if !ok {
		return fmt.Errorf("queued operation %s not found", id)
	}
	rec.inFlight = false
	rec.op.RetryCount++
	rec.op.LastError = cause
	return nil
}

func (s *Store) ResetInFlightOperations(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.queue {
		rec.inFlight = false
	}
	return nil
}

func (s *Store) ResetFailedOperations(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.queue {
		rec.op.RetryCount = 0
		rec.op.LastError = ""
	}
	return nil
}

func (s *Store) QueueStats(ctx context.Context) (store.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats store.QueueStats
	for _, rec := range s.queue {
		if rec.inFlight {
			stats.InFlight++
			continue
		}
		stats.Pending++
		if rec.op.RetryCount > 0 {
			stats.WithErrors++
		}
	}
	return stats, nil
}

// memTx reads and writes under the store mutex, buffering writes until the
// unit completes so a failing step leaves nothing behind.
type memTx struct {
	store  *Store
	writes []core.Transaction
}

func (t *memTx) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return t.store.getAccountLocked(id)
}

func (t *memTx) PutTransaction(ctx context.Context, txn core.Transaction) error {
	t.writes = append(t.writes, txn)
	return nil
}

// RunAtomic implements store.Atomic. The mutex is held for the whole unit,
// so concurrent readers never observe a half-applied transfer.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, txn := range tx.writes {
		if err := s.putTransactionLocked(txn); err != nil {
			return err
		}
	}
	return nil
}

var _ store.Store = (*Store)(nil)
