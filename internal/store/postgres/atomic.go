package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

// pgTx exposes the atomic-unit surface over a database transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(t.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (t *pgTx) PutTransaction(ctx context.Context, txn core.Transaction) error {
	if _, err := t.tx.Exec(ctx, putTransactionSQL, putTransactionArgs(txn)...); err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

func (r *Repository) RunAtomic(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
