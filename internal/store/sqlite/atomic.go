package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (t *sqlTx) PutTransaction(ctx context.Context, txn core.Transaction) error {
	if _, err := t.tx.ExecContext(ctx, putTransactionSQL, putTransactionArgs(txn)...); err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

// RunAtomic implements store.Atomic on a database transaction. Existence
// checks and writes inside fn see one consistent snapshot and commit
// together or roll back together.
func (r *Repository) RunAtomic(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin atomic unit: %w", err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit atomic unit: %w", err)
	}
	return nil
}
