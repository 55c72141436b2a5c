// Package postgres implements the store ports on PostgreSQL through
// pgx/v5. It mirrors the sqlite repository; the atomic unit maps onto a
// database transaction with read-then-write isolation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &Repository{pool: pool}
	if err := r.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			initial_balance_cents BIGINT NOT NULL DEFAULT 0,
			credit_limit_cents BIGINT NOT NULL DEFAULT 0,
			statement_cutoff_day INT NOT NULL DEFAULT 0,
			payment_due_day INT NOT NULL DEFAULT 0,
			annual_interest_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			display_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			account_id TEXT NOT NULL,
			destination_id TEXT NOT NULL DEFAULT '',
			credit_payment BOOLEAN NOT NULL DEFAULT FALSE,
			installment_count INT,
			total_interest_cents BIGINT,
			per_installment_cents BIGINT,
			recurring_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_destination ON transactions(destination_id);
		CREATE TABLE IF NOT EXISTS debts (
			id TEXT PRIMARY KEY,
			person_name TEXT NOT NULL,
			direction TEXT NOT NULL,
			original_cents BIGINT NOT NULL,
			remaining_cents BIGINT NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			settled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS recurring_payments (
			id TEXT PRIMARY KEY,
			frequency TEXT NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ,
			kind TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			account_id TEXT NOT NULL,
			last_run TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS queued_operations (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			collection TEXT NOT NULL,
			payload TEXT NOT NULL,
			enqueued_at TIMESTAMPTZ NOT NULL,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending'
		);
		CREATE INDEX IF NOT EXISTS idx_queued_operations_status ON queued_operations(status, enqueued_at);`)
	return err
}

// row abstracts pgx.Row and pgx.Rows for the scan helpers.
type row interface {
	Scan(dest ...any) error
}

// Accounts

const accountColumns = `id, name, kind, initial_balance_cents, credit_limit_cents,
	statement_cutoff_day, payment_due_day, annual_interest_rate, display_order, created_at`

func scanAccount(rw row) (core.Account, error) {
	var a core.Account
	err := rw.Scan(&a.ID, &a.Name, &a.Kind, &a.InitialBalance.Cents, &a.CreditLimit.Cents,
		&a.StatementCutoffDay, &a.PaymentDueDay, &a.AnnualInterestRate, &a.DisplayOrder, &a.CreatedAt)
	return a, err
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) PutAccount(ctx context.Context, a core.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			initial_balance_cents = EXCLUDED.initial_balance_cents,
			credit_limit_cents = EXCLUDED.credit_limit_cents,
			statement_cutoff_day = EXCLUDED.statement_cutoff_day,
			payment_due_day = EXCLUDED.payment_due_day,
			annual_interest_rate = EXCLUDED.annual_interest_rate,
			display_order = EXCLUDED.display_order`,
		a.ID, a.Name, a.Kind, a.InitialBalance.Cents, a.CreditLimit.Cents,
		a.StatementCutoffDay, a.PaymentDueDay, a.AnnualInterestRate, a.DisplayOrder, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	return nil
}

// Transactions

const transactionColumns = `id, kind, amount_cents, category, description, occurred_at,
	settled, account_id, destination_id, credit_payment,
	installment_count, total_interest_cents, per_installment_cents, recurring_id, created_at`

func scanTransaction(rw row) (core.Transaction, error) {
	var t core.Transaction
	var count *int
	var interest, per *int64
	err := rw.Scan(&t.ID, &t.Kind, &t.Amount.Cents, &t.Category, &t.Description, &t.OccurredAt,
		&t.Settled, &t.AccountID, &t.DestinationID, &t.CreditPayment,
		&count, &interest, &per, &t.RecurringID, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if count != nil && *count != 0 {
		plan := &core.InstallmentPlan{Count: *count}
		if interest != nil {
			plan.TotalInterest = core.NewMoney(*interest)
		}
		if per != nil {
			plan.PerInstallment = core.NewMoney(*per)
		}
		t.Installments = plan
	}
	return t, nil
}

const putTransactionSQL = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO UPDATE SET
		kind = EXCLUDED.kind,
		amount_cents = EXCLUDED.amount_cents,
		category = EXCLUDED.category,
		description = EXCLUDED.description,
		occurred_at = EXCLUDED.occurred_at,
		settled = EXCLUDED.settled,
		account_id = EXCLUDED.account_id,
		destination_id = EXCLUDED.destination_id,
		credit_payment = EXCLUDED.credit_payment,
		installment_count = EXCLUDED.installment_count,
		total_interest_cents = EXCLUDED.total_interest_cents,
		per_installment_cents = EXCLUDED.per_installment_cents,
		recurring_id = EXCLUDED.recurring_id`

func putTransactionArgs(t core.Transaction) []any {
	var count *int
	var interest, per *int64
	if t.Installments != nil {
		count = &t.Installments.Count
		interest = &t.Installments.TotalInterest.Cents
		per = &t.Installments.PerInstallment.Cents
	}
	return []any{
		t.ID, t.Kind, t.Amount.Cents, t.Category, t.Description, t.OccurredAt,
		t.Settled, t.AccountID, t.DestinationID, t.CreditPayment,
		count, interest, per, t.RecurringID, t.CreatedAt,
	}
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY occurred_at, id`)
}

func (r *Repository) ListAccountTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 OR (kind = 'transfer' AND destination_id = $1)
		ORDER BY occurred_at, id`, accountID)
}

func (r *Repository) PutTransaction(ctx context.Context, t core.Transaction) error {
	if _, err := r.pool.Exec(ctx, putTransactionSQL, putTransactionArgs(t)...); err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	return nil
}

// Debts

const debtColumns = `id, person_name, direction, original_cents, remaining_cents, settled, settled_at, created_at`

func scanDebt(rw row) (core.Debt, error) {
	var d core.Debt
	err := rw.Scan(&d.ID, &d.PersonName, &d.Direction, &d.Original.Cents, &d.Remaining.Cents,
		&d.Settled, &d.SettledAt, &d.CreatedAt)
	return d, err
}

func (r *Repository) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	d, err := scanDebt(r.pool.QueryRow(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

func (r *Repository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) PutDebt(ctx context.Context, d core.Debt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO debts (`+debtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			person_name = EXCLUDED.person_name,
			direction = EXCLUDED.direction,
			original_cents = EXCLUDED.original_cents,
			remaining_cents = EXCLUDED.remaining_cents,
			settled = EXCLUDED.settled,
			settled_at = EXCLUDED.settled_at`,
		d.ID, d.PersonName, d.Direction, d.Original.Cents, d.Remaining.Cents,
		d.Settled, d.SettledAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("put debt: %w", err)
	}
	return nil
}

func (r *Repository) DeleteDebt(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM debts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	return nil
}

// Recurring payments

const recurringColumns = `id, frequency, start_date, end_date, kind, amount_cents,
	category, description, account_id, last_run, created_at`

func scanRecurring(rw row) (core.RecurringPayment, error) {
	var rec core.RecurringPayment
	var endDate, lastRun *time.Time
	err := rw.Scan(&rec.ID, &rec.Frequency, &rec.StartDate, &endDate, &rec.Kind, &rec.Amount.Cents,
		&rec.Category, &rec.Description, &rec.AccountID, &lastRun, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	if endDate != nil {
		rec.EndDate = *endDate
	}
	if lastRun != nil {
		rec.LastRun = *lastRun
	}
	return rec, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *Repository) GetRecurring(ctx context.Context, id string) (core.RecurringPayment, error) {
	rec, err := scanRecurring(r.pool.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.RecurringPayment{}, fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("get recurring payment: %w", err)
	}
	return rec, nil
}

func (r *Repository) ListRecurring(ctx context.Context) ([]core.RecurringPayment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_payments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringPayment
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring payment: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) PutRecurring(ctx context.Context, rec core.RecurringPayment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO recurring_payments (`+recurringColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			frequency = EXCLUDED.frequency,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			kind = EXCLUDED.kind,
			amount_cents = EXCLUDED.amount_cents,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			account_id = EXCLUDED.account_id,
			last_run = EXCLUDED.last_run`,
		rec.ID, rec.Frequency, rec.StartDate, optionalTime(rec.EndDate), rec.Kind, rec.Amount.Cents,
		rec.Category, rec.Description, rec.AccountID, optionalTime(rec.LastRun), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("put recurring payment: %w", err)
	}
	return nil
}

func (r *Repository) DeleteRecurring(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recurring_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	return nil
}

var _ store.Store = (*Repository)(nil)
