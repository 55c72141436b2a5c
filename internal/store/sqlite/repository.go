// Package sqlite implements the store ports on an embedded SQLite
// database. The same database backs the document collections and the
// offline queue, so queued mutations survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bolsillo/internal/core"
	"bolsillo/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Accounts

const accountColumns = `id, name, kind, initial_balance_cents, credit_limit_cents,
	statement_cutoff_day, payment_due_day, annual_interest_rate, display_order, created_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.InitialBalance.Cents, &a.CreditLimit.Cents,
		&a.StatementCutoffDay, &a.PaymentDueDay, &a.AnnualInterestRate, &a.DisplayOrder, &a.CreatedAt)
	return a, err
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
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

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			initial_balance_cents = excluded.initial_balance_cents,
			credit_limit_cents = excluded.credit_limit_cents,
			statement_cutoff_day = excluded.statement_cutoff_day,
			payment_due_day = excluded.payment_due_day,
			annual_interest_rate = excluded.annual_interest_rate,
			display_order = excluded.display_order`,
		a.ID, a.Name, a.Kind, a.InitialBalance.Cents, a.CreditLimit.Cents,
		a.StatementCutoffDay, a.PaymentDueDay, a.AnnualInterestRate, a.DisplayOrder, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	return nil
}

// Transactions

const transactionColumns = `id, kind, amount_cents, category, description, occurred_at,
	settled, account_id, destination_id, credit_payment,
	installment_count, total_interest_cents, per_installment_cents, recurring_id, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var count, interest, per sql.NullInt64
	err := row.Scan(&t.ID, &t.Kind, &t.Amount.Cents, &t.Category, &t.Description, &t.OccurredAt,
		&t.Settled, &t.AccountID, &t.DestinationID, &t.CreditPayment,
		&count, &interest, &per, &t.RecurringID, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if count.Valid && count.Int64 != 0 {
		t.Installments = &core.InstallmentPlan{
			Count:          int(count.Int64),
			TotalInterest:  core.NewMoney(interest.Int64),
			PerInstallment: core.NewMoney(per.Int64),
		}
	}
	return t, nil
}

func installmentArgs(t core.Transaction) (count, interest, per sql.NullInt64) {
	if t.Installments == nil {
		return
	}
	count = sql.NullInt64{Int64: int64(t.Installments.Count), Valid: true}
	interest = sql.NullInt64{Int64: t.Installments.TotalInterest.Cents, Valid: true}
	per = sql.NullInt64{Int64: t.Installments.PerInstallment.Cents, Valid: true}
	return
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
		WHERE account_id = ? OR (kind = 'transfer' AND destination_id = ?)
		ORDER BY occurred_at, id`,
		accountID, accountID)
}

const putTransactionSQL = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		amount_cents = excluded.amount_cents,
		category = excluded.category,
		description = excluded.description,
		occurred_at = excluded.occurred_at,
		settled = excluded.settled,
		account_id = excluded.account_id,
		destination_id = excluded.destination_id,
		credit_payment = excluded.credit_payment,
		installment_count = excluded.installment_count,
		total_interest_cents = excluded.total_interest_cents,
		per_installment_cents = excluded.per_installment_cents,
		recurring_id = excluded.recurring_id`

func putTransactionArgs(t core.Transaction) []any {
	count, interest, per := installmentArgs(t)
	return []any{
		t.ID, t.Kind, t.Amount.Cents, t.Category, t.Description, t.OccurredAt,
		t.Settled, t.AccountID, t.DestinationID, t.CreditPayment,
		count, interest, per, t.RecurringID, t.CreatedAt,
	}
}

func (r *Repository) PutTransaction(ctx context.Context, t core.Transaction) error {
	if _, err := r.db.ExecContext(ctx, putTransactionSQL, putTransactionArgs(t)...); err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	return nil
}

// Debts

const debtColumns = `id, person_name, direction, original_cents, remaining_cents, settled, settled_at, created_at`

func scanDebt(row interface{ Scan(...any) error }) (core.Debt, error) {
	var d core.Debt
	var settledAt sql.NullTime
	err := row.Scan(&d.ID, &d.PersonName, &d.Direction, &d.Original.Cents, &d.Remaining.Cents,
		&d.Settled, &settledAt, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	if settledAt.Valid {
		t := settledAt.Time
		d.SettledAt = &t
	}
	return d, nil
}

func (r *Repository) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

func (r *Repository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY id`)
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
	var settledAt sql.NullTime
	if d.SettledAt != nil {
		settledAt = sql.NullTime{Time: *d.SettledAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debts (`+debtColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person_name = excluded.person_name,
			direction = excluded.direction,
			original_cents = excluded.original_cents,
			remaining_cents = excluded.remaining_cents,
			settled = excluded.settled,
			settled_at = excluded.settled_at`,
		d.ID, d.PersonName, d.Direction, d.Original.Cents, d.Remaining.Cents,
		d.Settled, settledAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("put debt: %w", err)
	}
	return nil
}

func (r *Repository) DeleteDebt(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrDebtNotFound, id)
	}
	return nil
}

// Recurring payments

const recurringColumns = `id, frequency, start_date, end_date, kind, amount_cents,
	category, description, account_id, last_run, created_at`

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringPayment, error) {
	var rec core.RecurringPayment
	var endDate, lastRun sql.NullTime
	err := row.Scan(&rec.ID, &rec.Frequency, &rec.StartDate, &endDate, &rec.Kind, &rec.Amount.Cents,
		&rec.Category, &rec.Description, &rec.AccountID, &lastRun, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	if endDate.Valid {
		rec.EndDate = endDate.Time
	}
	if lastRun.Valid {
		rec.LastRun = lastRun.Time
	}
	return rec, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (r *Repository) GetRecurring(ctx context.Context, id string) (core.RecurringPayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_payments WHERE id = ?`, id)
	rec, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringPayment{}, fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("get recurring payment: %w", err)
	}
	return rec, nil
}

func (r *Repository) ListRecurring(ctx context.Context) ([]core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_payments (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			kind = excluded.kind,
			amount_cents = excluded.amount_cents,
			category = excluded.category,
			description = excluded.description,
			account_id = excluded.account_id,
			last_run = excluded.last_run`,
		rec.ID, rec.Frequency, rec.StartDate, nullTime(rec.EndDate), rec.Kind, rec.Amount.Cents,
		rec.Category, rec.Description, rec.AccountID, nullTime(rec.LastRun), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("put recurring payment: %w", err)
	}
	return nil
}

func (r *Repository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrRecurringNotFound, id)
	}
	return nil
}

var _ store.Store = (*Repository)(nil)
