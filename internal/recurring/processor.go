package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/core"
	"bolsillo/internal/notify"
	"bolsillo/internal/store"
)

// Processor walks the recurring-payment templates and posts a transaction
// for each one that is due. One template's failure does not stop the rest.
type Processor struct {
	store store.Store
	sink  notify.Sink
	now   func() time.Time
	newID func() string
}

func NewProcessor(st store.Store, sink notify.Sink) *Processor {
	return &Processor{
		store: st,
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// RunOnce materializes every due template and returns how many posted.
func (p *Processor) RunOnce(ctx context.Context) (int, error) {
	templates, err := p.store.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring payments: %w", err)
	}

	posted := 0
	for _, tmpl := range templates {
		due, err := IsDue(tmpl, p.now())
		if err != nil {
			slog.ErrorContext(ctx, "recurring payment has unknown frequency",
				"recurring_id", tmpl.ID, "frequency", tmpl.Frequency)
			continue
		}
		if !due {
			continue
		}
		if err := p.post(ctx, tmpl); err != nil {
			slog.ErrorContext(ctx, "could not post recurring payment",
				"recurring_id", tmpl.ID, "error", err)
			continue
		}
		posted++
	}
	if posted > 0 {
		slog.InfoContext(ctx, "posted recurring payments", "count", posted)
	}
	return posted, nil
}

// Materialize builds the transaction a template produces, without storing
// it. Exposed for the manual run endpoint.
func (p *Processor) Materialize(tmpl core.RecurringPayment) core.Transaction {
	now := p.now()
	return core.Transaction{
		ID:          p.newID(),
		Kind:        tmpl.Kind,
		Amount:      tmpl.Amount,
		Category:    tmpl.Category,
		Description: tmpl.Description,
		OccurredAt:  now,
		Settled:     true,
		AccountID:   tmpl.AccountID,
		RecurringID: tmpl.ID,
		CreatedAt:   now,
	}
}

func (p *Processor) post(ctx context.Context, tmpl core.RecurringPayment) error {
	t := p.Materialize(tmpl)
	if err := t.Validate(); err != nil {
		return err
	}
	if err := p.store.PutTransaction(ctx, t); err != nil {
		return err
	}

	tmpl.LastRun = t.OccurredAt
	if err := p.store.PutRecurring(ctx, tmpl); err != nil {
		// The transaction landed; without the new LastRun the template
		// would double-post, so surface this loudly.
		return fmt.Errorf("update last run: %w", err)
	}

	if p.sink != nil {
		p.sink.Notify(ctx, notify.KindRecurringPosted,
			fmt.Sprintf("posted %s %s for %s", tmpl.Frequency, tmpl.Category, tmpl.Description))
	}
	return nil
}

// Run polls until ctx is cancelled.
func (p *Processor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "recurring pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
