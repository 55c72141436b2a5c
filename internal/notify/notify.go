// Package notify delivers fire-and-forget user notifications: validation
// failures, duplicate-transaction advisories, queue drain outcomes. The
// core never blocks on a sink and a sink failure never fails the
// originating operation.
package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a notification for the consuming surface.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindDuplicate       Kind = "duplicate"
	KindQueueDrained    Kind = "queue_drained"
	KindQueueFailure    Kind = "queue_failure"
	KindRecurringPosted Kind = "recurring_posted"
)

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(ctx context.Context, kind Kind, message string)
}

// LogSink writes notifications to the structured log.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, kind Kind, message string) {
	slog.InfoContext(ctx, "notification", "kind", kind, "message", message)
}

// Multi fans a notification out to every sink.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, kind Kind, message string) {
	for _, s := range m {
		s.Notify(ctx, kind, message)
	}
}
