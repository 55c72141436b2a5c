// Package backend builds the configured persistence backend and optional
// notification sink from application config.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bolsillo/internal/config"
	"bolsillo/internal/notify"
	"bolsillo/internal/store"
	"bolsillo/internal/store/memory"
	"bolsillo/internal/store/postgres"
	"bolsillo/internal/store/sqlite"
)

// Type selects the persistence backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

// Result bundles the built store with the notification sink and cleanup.
type Result struct {
	Store   store.Store
	Sink    notify.Sink
	Cleanup func() error
}

// Build creates the store named by cfg.DataBackend and, when an AMQP URL is
// configured, a broker-backed notification sink. A broker that is down at
// startup downgrades to log-only notifications instead of failing boot.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	st, err := buildStore(ctx, backendType, cfg, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{Store: st, Sink: notify.LogSink{}}

	if cfg.AMQPURL != "" {
		amqpSink, err := notify.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP sink unavailable, notifications go to the log only", "error", err)
		} else {
			logger.Info("initialized AMQP notification sink",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			res.Sink = notify.Multi{notify.LogSink{}, amqpSink}
			res.Cleanup = func() error {
				amqpSink.Close()
				return st.Close()
			}
		}
	}
	if res.Cleanup == nil {
		res.Cleanup = st.Close
	}
	return res, nil
}

func buildStore(ctx context.Context, t Type, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch t {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		logger.Info("initialized postgres backend")
		return repo, nil

	case MemoryBackend:
		logger.Info("initialized memory backend")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", t)
}
