// The queue-worker drains the offline operation queue and posts due
// recurring payments on a schedule, independent of the API server. It shares
// the same store, so it suits deployments where the server runs with a short
// probe interval and replay happens out of process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bolsillo/internal/backend"
	"bolsillo/internal/config"
	applog "bolsillo/internal/log"
	"bolsillo/internal/netstatus"
	"bolsillo/internal/queue"
	"bolsillo/internal/recurring"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentQueue,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	result, err := backend.Build(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	applier := queue.NewApplier(result.Store)
	opQueue := queue.New(result.Store, applier,
		queue.WithRetry(queue.RetryConfig{
			Attempts:    cfg.RetryAttempts,
			Delay:       cfg.RetryDelay,
			Exponential: cfg.RetryExponential,
		}),
		queue.WithMaxFailures(cfg.QueueMaxFailures),
		queue.WithDrainConcurrency(cfg.DrainConcurrency),
	)

	if err := opQueue.Recover(ctx); err != nil {
		logger.Error("Failed to recover in-flight operations", "error", err)
		os.Exit(1)
	}

	var probe netstatus.Probe = netstatus.AlwaysOnline{}
	if cfg.ProbeAddress != "" {
		probe = netstatus.DialProbe{Address: cfg.ProbeAddress}
	}
	monitor := netstatus.NewMonitor(probe, cfg.ProbeInterval, nil)

	processor := recurring.NewProcessor(result.Store, result.Sink)
	go processor.Run(ctx, cfg.RecurringInterval)

	logger.Info("Queue worker started",
		"drain_interval", cfg.ProbeInterval,
		"recurring_interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(cfg.ProbeInterval)
	defer ticker.Stop()

	drain := func() {
		if !monitor.Check(ctx) {
			logger.Debug("Skipping drain while offline")
			return
		}
		result, err := opQueue.Drain(ctx)
		if err != nil {
			logger.Error("Queue drain failed", "error", err)
			return
		}
		if result.Applied > 0 || result.Failed > 0 || result.Parked > 0 {
			logger.Info("Drain cycle finished",
				"applied", result.Applied,
				"failed", result.Failed,
				"parked", result.Parked)
		}
	}

	drain()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Queue worker stopped gracefully")
			return
		case <-ticker.C:
			drain()
		}
	}
}
