package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bolsillo/internal/backend"
	"bolsillo/internal/config"
	"bolsillo/internal/debts"
	"bolsillo/internal/httpapi"
	"bolsillo/internal/ledger"
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
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := backend.Build(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	applier := queue.NewApplier(result.Store)
	retryCfg := queue.RetryConfig{
		Attempts:    cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Exponential: cfg.RetryExponential,
	}
	opQueue := queue.New(result.Store, applier,
		queue.WithRetry(retryCfg),
		queue.WithMaxFailures(cfg.QueueMaxFailures),
		queue.WithDrainConcurrency(cfg.DrainConcurrency),
	)

	// Operations claimed by a previous run that died mid-replay go back to
	// pending before anything else happens.
	if err := opQueue.Recover(ctx); err != nil {
		logger.Error("Failed to recover in-flight operations", "error", err)
		os.Exit(1)
	}

	var probe netstatus.Probe = netstatus.AlwaysOnline{}
	if cfg.ProbeAddress != "" {
		probe = netstatus.DialProbe{Address: cfg.ProbeAddress}
	}
	monitor := netstatus.NewMonitor(probe, cfg.ProbeInterval, func(ctx context.Context) {
		if _, err := opQueue.Drain(ctx); err != nil {
			logger.Error("Queue drain after reconnect failed", "error", err)
		}
	})
	go monitor.Run(ctx)

	gateway := queue.NewGateway(applier, opQueue, monitor.Online)
	coordinator := ledger.NewCoordinator(result.Store)
	debtService := debts.NewService(result.Store)
	processor := recurring.NewProcessor(result.Store, result.Sink)
	go processor.Run(ctx, cfg.RecurringInterval)

	srv := httpapi.NewServer(":"+cfg.Port, httpapi.Deps{
		Store:       result.Store,
		Coordinator: coordinator,
		Debts:       debtService,
		Gateway:     gateway,
		Queue:       opQueue,
		Monitor:     monitor,
		Sink:        result.Sink,
		Recurring:   processor,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting bolsillo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
