package main

import (
	"context"
	"os"
	"time"

	"budgetly/internal/cli"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, log.ComponentRecurring)
	defer logger.Close()

	logger.Info("Starting recurring-worker",
		log.FieldBackend, cfg.LedgerBackend,
		"interval", cfg.RecurringInterval,
		"concurrency", cfg.TickConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", "error", err)
		os.Exit(1)
	}

	rt, err := cli.NewRuntime(ctx, cfg, store)
	if err != nil {
		logger.Error("Failed to initialize runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	// Run initial processing on startup
	logger.Info("Running initial recurring expense processing")
	runOnce(shutdownCtx, logger, rt.Engine, time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownCtx.Done():
			<-done
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			runOnce(shutdownCtx, logger, rt.Engine, now)
			logger.Debug("Next recurring check scheduled",
				"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
		}
	}
}

func runOnce(ctx context.Context, logger *log.Logger, engine *services.RecurrenceEngine, now time.Time) {
	start := time.Now()
	res, err := engine.RunAll(ctx, now)
	if err != nil {
		logger.ErrorContext(ctx, "Recurring processing failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "Recurring processing complete",
		log.FieldGenerated, len(res.Generated),
		log.FieldFailed, len(res.Failures),
		"checked", res.Checked,
		log.FieldDuration, time.Since(start).Milliseconds())
	for _, f := range res.Failures {
		logger.WarnContext(ctx, "Recurring template failed",
			log.FieldTemplateID, f.TemplateID,
			"error", f.Err)
	}
}
