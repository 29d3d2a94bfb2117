package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/cli"
	"budgetly/internal/config"
	"budgetly/internal/log"
	ports "budgetly/internal/sheets"
	gsheet "budgetly/internal/sheets/google"
	sheetmem "budgetly/internal/sheets/memory"
	"budgetly/internal/worker"
)

const reconcileInterval = 24 * time.Hour

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err == nil {
		err = cfg.ValidateMirror()
	}
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, log.ComponentMirror)
	defer logger.Close()

	logger.Info("Starting ledger-mirror", log.FieldBackend, cfg.LedgerBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", "error", err)
		os.Exit(1)
	}
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(store.Store, mirror)
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	// Catch up on events lost while the mirror was down
	reconcile(shutdownCtx, logger, mirrorWorker)

	go func() {
		err := amqpClient.ConsumeLedgerEvents(shutdownCtx, mirrorWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
		}
		cancel()
	}()

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownCtx.Done():
			<-done
			logger.Info("Ledger-mirror shutdown complete")
			return
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return
		case <-ticker.C:
			reconcile(shutdownCtx, logger, mirrorWorker)
		}
	}
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (ports.ExpenseMirror, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, mirroring to memory only")
		return sheetmem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}

func reconcile(ctx context.Context, logger *log.Logger, w *worker.MirrorWorker) {
	res, err := w.ReconcileAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Mirror reconcile failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "Mirror reconcile complete",
		"upserted", res.Upserted,
		"removed", res.Removed,
		"errors", res.Errors)
}
