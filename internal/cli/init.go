// Package cli holds the startup wiring shared by cmd/ledger,
// cmd/recurring-worker and cmd/ledger-mirror.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetly/internal/analytics"
	"budgetly/internal/backend"
	"budgetly/internal/cache"
	"budgetly/internal/config"
	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_* settings and installs it
// as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.File = cfg.LogFile
	lc.Component = component
	return log.Setup(lc)
}

// OpenStore creates the configured ledger backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bc.Type, err)
	}
	return res, nil
}

// Runtime bundles a ledger service with the resources it owns.
type Runtime struct {
	Service *services.LedgerService
	Engine  *services.RecurrenceEngine
	Caches  *cache.Manager
	cleanup []backend.CleanupFunc
}

// NewRuntime wires the ledger service and recurrence engine over store.
// The snapshot cache is swept by a background manager until ctx ends.
func NewRuntime(ctx context.Context, cfg *config.Config, store *backend.BackendResult) (*Runtime, error) {
	rt := &Runtime{}
	if store.Cleanup != nil {
		rt.cleanup = append(rt.cleanup, store.Cleanup)
	}

	snapshots := cache.NewLRUCache[[]core.Expense](cfg.CacheSize, cfg.CacheTTL)
	rt.Caches = cache.NewManager(snapshots)
	rt.Caches.Start(ctx, cfg.CacheTTL)

	locker, closeLocker, err := backend.NewLocker(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if closeLocker != nil {
		rt.cleanup = append(rt.cleanup, closeLocker)
	}

	svcOpts := []services.ServiceOption{
		services.WithSnapshotCache(snapshots),
		services.WithBudgetEvaluator(analytics.NewBudgetEvaluator(cfg.NearLimitPercent)),
		services.WithInsightOptions(analytics.InsightOptions{LargeExpenseFactor: cfg.LargeExpenseFactor}),
	}
	engineOpts := []services.EngineOption{
		services.WithLocker(locker),
		services.WithConcurrency(cfg.TickConcurrency),
	}
	if client := backend.NewPublisher(ctx, cfg); client != nil {
		rt.cleanup = append(rt.cleanup, client.Close)
		svcOpts = append(svcOpts, services.WithPublisher(client))
		engineOpts = append(engineOpts, services.WithEnginePublisher(client))
	}

	rt.Service = services.NewLedgerService(store.Store, svcOpts...)
	rt.Engine = services.NewRecurrenceEngine(store.Store, engineOpts...)
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		if err := r.cleanup[i](); err != nil {
			log.FromContext(context.Background()).Warn("Cleanup failed", "error", err)
		}
	}
	r.cleanup = nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned channel closes once cleanup has run or timeout has elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}
