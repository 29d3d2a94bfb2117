package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetly/internal/amqp"
	"budgetly/internal/config"
	"budgetly/internal/lock"
)

// NewLocker returns a Redis lock when REDIS_ADDR is set, otherwise an
// in-process lock.
func NewLocker(ctx context.Context, cfg *config.Config) (lock.Locker, CleanupFunc, error) {
	if cfg.RedisAddr == "" {
		slog.InfoContext(ctx, "Using in-process template lock")
		return lock.NewLocal(), nil, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis lock: %w", err)
	}
	slog.InfoContext(ctx, "Using redis template lock", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return lock.NewRedis(client, lock.RedisOptions{}), client.Close, nil
}

// NewPublisher connects to AMQP when AMQP_URL is set. A connection failure
// is logged and yields a nil client so the ledger keeps working without
// events.
func NewPublisher(ctx context.Context, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	slog.InfoContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}
