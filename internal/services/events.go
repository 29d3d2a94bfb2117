package services

import (
	"context"
	"log/slog"
	"time"

	"budgetly/internal/amqp"
)

// EventPublisher delivers ledger events to downstream consumers.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// publishEvent sends a ledger event. Failures are logged and never returned
// since the mutation they describe has already been committed.
func publishEvent(ctx context.Context, p EventPublisher, eventType amqp.EventType, ownerID, expenseID, templateID string, now time.Time) {
	if p == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event",
			"event_type", eventType,
			"expense_id", expenseID)
		return
	}

	event, err := amqp.NewLedgerEvent(eventType, ownerID, expenseID, now)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build ledger event",
			"event_type", eventType,
			"expense_id", expenseID,
			"error", err)
		return
	}
	event.TemplateID = templateID

	if err := p.PublishLedgerEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"event_type", eventType,
			"event_id", event.ID,
			"expense_id", expenseID,
			"error", err)
		return
	}

	slog.DebugContext(ctx, "Published ledger event",
		"event_type", eventType,
		"event_id", event.ID,
		"expense_id", expenseID)
}
