package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// plainStore hides the Materializer of the wrapped store.
type plainStore struct {
	storage.LedgerStore
}

// markerFailingStore fails marker updates for the listed templates.
type markerFailingStore struct {
	storage.LedgerStore
	failFor map[string]bool
}

var errMarker = errors.New("marker write failed")

func (s markerFailingStore) UpdateRecurringTemplate(ctx context.Context, ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	if s.failFor[id] {
		return core.RecurringTemplate{}, errMarker
	}
	return s.LedgerStore.UpdateRecurringTemplate(ctx, ownerID, id, p)
}

// brokenStore fails every read.
type brokenStore struct {
	storage.LedgerStore
}

var errBackend = errors.New("backend unavailable")

func (brokenStore) ListExpenses(context.Context, string) ([]core.Expense, error) {
	return nil, errBackend
}

func (brokenStore) GetExpense(context.Context, string, string) (core.Expense, error) {
	return core.Expense{}, errBackend
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func food(desc string, cents int64, d core.Date) core.Expense {
	return core.Expense{
		Classification: core.Classification{Category: core.Food},
		Amount:         core.Money{Cents: cents},
		Description:    desc,
		Date:           d,
	}
}
