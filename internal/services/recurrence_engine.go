package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/lock"
	"budgetly/internal/storage"
)

// AutoSuffix is appended to the description of generated expenses.
const AutoSuffix = " (Auto)"

// DefaultTickConcurrency bounds how many templates are processed at once.
const DefaultTickConcurrency = 4

// TemplateUpdate records a marker advance performed during a tick.
type TemplateUpdate struct {
	TemplateID    string
	LastGenerated time.Time
}

// TemplateFailure records a template that could not be processed.
type TemplateFailure struct {
	TemplateID string
	Err        error
}

// TickResult summarizes one recurrence tick.
type TickResult struct {
	Generated []core.Expense
	Updates   []TemplateUpdate
	Failures  []TemplateFailure
	Checked   int
}

func (r *TickResult) merge(o TickResult) {
	r.Generated = append(r.Generated, o.Generated...)
	r.Updates = append(r.Updates, o.Updates...)
	r.Failures = append(r.Failures, o.Failures...)
	r.Checked += o.Checked
}

// EngineOption configures a RecurrenceEngine.
type EngineOption func(*RecurrenceEngine)

// WithLocker replaces the in-process template lock.
func WithLocker(l lock.Locker) EngineOption {
	return func(e *RecurrenceEngine) { e.locker = l }
}

// WithEnginePublisher publishes expense.generated events.
func WithEnginePublisher(p EventPublisher) EngineOption {
	return func(e *RecurrenceEngine) { e.events = p }
}

// WithConcurrency bounds parallel template processing.
func WithConcurrency(n int) EngineOption {
	return func(e *RecurrenceEngine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// RecurrenceEngine materializes due recurring templates into expenses.
type RecurrenceEngine struct {
	store       storage.LedgerStore
	locker      lock.Locker
	events      EventPublisher
	concurrency int
}

// NewRecurrenceEngine creates an engine over store.
func NewRecurrenceEngine(store storage.LedgerStore, opts ...EngineOption) *RecurrenceEngine {
	e := &RecurrenceEngine{
		store:       store,
		locker:      lock.NewLocal(),
		concurrency: DefaultTickConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick processes the active templates of one owner. Per-template failures are
// reported in the result; an error is only returned for invalid input.
func (e *RecurrenceEngine) Tick(ctx context.Context, ownerID string, templates []core.RecurringTemplate, now time.Time) (TickResult, error) {
	if e == nil || e.store == nil {
		return TickResult{}, fmt.Errorf("engine not properly initialized")
	}
	if ownerID == "" {
		return TickResult{}, fmt.Errorf("owner id is required")
	}

	var (
		mu     sync.Mutex
		result TickResult
		g      errgroup.Group
	)
	g.SetLimit(e.concurrency)

	for _, rt := range templates {
		if !rt.IsActive {
			continue
		}
		result.Checked++
		id := rt.ID
		g.Go(func() error {
			generated, err := e.processTemplate(ctx, ownerID, id, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.ErrorContext(ctx, "Failed to process recurring template",
					"owner_id", ownerID,
					"template_id", id,
					"error", err)
				result.Failures = append(result.Failures, TemplateFailure{TemplateID: id, Err: err})
			case generated != nil:
				result.Generated = append(result.Generated, *generated)
				result.Updates = append(result.Updates, TemplateUpdate{TemplateID: id, LastGenerated: now})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.sort()

	slog.InfoContext(ctx, "Recurring tick complete",
		"owner_id", ownerID,
		"checked", result.Checked,
		"generated", len(result.Generated),
		"failed", len(result.Failures),
		"tick_date", core.DateOf(now).String())

	return result, nil
}

func (r *TickResult) sort() {
	sort.SliceStable(r.Generated, func(i, j int) bool { return r.Generated[i].RecurringID < r.Generated[j].RecurringID })
	sort.SliceStable(r.Updates, func(i, j int) bool { return r.Updates[i].TemplateID < r.Updates[j].TemplateID })
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].TemplateID < r.Failures[j].TemplateID })
}

// processTemplate returns the generated expense, or nil when nothing was due.
func (e *RecurrenceEngine) processTemplate(ctx context.Context, ownerID, templateID string, now time.Time) (*core.Expense, error) {
	release, err := e.locker.Acquire(ctx, lockKey(ownerID, templateID))
	if err != nil {
		return nil, fmt.Errorf("acquire template lock: %w", err)
	}
	defer release()

	// Re-read under the lock; the caller's snapshot may be stale.
	rt, err := e.store.GetRecurringTemplate(ctx, ownerID, templateID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	due, err := IsDue(rt, now)
	if err != nil {
		return nil, err
	}
	if !due {
		return nil, nil
	}

	created, err := e.materialize(ctx, ownerID, rt, GeneratedExpense(rt, now), now)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Created expense from recurring template",
		"owner_id", ownerID,
		"template_id", rt.ID,
		"expense_id", created.ID,
		"amount_cents", created.Amount.Cents,
		"frequency", rt.Frequency)

	publishEvent(ctx, e.events, amqp.ExpenseGenerated, ownerID, created.ID, rt.ID, now)
	return &created, nil
}

func (e *RecurrenceEngine) materialize(ctx context.Context, ownerID string, rt core.RecurringTemplate, exp core.Expense, now time.Time) (core.Expense, error) {
	if m, ok := e.store.(storage.Materializer); ok {
		created, err := m.Materialize(ctx, ownerID, exp, rt.ID, now)
		if err != nil {
			return core.Expense{}, fmt.Errorf("materialize expense: %w", err)
		}
		return created, nil
	}

	created, err := e.store.CreateExpense(ctx, ownerID, exp)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if _, err := e.store.UpdateRecurringTemplate(ctx, ownerID, rt.ID, core.MarkGenerated(now)); err != nil {
		if delErr := e.store.DeleteExpense(ctx, ownerID, created.ID); delErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back generated expense",
				"template_id", rt.ID,
				"expense_id", created.ID,
				"error", delErr)
			return core.Expense{}, fmt.Errorf("update template marker: %w", errors.Join(err, delErr))
		}
		return core.Expense{}, fmt.Errorf("update template marker: %w", err)
	}
	return created, nil
}

// Run lists the owner's templates and ticks them.
func (e *RecurrenceEngine) Run(ctx context.Context, ownerID string, now time.Time) (TickResult, error) {
	if e == nil || e.store == nil {
		return TickResult{}, fmt.Errorf("engine not properly initialized")
	}
	templates, err := e.store.ListRecurringTemplates(ctx, ownerID)
	if err != nil {
		return TickResult{}, fmt.Errorf("list recurring templates: %w", err)
	}
	return e.Tick(ctx, ownerID, templates, now)
}

// RunAll ticks every owner known to the store.
func (e *RecurrenceEngine) RunAll(ctx context.Context, now time.Time) (TickResult, error) {
	if e == nil || e.store == nil {
		return TickResult{}, fmt.Errorf("engine not properly initialized")
	}
	lister, ok := e.store.(storage.OwnerLister)
	if !ok {
		return TickResult{}, fmt.Errorf("store cannot enumerate owners")
	}
	owners, err := lister.ListOwners(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("list owners: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"owners", len(owners),
		"processing_date", core.DateOf(now).String())

	var total TickResult
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := e.Run(ctx, owner, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process owner",
				"owner_id", owner,
				"error", err)
			continue
		}
		total.merge(res)
	}
	return total, nil
}

// GeneratedExpense builds the expense a due template materializes into.
func GeneratedExpense(rt core.RecurringTemplate, now time.Time) core.Expense {
	desc := rt.Description
	limit := core.MaxDescriptionLength - utf8.RuneCountInString(AutoSuffix)
	if utf8.RuneCountInString(desc) > limit {
		desc = string([]rune(desc)[:limit])
	}
	return core.Expense{
		Classification: rt.Classification,
		Amount:         rt.Amount,
		Description:    desc + AutoSuffix,
		Date:           core.DateOf(now),
		RecurringID:    rt.ID,
	}
}

func lockKey(ownerID, templateID string) string {
	return "recurring:" + ownerID + ":" + templateID
}
