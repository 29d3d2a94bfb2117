package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/analytics"
	"budgetly/internal/cache"
	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// Dashboard is the view model of one owner's ledger.
type Dashboard struct {
	Filtered    []core.Expense
	Grouped     analytics.GroupedView
	Stats       analytics.Stats
	Budgets     analytics.BudgetReport
	Insights    []analytics.Insight
	Recent      []core.Expense
	GeneratedAt time.Time
}

// RecentSuggestions is how many quick-add candidates the dashboard offers.
const RecentSuggestions = 5

// ServiceOption configures a LedgerService.
type ServiceOption func(*LedgerService)

// WithPublisher publishes ledger events after each mutation.
func WithPublisher(p EventPublisher) ServiceOption {
	return func(s *LedgerService) { s.events = p }
}

// WithSnapshotCache caches per-owner expense lists.
func WithSnapshotCache(c cache.Cache[[]core.Expense]) ServiceOption {
	return func(s *LedgerService) { s.snapshots = c }
}

// WithBudgetEvaluator overrides the near-limit threshold.
func WithBudgetEvaluator(b analytics.BudgetEvaluator) ServiceOption {
	return func(s *LedgerService) { s.evaluator = b }
}

// WithInsightOptions tunes dashboard insights.
func WithInsightOptions(o analytics.InsightOptions) ServiceOption {
	return func(s *LedgerService) { s.insights = o }
}

// WithClock sets the clock used for creation timestamps and markers.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *LedgerService) { s.now = now }
}

// LedgerService validates and applies ledger mutations and builds dashboards.
type LedgerService struct {
	store     storage.LedgerStore
	events    EventPublisher
	snapshots cache.Cache[[]core.Expense]
	evaluator analytics.BudgetEvaluator
	insights  analytics.InsightOptions
	now       func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store storage.LedgerStore, opts ...ServiceOption) *LedgerService {
	s := &LedgerService{
		store:     store,
		evaluator: analytics.NewBudgetEvaluator(analytics.DefaultNearLimitPercent),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached snapshot of an owner.
func (s *LedgerService) Invalidate(ownerID string) {
	if s.snapshots != nil {
		s.snapshots.Delete(ownerID)
	}
}

// ListExpenses returns the owner's expenses, served from cache when possible.
func (s *LedgerService) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	if s.snapshots != nil {
		if cached, ok := s.snapshots.Get(ownerID); ok {
			return append([]core.Expense(nil), cached...), nil
		}
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, storage.Wrap("list expenses", err)
	}
	if s.snapshots != nil {
		s.snapshots.Set(ownerID, append([]core.Expense(nil), expenses...))
	}
	return expenses, nil
}

// GetExpense returns one expense.
func (s *LedgerService) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, storage.Wrap("get expense", err)
	}
	return e, nil
}

// CreateExpense validates and stores a new expense under a fresh id.
func (s *LedgerService) CreateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.CreatedAt = time.Time{}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, ownerID, e)
	if err != nil {
		return core.Expense{}, storage.Wrap("create expense", err)
	}
	s.Invalidate(ownerID)

	slog.InfoContext(ctx, "Expense created",
		"owner_id", ownerID,
		"expense_id", created.ID,
		"category", created.Category,
		"amount_cents", created.Amount.Cents)

	publishEvent(ctx, s.events, amqp.ExpenseCreated, ownerID, created.ID, created.RecurringID, s.now())
	return created, nil
}

// QuickAdd copies an existing expense and dates the copy at now.
func (s *LedgerService) QuickAdd(ctx context.Context, ownerID, sourceID string, now time.Time) (core.Expense, error) {
	src, err := s.GetExpense(ctx, ownerID, sourceID)
	if err != nil {
		return core.Expense{}, err
	}
	return s.CreateExpense(ctx, ownerID, core.Expense{
		Classification: src.Classification,
		Amount:         src.Amount,
		Description:    src.Description,
		Date:           core.DateOf(now),
	})
}

// UpdateExpense applies a partial update. The result is validated before
// anything is written.
func (s *LedgerService) UpdateExpense(ctx context.Context, ownerID, id string, patch core.ExpensePatch) (core.Expense, error) {
	current, err := s.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	if err := patch.Apply(current).Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.store.UpdateExpense(ctx, ownerID, id, patch)
	if err != nil {
		return core.Expense{}, storage.Wrap("update expense", err)
	}
	s.Invalidate(ownerID)

	slog.InfoContext(ctx, "Expense updated",
		"owner_id", ownerID,
		"expense_id", id)

	publishEvent(ctx, s.events, amqp.ExpenseUpdated, ownerID, id, updated.RecurringID, s.now())
	return updated, nil
}

// DeleteExpense removes an expense and returns the deleted snapshot so the
// caller can offer an undo through RestoreExpense.
func (s *LedgerService) DeleteExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	snapshot, err := s.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return core.Expense{}, storage.Wrap("delete expense", err)
	}
	s.Invalidate(ownerID)

	slog.InfoContext(ctx, "Expense deleted",
		"owner_id", ownerID,
		"expense_id", id)

	publishEvent(ctx, s.events, amqp.ExpenseDeleted, ownerID, id, snapshot.RecurringID, s.now())
	return snapshot, nil
}

// RestoreExpense re-creates a deleted expense. The restored expense gets a
// new id; every other field of the snapshot is kept.
func (s *LedgerService) RestoreExpense(ctx context.Context, ownerID string, snapshot core.Expense) (core.Expense, error) {
	if err := snapshot.Validate(); err != nil {
		return core.Expense{}, err
	}
	recurringID := snapshot.RecurringID
	snapshot.ID = ""
	snapshot.CreatedAt = time.Time{}

	created, err := s.store.CreateExpense(ctx, ownerID, snapshot)
	if err != nil {
		return core.Expense{}, storage.Wrap("restore expense", err)
	}
	s.Invalidate(ownerID)

	slog.InfoContext(ctx, "Expense restored",
		"owner_id", ownerID,
		"expense_id", created.ID)

	publishEvent(ctx, s.events, amqp.ExpenseCreated, ownerID, created.ID, recurringID, s.now())
	return created, nil
}

// CreateRecurringExpense stores an expense and a template that repeats it.
// The template is marked as generated so the current period is not billed
// twice.
func (s *LedgerService) CreateRecurringExpense(ctx context.Context, ownerID string, e core.Expense, frequency core.Frequency) (core.Expense, core.RecurringTemplate, error) {
	now := s.now()
	marker := now
	if core.DateOf(now).Before(e.Date) {
		marker = e.Date.Time
	}
	rt := core.RecurringTemplate{
		Classification: e.Classification,
		Amount:         e.Amount,
		Description:    e.Description,
		Frequency:      frequency,
		StartDate:      e.Date,
		LastGenerated:  &marker,
		IsActive:       true,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, core.RecurringTemplate{}, err
	}
	if err := rt.Validate(); err != nil {
		return core.Expense{}, core.RecurringTemplate{}, err
	}

	createdTemplate, err := s.store.CreateRecurringTemplate(ctx, ownerID, rt)
	if err != nil {
		return core.Expense{}, core.RecurringTemplate{}, storage.Wrap("create recurring template", err)
	}

	e.RecurringID = createdTemplate.ID
	created, err := s.CreateExpense(ctx, ownerID, e)
	if err != nil {
		if delErr := s.store.DeleteRecurringTemplate(ctx, ownerID, createdTemplate.ID); delErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back recurring template",
				"owner_id", ownerID,
				"template_id", createdTemplate.ID,
				"error", delErr)
			err = errors.Join(err, storage.Wrap("delete recurring template", delErr))
		}
		return core.Expense{}, core.RecurringTemplate{}, err
	}

	slog.InfoContext(ctx, "Recurring expense created",
		"owner_id", ownerID,
		"template_id", createdTemplate.ID,
		"frequency", frequency)

	return created, createdTemplate, nil
}

// ListTemplates returns the owner's recurring templates.
func (s *LedgerService) ListTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	ts, err := s.store.ListRecurringTemplates(ctx, ownerID)
	if err != nil {
		return nil, storage.Wrap("list recurring templates", err)
	}
	return ts, nil
}

// CreateTemplate stores a recurring template.
func (s *LedgerService) CreateTemplate(ctx context.Context, ownerID string, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	rt.ID = ""
	rt.CreatedAt = time.Time{}
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	created, err := s.store.CreateRecurringTemplate(ctx, ownerID, rt)
	if err != nil {
		return core.RecurringTemplate{}, storage.Wrap("create recurring template", err)
	}
	slog.InfoContext(ctx, "Recurring template created",
		"owner_id", ownerID,
		"template_id", created.ID,
		"frequency", created.Frequency)
	return created, nil
}

// UpdateTemplate applies a partial template update after validating the result.
func (s *LedgerService) UpdateTemplate(ctx context.Context, ownerID, id string, patch core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	current, err := s.store.GetRecurringTemplate(ctx, ownerID, id)
	if err != nil {
		return core.RecurringTemplate{}, storage.Wrap("get recurring template", err)
	}
	if err := patch.Apply(current).Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	updated, err := s.store.UpdateRecurringTemplate(ctx, ownerID, id, patch)
	if err != nil {
		return core.RecurringTemplate{}, storage.Wrap("update recurring template", err)
	}
	slog.InfoContext(ctx, "Recurring template updated",
		"owner_id", ownerID,
		"template_id", id)
	return updated, nil
}

// SetTemplateActive pauses or resumes a template.
func (s *LedgerService) SetTemplateActive(ctx context.Context, ownerID, id string, active bool) (core.RecurringTemplate, error) {
	return s.UpdateTemplate(ctx, ownerID, id, core.RecurringTemplatePatch{IsActive: &active})
}

// DeleteTemplate removes a template. Expenses it generated are kept.
func (s *LedgerService) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteRecurringTemplate(ctx, ownerID, id); err != nil {
		return storage.Wrap("delete recurring template", err)
	}
	slog.InfoContext(ctx, "Recurring template deleted",
		"owner_id", ownerID,
		"template_id", id)
	return nil
}

// ListBudgets returns the owner's budgets.
func (s *LedgerService) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	bs, err := s.store.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, storage.Wrap("list budgets", err)
	}
	return bs, nil
}

// SetBudget creates or replaces the monthly budget of a category.
func (s *LedgerService) SetBudget(ctx context.Context, ownerID string, category core.Category, limit core.Money) (core.Budget, error) {
	return s.upsertBudget(ctx, ownerID, core.NewCategoryBudget(category, limit))
}

// SetOverallBudget creates or replaces the monthly budget across categories.
func (s *LedgerService) SetOverallBudget(ctx context.Context, ownerID string, limit core.Money) (core.Budget, error) {
	return s.upsertBudget(ctx, ownerID, core.NewOverallBudget(limit))
}

func (s *LedgerService) upsertBudget(ctx context.Context, ownerID string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.store.UpsertBudget(ctx, ownerID, b)
	if err != nil {
		return core.Budget{}, storage.Wrap("upsert budget", err)
	}
	slog.InfoContext(ctx, "Budget saved",
		"owner_id", ownerID,
		"category", budgetLabel(saved),
		"limit_cents", saved.Limit.Cents)
	return saved, nil
}

// DeleteBudget removes a category budget.
func (s *LedgerService) DeleteBudget(ctx context.Context, ownerID string, category core.Category) error {
	if !category.Valid() {
		return &core.ValidationError{Field: "category", Err: core.ErrInvalidCategory}
	}
	return s.deleteBudget(ctx, ownerID, category)
}

// DeleteOverallBudget removes the overall budget.
func (s *LedgerService) DeleteOverallBudget(ctx context.Context, ownerID string) error {
	return s.deleteBudget(ctx, ownerID, "")
}

func (s *LedgerService) deleteBudget(ctx context.Context, ownerID string, category core.Category) error {
	if err := s.store.DeleteBudget(ctx, ownerID, category); err != nil {
		return storage.Wrap("delete budget", err)
	}
	slog.InfoContext(ctx, "Budget deleted",
		"owner_id", ownerID,
		"category", budgetLabel(core.Budget{Category: category}))
	return nil
}

func budgetLabel(b core.Budget) string {
	if b.IsOverall() {
		return "overall"
	}
	return string(b.Category)
}

// Dashboard builds the view model for one owner. Stats, budgets and insights
// cover the whole ledger; Filtered and Grouped honour the filter.
func (s *LedgerService) Dashboard(ctx context.Context, ownerID string, filter core.ExpenseFilter, now time.Time) (Dashboard, error) {
	expenses, err := s.ListExpenses(ctx, ownerID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load expenses: %w", err)
	}
	budgets, err := s.ListBudgets(ctx, ownerID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load budgets: %w", err)
	}

	filtered := analytics.ApplyFilters(expenses, filter, now)
	return Dashboard{
		Filtered:    filtered,
		Grouped:     analytics.GroupForDisplay(filtered, now),
		Stats:       analytics.CalculateStats(expenses, now),
		Budgets:     s.evaluator.EvaluateBudgets(expenses, budgets, now),
		Insights:    analytics.GenerateInsights(expenses, now, s.insights),
		Recent:      analytics.RecentUnique(expenses, RecentSuggestions),
		GeneratedAt: now,
	}, nil
}
