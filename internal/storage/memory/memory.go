// Package memory provides an in-process ledger store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

type ledger struct {
	expenses  []core.Expense
	budgets   []core.Budget
	templates []core.RecurringTemplate
}

// Store keeps every owner's ledger in memory. The zero value is not usable;
// call New.
type Store struct {
	mu     sync.Mutex
	owners map[string]*ledger
	now    func() time.Time
}

var (
	_ storage.LedgerStore  = (*Store)(nil)
	_ storage.Materializer = (*Store)(nil)
	_ storage.OwnerLister  = (*Store)(nil)
)

func New() *Store {
	return &Store{owners: map[string]*ledger{}, now: time.Now}
}

// WithClock overrides the creation-time clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ledger(ownerID string) *ledger {
	l, ok := s.owners[ownerID]
	if !ok {
		l = &ledger{}
		s.owners[ownerID] = l
	}
	return l
}

func (s *Store) ListExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	return append([]core.Expense(nil), l.expenses...), nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexExpense(l.expenses, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return l.expenses[i], nil
}

func (s *Store) CreateExpense(_ context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createExpenseLocked(ownerID, e)
}

func (s *Store) createExpenseLocked(ownerID string, e core.Expense) (core.Expense, error) {
	e = storage.PrepareExpense(e, s.now())
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	l := s.ledger(ownerID)
	if indexExpense(l.expenses, e.ID) >= 0 {
		e.ID = storage.NewID()
	}
	l.expenses = append(l.expenses, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, ownerID, id string, p core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexExpense(l.expenses, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	updated := p.Apply(l.expenses[i])
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	l.expenses[i] = updated
	return updated, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexExpense(l.expenses, id)
	if i < 0 {
		return core.ErrNotFound
	}
	l.expenses = append(l.expenses[:i], l.expenses[i+1:]...)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.ledger(ownerID).budgets...), nil
}

func (s *Store) UpsertBudget(_ context.Context, ownerID string, b core.Budget) (core.Budget, error) {
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	for i := range l.budgets {
		if l.budgets[i].Category == b.Category && l.budgets[i].Period == b.Period {
			l.budgets[i] = b
			return b, nil
		}
	}
	l.budgets = append(l.budgets, b)
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, ownerID string, category core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	for i := range l.budgets {
		if l.budgets[i].Category == category {
			l.budgets = append(l.budgets[:i], l.budgets[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListRecurringTemplates(_ context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	out := make([]core.RecurringTemplate, len(l.templates))
	for i, rt := range l.templates {
		out[i] = cloneTemplate(rt)
	}
	return out, nil
}

func (s *Store) GetRecurringTemplate(_ context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexTemplate(l.templates, id)
	if i < 0 {
		return core.RecurringTemplate{}, core.ErrNotFound
	}
	return cloneTemplate(l.templates[i]), nil
}

func (s *Store) CreateRecurringTemplate(_ context.Context, ownerID string, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	rt = storage.PrepareTemplate(rt, s.now())
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	if indexTemplate(l.templates, rt.ID) >= 0 {
		rt.ID = storage.NewID()
	}
	rt = cloneTemplate(rt)
	l.templates = append(l.templates, rt)
	return cloneTemplate(rt), nil
}

func (s *Store) UpdateRecurringTemplate(_ context.Context, ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTemplateLocked(ownerID, id, p)
}

func (s *Store) updateTemplateLocked(ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	l := s.ledger(ownerID)
	i := indexTemplate(l.templates, id)
	if i < 0 {
		return core.RecurringTemplate{}, core.ErrNotFound
	}
	updated := p.Apply(l.templates[i])
	if err := updated.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	l.templates[i] = cloneTemplate(updated)
	return cloneTemplate(updated), nil
}

func (s *Store) DeleteRecurringTemplate(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexTemplate(l.templates, id)
	if i < 0 {
		return core.ErrNotFound
	}
	l.templates = append(l.templates[:i], l.templates[i+1:]...)
	return nil
}

// Materialize creates the expense and advances the template under one lock.
func (s *Store) Materialize(_ context.Context, ownerID string, e core.Expense, templateID string, generatedAt time.Time) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	i := indexTemplate(l.templates, templateID)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	updated := core.MarkGenerated(generatedAt).Apply(l.templates[i])
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.createExpenseLocked(ownerID, e)
	if err != nil {
		return core.Expense{}, err
	}
	l.templates[i] = cloneTemplate(updated)
	return created, nil
}

// ListOwners returns owners with any stored data, sorted.
func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make([]string, 0, len(s.owners))
	for id, l := range s.owners {
		if len(l.expenses)+len(l.budgets)+len(l.templates) > 0 {
			owners = append(owners, id)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *Store) Close() error { return nil }

func indexExpense(es []core.Expense, id string) int {
	for i := range es {
		if es[i].ID == id {
			return i
		}
	}
	return -1
}

func indexTemplate(ts []core.RecurringTemplate, id string) int {
	for i := range ts {
		if ts[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTemplate(rt core.RecurringTemplate) core.RecurringTemplate {
	if rt.LastGenerated != nil {
		t := *rt.LastGenerated
		rt.LastGenerated = &t
	}
	return rt
}

// Ledger is one owner's full data set.
type Ledger struct {
	Expenses  []core.Expense
	Budgets   []core.Budget
	Templates []core.RecurringTemplate
}

// Export returns a copy of the owner's ledger.
func (s *Store) Export(ownerID string) Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(ownerID)
	out := Ledger{
		Expenses: append([]core.Expense(nil), l.expenses...),
		Budgets:  append([]core.Budget(nil), l.budgets...),
	}
	for _, rt := range l.templates {
		out.Templates = append(out.Templates, cloneTemplate(rt))
	}
	return out
}

// Import replaces the owner's ledger.
func (s *Store) Import(ownerID string, in Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &ledger{
		expenses: append([]core.Expense(nil), in.Expenses...),
		budgets:  append([]core.Budget(nil), in.Budgets...),
	}
	for _, rt := range in.Templates {
		l.templates = append(l.templates, cloneTemplate(rt))
	}
	s.owners[ownerID] = l
}
