// Package storage defines the ledger store contract and its SQL backend.
// Alternative backends live in the memory and filestore subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"budgetly/internal/core"
)

// LedgerStore is the per-owner persistence contract of the ledger.
// Implementations must be safe for concurrent use and apply each call
// completely or not at all.
type LedgerStore interface {
	ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	CreateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, ownerID, id string, p core.ExpensePatch) (core.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) error

	ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	UpsertBudget(ctx context.Context, ownerID string, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, ownerID string, category core.Category) error

	ListRecurringTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error)
	GetRecurringTemplate(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error)
	CreateRecurringTemplate(ctx context.Context, ownerID string, rt core.RecurringTemplate) (core.RecurringTemplate, error)
	UpdateRecurringTemplate(ctx context.Context, ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error)
	DeleteRecurringTemplate(ctx context.Context, ownerID, id string) error

	Close() error
}

// Materializer is implemented by stores that can create a generated expense
// and advance its template's marker in one atomic step.
type Materializer interface {
	Materialize(ctx context.Context, ownerID string, e core.Expense, templateID string, generatedAt time.Time) (core.Expense, error)
}

// OwnerLister is implemented by stores that can enumerate their owners.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// PrepareExpense assigns an id and creation time when missing.
func PrepareExpense(e core.Expense, now time.Time) core.Expense {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	return e
}

// PrepareTemplate assigns an id and creation time when missing.
func PrepareTemplate(rt core.RecurringTemplate, now time.Time) core.RecurringTemplate {
	if rt.ID == "" {
		rt.ID = NewID()
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now.UTC()
	}
	return rt
}

// Wrap turns a backend failure into a StorageError, leaving not-found and
// validation errors untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNotFound) || core.IsValidation(err) || errors.Is(err, core.ErrStorage) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}
