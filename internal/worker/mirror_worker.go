// Package worker consumes ledger events and keeps the spreadsheet mirror in
// step with the ledger store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/sheets"
	"budgetly/internal/storage"
)

// MirrorWorker applies ledger events to an ExpenseMirror.
type MirrorWorker struct {
	store  storage.LedgerStore
	mirror sheets.ExpenseMirror
}

func NewMirrorWorker(store storage.LedgerStore, mirror sheets.ExpenseMirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// HandleEvent processes a single ledger event from AMQP. Events only carry
// ids, so the current expense is re-read; an expense deleted since the event
// was published is removed from the mirror instead.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if event == nil {
		return errors.New("nil event")
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", event.ID,
		"event_type", event.Type,
		"owner_id", event.OwnerID,
		"expense_id", event.ExpenseID)

	switch event.Type {
	case amqp.ExpenseDeleted:
		return w.remove(ctx, event.OwnerID, event.ExpenseID)
	case amqp.ExpenseCreated, amqp.ExpenseUpdated, amqp.ExpenseGenerated:
		e, err := w.store.GetExpense(ctx, event.OwnerID, event.ExpenseID)
		if errors.Is(err, core.ErrNotFound) {
			return w.remove(ctx, event.OwnerID, event.ExpenseID)
		}
		if err != nil {
			return fmt.Errorf("get expense from storage: %w", err)
		}
		return w.upsert(ctx, event.OwnerID, e)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

func (w *MirrorWorker) upsert(ctx context.Context, ownerID string, e core.Expense) error {
	ref, err := w.mirror.Upsert(ctx, ownerID, e)
	if err != nil {
		return fmt.Errorf("upsert expense to mirror: %w", err)
	}
	slog.InfoContext(ctx, "Successfully mirrored expense",
		"owner_id", ownerID,
		"expense_id", e.ID,
		"sheets_ref", ref,
		"amount_cents", e.Amount.Cents)
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, ownerID, expenseID string) error {
	if err := w.mirror.Remove(ctx, ownerID, expenseID); err != nil {
		return fmt.Errorf("remove expense from mirror: %w", err)
	}
	slog.InfoContext(ctx, "Successfully removed mirrored expense",
		"owner_id", ownerID,
		"expense_id", expenseID)
	return nil
}

// ReconcileResult counts the corrections made by Reconcile.
type ReconcileResult struct {
	Upserted int
	Removed  int
	Errors   int
}

// Reconcile compares the owner's ledger with the mirrored rows and repairs
// any drift. It recovers from events lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context, ownerID string) (ReconcileResult, error) {
	var res ReconcileResult
	lister, ok := w.mirror.(sheets.RowLister)
	if !ok {
		return res, errors.New("mirror cannot list rows")
	}

	expenses, err := w.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return res, fmt.Errorf("list expenses: %w", err)
	}
	rows, err := lister.ListRows(ctx, ownerID)
	if err != nil {
		return res, fmt.Errorf("list mirrored rows: %w", err)
	}

	mirrored := make(map[string]sheets.Row, len(rows))
	for _, r := range rows {
		mirrored[r.ExpenseID] = r
	}

	for _, e := range expenses {
		r, ok := mirrored[e.ID]
		delete(mirrored, e.ID)
		if ok && rowMatches(r, sheets.RowFor(ownerID, e)) {
			continue
		}
		if err := w.upsert(ctx, ownerID, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense during reconcile",
				"expense_id", e.ID, "error", err)
			res.Errors++
			continue
		}
		res.Upserted++
	}

	for id := range mirrored {
		if err := w.remove(ctx, ownerID, id); err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale row during reconcile",
				"expense_id", id, "error", err)
			res.Errors++
			continue
		}
		res.Removed++
	}

	slog.InfoContext(ctx, "Mirror reconcile completed",
		"owner_id", ownerID,
		"expenses", len(expenses),
		"upserted", res.Upserted,
		"removed", res.Removed,
		"errors", res.Errors)

	return res, nil
}

// ReconcileAll reconciles every owner known to the store.
func (w *MirrorWorker) ReconcileAll(ctx context.Context) (ReconcileResult, error) {
	var total ReconcileResult
	lister, ok := w.store.(storage.OwnerLister)
	if !ok {
		return total, errors.New("store cannot enumerate owners")
	}
	owners, err := lister.ListOwners(ctx)
	if err != nil {
		return total, fmt.Errorf("list owners: %w", err)
	}
	for _, owner := range owners {
		res, err := w.Reconcile(ctx, owner)
		if err != nil {
			return total, fmt.Errorf("reconcile %s: %w", owner, err)
		}
		total.Upserted += res.Upserted
		total.Removed += res.Removed
		total.Errors += res.Errors
	}
	return total, nil
}

func rowMatches(a, b sheets.Row) bool {
	return a.ExpenseID == b.ExpenseID &&
		a.OwnerID == b.OwnerID &&
		a.Date.Equal(b.Date) &&
		a.Category == b.Category &&
		a.Subcategory == b.Subcategory &&
		a.Description == b.Description &&
		a.Amount == b.Amount &&
		a.RecurringID == b.RecurringID
}
