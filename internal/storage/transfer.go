package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// MigrationResult counts what Migrate copied. Errors holds per-record
// failures; they do not stop the copy.
type MigrationResult struct {
	Expenses  int
	Budgets   int
	Templates int
	Errors    []error
}

// Migrate copies one owner's ledger from src to dst, keeping record ids so
// generated expenses stay linked to their templates.
func Migrate(ctx context.Context, src, dst LedgerStore, ownerID string) (MigrationResult, error) {
	var res MigrationResult

	templates, err := src.ListRecurringTemplates(ctx, ownerID)
	if err != nil {
		return res, fmt.Errorf("list source templates: %w", err)
	}
	for _, rt := range templates {
		if _, err := dst.CreateRecurringTemplate(ctx, ownerID, rt); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("template %s: %w", rt.ID, err))
			continue
		}
		res.Templates++
	}

	expenses, err := src.ListExpenses(ctx, ownerID)
	if err != nil {
		return res, fmt.Errorf("list source expenses: %w", err)
	}
	for _, e := range expenses {
		if _, err := dst.CreateExpense(ctx, ownerID, e); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("expense %s: %w", e.ID, err))
			continue
		}
		res.Expenses++
	}

	budgets, err := src.ListBudgets(ctx, ownerID)
	if err != nil {
		return res, fmt.Errorf("list source budgets: %w", err)
	}
	for _, b := range budgets {
		if _, err := dst.UpsertBudget(ctx, ownerID, b); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("budget %q: %w", b.Category, err))
			continue
		}
		res.Budgets++
	}

	slog.InfoContext(ctx, "Ledger migrated",
		"owner_id", ownerID,
		"expenses", res.Expenses,
		"budgets", res.Budgets,
		"templates", res.Templates,
		"failed", len(res.Errors))
	return res, nil
}
