// Package sheets defines the spreadsheet mirror that receives a copy of
// every ledger expense.
package sheets

import (
	"context"

	"budgetly/internal/core"
)

// Row is one mirrored expense as stored in the spreadsheet.
type Row struct {
	ExpenseID   string
	OwnerID     string
	Date        core.Date
	Category    string
	Subcategory string
	Description string
	Amount      core.Money
	RecurringID string
}

// RowFor flattens an expense into its mirrored row.
func RowFor(ownerID string, e core.Expense) Row {
	sub := string(e.Subcategory)
	if e.CustomSubcategory != "" {
		sub = e.CustomSubcategory
	}
	cat := string(e.Category)
	if e.CustomCategory != "" {
		cat = e.CustomCategory
	}
	return Row{
		ExpenseID:   e.ID,
		OwnerID:     ownerID,
		Date:        e.Date,
		Category:    cat,
		Subcategory: sub,
		Description: e.Description,
		Amount:      e.Amount,
		RecurringID: e.RecurringID,
	}
}

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps one row per expense id. Both calls are idempotent.
	ExpenseMirror interface {
		Upsert(ctx context.Context, ownerID string, e core.Expense) (rowRef string, err error)
		Remove(ctx context.Context, ownerID, expenseID string) error
	}

	// RowLister returns the mirrored rows of an owner.
	RowLister interface {
		ListRows(ctx context.Context, ownerID string) ([]Row, error)
	}
)
