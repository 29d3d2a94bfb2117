// Package analytics derives filtered, grouped and aggregated views of a
// ledger. Every function here is pure: inputs are never mutated and no I/O
// is performed.
package analytics

import (
	"sort"
	"strings"
	"time"

	"budgetly/internal/core"
)

// ApplyFilters returns the expenses matching f, most recent first.
// The month view is applied first, then category, date range and search.
// Expenses sharing a date keep their input order.
func ApplyFilters(expenses []core.Expense, f core.ExpenseFilter, now time.Time) []core.Expense {
	year, month, monthScoped := f.MonthView.Month(now)
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))

	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if monthScoped && !inMonth(e.Date, year, month) {
			continue
		}
		if !f.AllCategories() && e.Category != f.Category {
			continue
		}
		if f.StartDate != nil && e.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && e.Date.After(*f.EndDate) {
			continue
		}
		if term != "" && !matchesSearch(e, term) {
			continue
		}
		out = append(out, e)
	}
	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders expenses newest first, stable on ties.
func SortByDateDesc(expenses []core.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
}

// matchesSearch looks at the description, the category name and the amount
// only. Subcategories and custom labels are not searched.
func matchesSearch(e core.Expense, term string) bool {
	return strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(string(e.Category)), term) ||
		strings.Contains(e.Amount.String(), term)
}

func inMonth(d core.Date, year int, month time.Month) bool {
	return d.Year() == year && d.Month() == int(month)
}
