package analytics

import "budgetly/internal/core"

// RecentUnique returns up to n of the most recent expenses, skipping any
// whose category, description and amount repeat a newer one. Used to offer
// quick-add shortcuts.
func RecentUnique(expenses []core.Expense, n int) []core.Expense {
	if n <= 0 {
		return nil
	}
	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	SortByDateDesc(sorted)

	type key struct {
		category    core.Category
		description string
		cents       int64
	}
	seen := map[key]bool{}
	var out []core.Expense
	for _, e := range sorted {
		k := key{e.Category, e.Description, e.Amount.Cents}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
		if len(out) == n {
			break
		}
	}
	return out
}
