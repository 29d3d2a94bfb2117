package analytics

import (
	"time"

	"budgetly/internal/core"
)

// Stats are the aggregate figures shown on the dashboard.
// CategoryBreakdown covers the whole input and always has every category.
type Stats struct {
	TotalSpending     core.Money
	MonthlySpending   core.Money
	CategoryBreakdown map[core.Category]core.Money
	TopCategory       *core.Category
	ExpenseCount      int
	AverageExpense    core.Money
}

// CalculateStats aggregates expenses. MonthlySpending covers the calendar
// month containing now.
func CalculateStats(expenses []core.Expense, now time.Time) Stats {
	s := Stats{
		CategoryBreakdown: emptyBreakdown(),
		ExpenseCount:      len(expenses),
	}
	for _, e := range expenses {
		s.TotalSpending = s.TotalSpending.Add(e.Amount)
		if inMonth(e.Date, now.Year(), now.Month()) {
			s.MonthlySpending = s.MonthlySpending.Add(e.Amount)
		}
		s.CategoryBreakdown[e.Category] = s.CategoryBreakdown[e.Category].Add(e.Amount)
	}
	s.TopCategory = topCategory(s.CategoryBreakdown)
	s.AverageExpense = average(s.TotalSpending, s.ExpenseCount)
	return s
}

// MonthlyCategoryBreakdown sums spend per category for one calendar month.
func MonthlyCategoryBreakdown(expenses []core.Expense, year int, month time.Month) map[core.Category]core.Money {
	out := emptyBreakdown()
	for _, e := range expenses {
		if inMonth(e.Date, year, month) {
			out[e.Category] = out[e.Category].Add(e.Amount)
		}
	}
	return out
}

// MonthTotal sums spend for one calendar month.
func MonthTotal(expenses []core.Expense, year int, month time.Month) core.Money {
	var total core.Money
	for _, e := range expenses {
		if inMonth(e.Date, year, month) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func emptyBreakdown() map[core.Category]core.Money {
	out := make(map[core.Category]core.Money, len(core.Categories()))
	for _, c := range core.Categories() {
		out[c] = core.Money{}
	}
	return out
}

// topCategory scans in enumeration order with a strict comparison, so the
// first category wins a tie. Nil when every total is zero.
func topCategory(breakdown map[core.Category]core.Money) *core.Category {
	var top *core.Category
	var max int64
	for _, c := range core.Categories() {
		if v := breakdown[c].Cents; v > max {
			c := c
			top = &c
			max = v
		}
	}
	return top
}

// average rounds half-up to the cent.
func average(total core.Money, count int) core.Money {
	if count == 0 {
		return core.Money{}
	}
	n := int64(count)
	return core.Money{Cents: (2*total.Cents + n) / (2 * n)}
}
