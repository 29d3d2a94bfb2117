package core

import (
	"fmt"
	"strings"
	"time"
)

// PeriodMonthly is the only budget period.
const PeriodMonthly = "monthly"

// Budget is a spending ceiling. An empty Category marks the overall budget.
type Budget struct {
	Category Category
	Limit    Money
	Period   string
}

// NewCategoryBudget returns a monthly budget for c.
func NewCategoryBudget(c Category, limit Money) Budget {
	return Budget{Category: c, Limit: limit, Period: PeriodMonthly}
}

// NewOverallBudget returns the monthly overall budget.
func NewOverallBudget(limit Money) Budget {
	return Budget{Limit: limit, Period: PeriodMonthly}
}

func (b Budget) IsOverall() bool { return b.Category == "" }

func (b Budget) Validate() error {
	if b.Limit.Cents <= 0 {
		return &ValidationError{Field: "limit", Err: ErrInvalidBudget}
	}
	if !b.IsOverall() && !b.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	if b.Period != PeriodMonthly {
		return &ValidationError{Field: "period", Err: ErrInvalidPeriod}
	}
	return nil
}

// MonthView selects which calendar month a filter keeps.
type MonthView string

const (
	MonthViewAll     MonthView = "all"
	MonthViewCurrent MonthView = "current"
)

// ParseMonthView accepts "all", "current", or YYYY-MM. Empty means all.
func ParseMonthView(s string) (MonthView, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", string(MonthViewAll):
		return MonthViewAll, nil
	case string(MonthViewCurrent):
		return MonthViewCurrent, nil
	}
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", &ValidationError{Field: "month_view", Err: ErrInvalidMonthView}
	}
	return MonthView(s), nil
}

// Month resolves the view to a year and month relative to now.
// ok is false for the all view. A malformed YYYY-MM view scopes to month 0,
// which matches no date; build views with ParseMonthView to reject them.
func (v MonthView) Month(now time.Time) (year int, month time.Month, ok bool) {
	switch v {
	case "", MonthViewAll:
		return 0, 0, false
	case MonthViewCurrent:
		return now.Year(), now.Month(), true
	}
	t, err := time.Parse("2006-01", string(v))
	if err != nil {
		return 0, 0, true
	}
	return t.Year(), t.Month(), true
}

// MonthViewOf returns the YYYY-MM view for the given month.
func MonthViewOf(year int, month time.Month) MonthView {
	return MonthView(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ExpenseFilter selects a subset of the ledger. Zero values are no-ops.
type ExpenseFilter struct {
	Category   Category
	StartDate  *Date
	EndDate    *Date
	SearchTerm string
	MonthView  MonthView
}

// AllCategories reports whether the category selector passes everything.
func (f ExpenseFilter) AllCategories() bool {
	return f.Category == "" || f.Category == CategoryAll
}
