package analytics

import (
	"testing"
	"time"

	"budgetly/internal/core"
)

func exp(id string, cat core.Category, cents int64, d core.Date, desc string) core.Expense {
	return core.Expense{
		ID:             id,
		Classification: core.Classification{Category: cat},
		Amount:         core.Money{Cents: cents},
		Description:    desc,
		Date:           d,
	}
}

func ids(es []core.Expense) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func equalIDs(t *testing.T, got []core.Expense, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) // Wednesday

func sample() []core.Expense {
	return []core.Expense{
		exp("a", core.Food, 1250, core.NewDate(2024, 5, 2), "Pizza night"),
		exp("b", core.Bills, 150000, core.NewDate(2024, 5, 14), "Rent May"),
		exp("c", core.Food, 800, core.NewDate(2024, 4, 20), "Coffee beans"),
		exp("d", core.Shopping, 4999, core.NewDate(2024, 5, 14), "Shoes"),
		exp("e", core.Transportation, 300, core.NewDate(2023, 12, 31), "Bus"),
	}
}

func TestApplyFiltersNoOp(t *testing.T) {
	in := sample()
	got := ApplyFilters(in, core.ExpenseFilter{Category: core.CategoryAll, MonthView: core.MonthViewAll}, now)
	// b and d share a date and keep input order.
	equalIDs(t, got, "b", "d", "a", "c", "e")
	if in[0].ID != "a" {
		t.Errorf("ApplyFilters mutated its input")
	}
}

func TestApplyFilters(t *testing.T) {
	start := core.NewDate(2024, 4, 1)
	end := core.NewDate(2024, 5, 2)
	tests := []struct {
		name   string
		filter core.ExpenseFilter
		want   []string
	}{
		{"current month", core.ExpenseFilter{MonthView: core.MonthViewCurrent}, []string{"b", "d", "a"}},
		{"specific month", core.ExpenseFilter{MonthView: "2024-04"}, []string{"c"}},
		{"category", core.ExpenseFilter{Category: core.Food}, []string{"a", "c"}},
		{"inclusive range", core.ExpenseFilter{StartDate: &start, EndDate: &end}, []string{"a", "c"}},
		{"open start", core.ExpenseFilter{EndDate: &start}, []string{"e"}},
		{"search description", core.ExpenseFilter{SearchTerm: "PIZZA"}, []string{"a"}},
		{"search category", core.ExpenseFilter{SearchTerm: "bill"}, []string{"b"}},
		{"search amount", core.ExpenseFilter{SearchTerm: "12.5"}, []string{"a"}},
		{"month then category", core.ExpenseFilter{MonthView: core.MonthViewCurrent, Category: core.Food}, []string{"a"}},
		{"nothing", core.ExpenseFilter{SearchTerm: "zzz"}, []string{}},
		{"malformed month", core.ExpenseFilter{MonthView: core.MonthView("2024-13")}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalIDs(t, ApplyFilters(sample(), tt.filter, now), tt.want...)
		})
	}
}

func TestSearchIgnoresSubcategory(t *testing.T) {
	rent := core.Expense{
		ID:             "r",
		Classification: core.Classification{Category: core.Bills, Subcategory: "Rent"},
		Amount:         core.Money{Cents: 1500},
		Description:    "Monthly",
		Date:           core.NewDate(2024, 5, 1),
	}
	other := core.Expense{
		ID:             "o",
		Classification: core.Classification{Category: core.Other, CustomCategory: "Gifts"},
		Amount:         core.Money{Cents: 2000},
		Description:    "Flowers",
		Date:           core.NewDate(2024, 5, 2),
	}
	tests := []struct {
		term string
		want []string
	}{
		{"rent", []string{}},
		{"gifts", []string{}},
		{"monthly", []string{"r"}},
		{"bills", []string{"r"}},
		{"15", []string{"r"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := ApplyFilters([]core.Expense{rent, other}, core.ExpenseFilter{SearchTerm: tt.term}, now)
			equalIDs(t, got, tt.want...)
		})
	}
}

func TestCalculateStatsEmpty(t *testing.T) {
	s := CalculateStats(nil, now)
	if s.ExpenseCount != 0 || s.AverageExpense.Cents != 0 || s.TopCategory != nil {
		t.Fatalf("CalculateStats(nil) = %+v", s)
	}
	if len(s.CategoryBreakdown) != len(core.Categories()) {
		t.Fatalf("breakdown has %d keys, want %d", len(s.CategoryBreakdown), len(core.Categories()))
	}
	for c, v := range s.CategoryBreakdown {
		if v.Cents != 0 {
			t.Errorf("breakdown[%s] = %d, want 0", c, v.Cents)
		}
	}
}

func TestCalculateStatsBreakdown(t *testing.T) {
	d := core.NewDate(2024, 5, 1)
	in := []core.Expense{
		exp("1", core.Food, 10000, d, "x"),
		exp("2", core.Food, 5000, d, "y"),
		exp("3", core.Bills, 20000, d, "z"),
	}
	s := CalculateStats(in, now)
	if s.CategoryBreakdown[core.Food].Cents != 15000 || s.CategoryBreakdown[core.Bills].Cents != 20000 {
		t.Errorf("breakdown = %v", s.CategoryBreakdown)
	}
	if s.CategoryBreakdown[core.EMI].Cents != 0 {
		t.Errorf("breakdown[EMI] = %v, want 0", s.CategoryBreakdown[core.EMI])
	}
	if s.TopCategory == nil || *s.TopCategory != core.Bills {
		t.Errorf("TopCategory = %v, want Bills", s.TopCategory)
	}
	if s.TotalSpending.Cents != 35000 {
		t.Errorf("TotalSpending = %d, want 35000", s.TotalSpending.Cents)
	}
	if s.AverageExpense.Cents != 11667 {
		t.Errorf("AverageExpense = %d, want 11667", s.AverageExpense.Cents)
	}
}

func TestCalculateStatsTieAndMonth(t *testing.T) {
	in := []core.Expense{
		exp("1", core.Shopping, 500, core.NewDate(2024, 5, 3), "x"),
		exp("2", core.Food, 500, core.NewDate(2024, 4, 3), "y"),
	}
	s := CalculateStats(in, now)
	if s.TopCategory == nil || *s.TopCategory != core.Food {
		t.Errorf("TopCategory = %v, want Food (enumeration order)", s.TopCategory)
	}
	if s.MonthlySpending.Cents != 500 {
		t.Errorf("MonthlySpending = %d, want 500", s.MonthlySpending.Cents)
	}
}

func TestGroupForDisplay(t *testing.T) {
	in := []core.Expense{
		exp("tw", core.Food, 100, core.NewDate(2024, 5, 13), "this week"),
		exp("tw2", core.Bills, 200, core.NewDate(2024, 5, 12), "sunday"),
		exp("lw", core.Food, 300, core.NewDate(2024, 5, 8), "last week"),
		exp("early", core.Food, 400, core.NewDate(2024, 5, 1), "first"),
		exp("apr", core.Food, 500, core.NewDate(2024, 4, 30), "april"),
		exp("old", core.Food, 600, core.NewDate(2023, 11, 2), "old"),
		exp("apr2", core.Shopping, 700, core.NewDate(2024, 4, 2), "april 2"),
	}
	v := GroupForDisplay(in, now)

	if len(v.Weeks) != 3 {
		t.Fatalf("weeks = %d, want 3", len(v.Weeks))
	}
	wantLabels := []string{"This Week", "Last Week", "Apr 28 - May 4"}
	for i, w := range v.Weeks {
		if w.Label != wantLabels[i] {
			t.Errorf("week[%d].Label = %q, want %q", i, w.Label, wantLabels[i])
		}
	}
	this := v.Weeks[0]
	if this.Count != 2 || this.Total.Cents != 300 {
		t.Errorf("this week = count %d total %d", this.Count, this.Total.Cents)
	}
	if len(this.Categories) != 2 || this.Categories[0].Category != core.Food || this.Categories[1].Category != core.Bills {
		t.Errorf("this week categories = %+v", this.Categories)
	}

	if len(v.Months) != 2 {
		t.Fatalf("months = %d, want 2", len(v.Months))
	}
	if v.Months[0].Label != "April 2024" || v.Months[1].Label != "November 2023" {
		t.Errorf("month labels = %q, %q", v.Months[0].Label, v.Months[1].Label)
	}
	if v.Months[0].End.String() != "2024-04-30" {
		t.Errorf("April end = %s", v.Months[0].End)
	}
	equalIDs(t, v.Months[0].Categories[0].Expenses, "apr")
	if len(v.Groups()) != 5 {
		t.Errorf("Groups() = %d, want 5", len(v.Groups()))
	}
}

func TestRecentUnique(t *testing.T) {
	d1, d2, d3 := core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 2), core.NewDate(2024, 5, 3)
	in := []core.Expense{
		exp("old-coffee", core.Food, 300, d1, "Coffee"),
		exp("new-coffee", core.Food, 300, d3, "Coffee"),
		exp("bus", core.Transportation, 300, d2, "Bus"),
		exp("big-coffee", core.Food, 500, d2, "Coffee"),
	}
	equalIDs(t, RecentUnique(in, 5), "new-coffee", "bus", "big-coffee")
	equalIDs(t, RecentUnique(in, 1), "new-coffee")
	if RecentUnique(in, 0) != nil {
		t.Errorf("RecentUnique(n=0) should be nil")
	}
}
