package analytics

import (
	"testing"

	"budgetly/internal/core"
)

func TestEvaluateThresholds(t *testing.T) {
	limit := core.Money{Cents: 10000}
	tests := []struct {
		name      string
		spend     int64
		want      BudgetStatus
		remaining int64
		overage   int64
	}{
		{"79 under", 7900, StatusUnder, 2100, 0},
		{"80 near", 8000, StatusNear, 2000, 0},
		{"100 near", 10000, StatusNear, 0, 0},
		{"100.01 over", 10001, StatusOver, 0, 1},
		{"zero", 0, StatusUnder, 10000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(core.Money{Cents: tt.spend}, limit)
			if ev.Status != tt.want {
				t.Errorf("Status = %s, want %s", ev.Status, tt.want)
			}
			if ev.Remaining.Cents != tt.remaining || ev.Overage.Cents != tt.overage {
				t.Errorf("Remaining/Overage = %d/%d, want %d/%d", ev.Remaining.Cents, ev.Overage.Cents, tt.remaining, tt.overage)
			}
		})
	}
}

func TestEvaluatePercentageAndZeroLimit(t *testing.T) {
	ev := Evaluate(core.Money{Cents: 5000}, core.Money{Cents: 20000})
	if ev.Percentage != 25 {
		t.Errorf("Percentage = %v, want 25", ev.Percentage)
	}
	ev = Evaluate(core.Money{Cents: 5000}, core.Money{})
	if ev.Status != StatusUnder || ev.Percentage != 0 {
		t.Errorf("zero limit = %+v", ev)
	}
}

func TestCustomNearThreshold(t *testing.T) {
	b := NewBudgetEvaluator(90)
	if got := b.Evaluate(core.Money{Cents: 85}, core.Money{Cents: 100}).Status; got != StatusUnder {
		t.Errorf("85/100 at 90%% = %s, want under", got)
	}
	if got := NewBudgetEvaluator(0).NearLimitPercent; got != DefaultNearLimitPercent {
		t.Errorf("NewBudgetEvaluator(0) threshold = %d", got)
	}
}

func TestEvaluateLargeTotals(t *testing.T) {
	tests := []struct {
		name  string
		spend int64
		limit int64
		want  BudgetStatus
	}{
		{"near", 90_000_000_000_000_000, 100_000_000_000_000_000, StatusNear},
		{"under", 70_000_000_000_000_000, 100_000_000_000_000_000, StatusUnder},
		{"over", 100_000_000_000_000_001, 100_000_000_000_000_000, StatusOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(core.Money{Cents: tt.spend}, core.Money{Cents: tt.limit})
			if ev.Status != tt.want {
				t.Errorf("status = %s, want %s", ev.Status, tt.want)
			}
		})
	}
}

func TestEvaluateBudgetsUsesMonthScope(t *testing.T) {
	in := []core.Expense{
		exp("1", core.Food, 9000, core.NewDate(2024, 5, 3), "may"),
		exp("2", core.Food, 50000, core.NewDate(2024, 4, 3), "april"),
		exp("3", core.Bills, 1000, core.NewDate(2024, 5, 4), "may bill"),
	}
	budgets := []core.Budget{
		core.NewCategoryBudget(core.Bills, core.Money{Cents: 500}),
		core.NewCategoryBudget(core.Food, core.Money{Cents: 10000}),
		core.NewOverallBudget(core.Money{Cents: 20000}),
	}
	r := NewBudgetEvaluator(0).EvaluateBudgets(in, budgets, now)
	if r.Overall == nil || r.Overall.Evaluation.Spend.Cents != 10000 || r.Overall.Evaluation.Status != StatusUnder {
		t.Fatalf("overall = %+v", r.Overall)
	}
	if len(r.Categories) != 2 || r.Categories[0].Budget.Category != core.Food {
		t.Fatalf("categories = %+v", r.Categories)
	}
	if r.Categories[0].Evaluation.Status != StatusNear {
		t.Errorf("Food = %s, want near (April spend excluded)", r.Categories[0].Evaluation.Status)
	}
	if r.Categories[1].Evaluation.Status != StatusOver {
		t.Errorf("Bills = %s, want over", r.Categories[1].Evaluation.Status)
	}
	if len(r.Exceeded()) != 1 {
		t.Errorf("Exceeded() = %d, want 1", len(r.Exceeded()))
	}
}
