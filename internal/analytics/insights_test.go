package analytics

import (
	"testing"
	"time"

	"budgetly/internal/core"
)

func findInsight(in []Insight, k InsightKind) *Insight {
	for i := range in {
		if in[i].Kind == k {
			return &in[i]
		}
	}
	return nil
}

func TestGenerateInsightsEmpty(t *testing.T) {
	if got := GenerateInsights(nil, now, InsightOptions{}); got != nil {
		t.Errorf("GenerateInsights(nil) = %v", got)
	}
}

func TestGenerateInsights(t *testing.T) {
	may := func(d int) core.Date { return core.NewDate(2024, 5, d) }
	in := []core.Expense{
		exp("1", core.Food, 60000, may(2), "big dinner"),
		exp("2", core.DailySpends, 5000, may(3), "veg"),
		exp("3", core.Investments, 10000, may(4), "sip"),
		exp("4", core.Food, 1000, core.NewDate(2024, 4, 10), "april"),
		exp("5", core.Food, 1000, core.NewDate(2024, 4, 11), "april"),
		exp("6", core.Food, 1000, core.NewDate(2024, 4, 12), "april"),
	}
	in = append(in, core.Expense{
		ID:             "7",
		Classification: core.Classification{Category: core.EMI, Subcategory: "Home Loan"},
		Amount:         core.Money{Cents: 20000},
		Description:    "home",
		Date:           may(5),
	})

	got := GenerateInsights(in, now, InsightOptions{})
	if len(got) > DefaultInsightLimit {
		t.Fatalf("len = %d, want <= %d", len(got), DefaultInsightLimit)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Priority > got[i-1].Priority {
			t.Fatalf("insights not ordered by priority: %+v", got)
		}
	}

	top := findInsight(got, InsightTopCategory)
	if top == nil || top.Values["category"] != core.Food || top.Severity != SeverityWarning {
		t.Errorf("top category insight = %+v", top)
	}
	mom := findInsight(got, InsightMonthOverMonth)
	if mom == nil || mom.Template != "spending_up" || mom.Priority != 3 {
		t.Errorf("month over month insight = %+v", mom)
	}
	if findInsight(got, InsightLargeExpenses) == nil {
		t.Errorf("expected a large expense insight")
	}
	if inv := findInsight(got, InsightInvestments); inv == nil || inv.Severity != SeverityPositive {
		t.Errorf("investments insight = %+v", inv)
	}
}

func TestGenerateInsightsLimitAndEMI(t *testing.T) {
	d := core.NewDate(2024, 5, 2)
	in := []core.Expense{
		{ID: "1", Classification: core.Classification{Category: core.EMI, Subcategory: "Home Loan"}, Amount: core.Money{Cents: 300}, Description: "h", Date: d},
		{ID: "2", Classification: core.Classification{Category: core.EMI, Subcategory: "Others", CustomSubcategory: "Phone"}, Amount: core.Money{Cents: 500}, Description: "p", Date: d},
	}
	got := GenerateInsights(in, now, InsightOptions{Limit: 1})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	all := GenerateInsights(in, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), InsightOptions{})
	emi := findInsight(all, InsightEMI)
	if emi == nil || emi.Values["loan"] != "Phone" {
		t.Errorf("emi insight = %+v", emi)
	}
}
