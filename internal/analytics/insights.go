package analytics

import (
	"math"
	"sort"
	"time"

	"budgetly/internal/core"
)

type InsightKind string

const (
	InsightTopCategory    InsightKind = "top_category"
	InsightMonthOverMonth InsightKind = "month_over_month"
	InsightPace           InsightKind = "projected_pace"
	InsightDailySpends    InsightKind = "daily_spends"
	InsightEMI            InsightKind = "emi"
	InsightMaintenance    InsightKind = "maintenance"
	InsightFrequency      InsightKind = "transaction_frequency"
	InsightLargeExpenses  InsightKind = "large_expenses"
	InsightInvestments    InsightKind = "investments"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityPositive Severity = "positive"
)

// Insight is the data contract of a dashboard observation. Template names
// the message; Values fills it.
type Insight struct {
	Kind     InsightKind
	Severity Severity
	Priority int
	Template string
	Values   map[string]any
}

const (
	DefaultLargeExpenseFactor = 2.0
	DefaultInsightLimit       = 6
)

// InsightOptions tunes GenerateInsights. Zero values select defaults.
type InsightOptions struct {
	LargeExpenseFactor float64
	Limit              int
}

func (o InsightOptions) withDefaults() InsightOptions {
	if o.LargeExpenseFactor <= 0 {
		o.LargeExpenseFactor = DefaultLargeExpenseFactor
	}
	if o.Limit <= 0 {
		o.Limit = DefaultInsightLimit
	}
	return o
}

// GenerateInsights derives observations from the current and previous
// calendar months, ordered by priority (highest first) and capped at
// opts.Limit.
func GenerateInsights(expenses []core.Expense, now time.Time, opts InsightOptions) []Insight {
	if len(expenses) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	year, month := now.Year(), now.Month()
	prev := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	var current []core.Expense
	for _, e := range expenses {
		if inMonth(e.Date, year, month) {
			current = append(current, e)
		}
	}
	currentTotal := MonthTotal(expenses, year, month)
	lastTotal := MonthTotal(expenses, prev.Year(), prev.Month())
	breakdown := MonthlyCategoryBreakdown(expenses, year, month)

	share := func(m core.Money) float64 {
		if currentTotal.Cents == 0 {
			return 0
		}
		return 100 * float64(m.Cents) / float64(currentTotal.Cents)
	}

	var out []Insight
	add := func(in Insight) { out = append(out, in) }

	if top := topCategory(breakdown); top != nil {
		pct := share(breakdown[*top])
		in := Insight{Kind: InsightTopCategory, Severity: SeverityInfo, Priority: 1, Template: "top_category",
			Values: map[string]any{"category": *top, "amount": breakdown[*top], "percent": round0(pct)}}
		if pct > 40 {
			in.Severity, in.Priority = SeverityWarning, 3
		}
		add(in)
	}

	if lastTotal.Cents > 0 && len(current) > 0 {
		change := 100 * float64(currentTotal.Cents-lastTotal.Cents) / float64(lastTotal.Cents)
		if math.Abs(change) > 5 {
			in := Insight{Kind: InsightMonthOverMonth, Priority: 2,
				Values: map[string]any{"percent": round0(math.Abs(change)), "current": currentTotal, "previous": lastTotal}}
			if change > 0 {
				in.Severity, in.Template = SeverityWarning, "spending_up"
			} else {
				in.Severity, in.Template = SeverityPositive, "spending_down"
			}
			if change > 15 {
				in.Priority = 3
			}
			add(in)
		}
	}

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	daysElapsed := now.Day()
	if len(current) > 0 && daysElapsed > 5 && currentTotal.Cents > 0 {
		projected := currentTotal.Cents * int64(daysInMonth) / int64(daysElapsed)
		paceRatio := float64(daysInMonth) / float64(daysElapsed)
		if paceRatio > 1.3 && float64(projected) > 1.2*float64(currentTotal.Cents) {
			add(Insight{Kind: InsightPace, Severity: SeverityWarning, Priority: 3, Template: "projected_total",
				Values: map[string]any{"projected": core.Money{Cents: projected}, "days_elapsed": daysElapsed, "days_in_month": daysInMonth}})
		}
	}

	if daily := breakdown[core.DailySpends]; daily.Cents > 0 {
		pct := share(daily)
		in := Insight{Kind: InsightDailySpends, Severity: SeverityInfo, Priority: 1, Template: "daily_spends_total",
			Values: map[string]any{"amount": daily, "percent": round0(pct)}}
		if pct > 30 {
			in.Severity, in.Priority, in.Template = SeverityWarning, 2, "daily_spends_share"
		}
		add(in)
	}

	if emi := breakdown[core.EMI]; emi.Cents > 0 {
		name, amount := topEMI(current)
		pct := share(emi)
		in := Insight{Kind: InsightEMI, Severity: SeverityInfo, Priority: 1, Template: "biggest_emi",
			Values: map[string]any{"loan": name, "amount": amount, "percent": round0(pct)}}
		if pct > 40 {
			in.Severity, in.Priority = SeverityWarning, 3
		}
		add(in)
	}

	if m := breakdown[core.Maintenance]; m.Cents > 0 {
		add(Insight{Kind: InsightMaintenance, Severity: SeverityInfo, Priority: 1, Template: "maintenance_total",
			Values: map[string]any{"amount": m, "percent": round0(share(m))}})
	}

	if len(current) > 0 && daysElapsed > 0 {
		perDay := float64(len(current)) / float64(daysElapsed)
		if perDay > 3 {
			add(Insight{Kind: InsightFrequency, Severity: SeverityInfo, Priority: 1, Template: "transactions_per_day",
				Values: map[string]any{"per_day": math.Round(perDay*10) / 10}})
		}
	}

	if len(expenses) > 5 {
		var total core.Money
		for _, e := range expenses {
			total = total.Add(e.Amount)
		}
		threshold := opts.LargeExpenseFactor * float64(total.Cents) / float64(len(expenses))
		large := 0
		for _, e := range current {
			if float64(e.Amount.Cents) > threshold {
				large++
			}
		}
		if large > 0 {
			add(Insight{Kind: InsightLargeExpenses, Severity: SeverityWarning, Priority: 2, Template: "large_expenses",
				Values: map[string]any{"count": large, "threshold": core.Money{Cents: int64(math.Round(threshold))}}})
		}
	}

	if inv := breakdown[core.Investments]; inv.Cents > 0 {
		add(Insight{Kind: InsightInvestments, Severity: SeverityPositive, Priority: 2, Template: "investments_total",
			Values: map[string]any{"amount": inv, "percent": round0(share(inv))}})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// topEMI returns the loan label with the highest spend. Ties keep first seen.
func topEMI(current []core.Expense) (string, core.Money) {
	totals := map[string]core.Money{}
	var order []string
	for _, e := range current {
		if e.Category != core.EMI {
			continue
		}
		key := e.CustomSubcategory
		if key == "" {
			key = string(e.Subcategory)
		}
		if key == "" {
			key = "Unknown"
		}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(e.Amount)
	}
	var best string
	var max core.Money
	for _, k := range order {
		if totals[k].Cents > max.Cents {
			best, max = k, totals[k]
		}
	}
	return best, max
}

func round0(v float64) float64 { return math.Round(v) }
