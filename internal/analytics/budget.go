package analytics

import (
	"math/bits"
	"time"

	"budgetly/internal/core"
)

type BudgetStatus string

const (
	StatusUnder BudgetStatus = "under"
	StatusNear  BudgetStatus = "near"
	StatusOver  BudgetStatus = "over"
)

// DefaultNearLimitPercent is the share of a limit at which a budget turns near.
const DefaultNearLimitPercent = 80

// Evaluation is the outcome of comparing spend to a limit.
// Exactly one of Remaining and Overage is non-zero unless spend equals limit.
type Evaluation struct {
	Status     BudgetStatus
	Percentage float64
	Spend      core.Money
	Limit      core.Money
	Remaining  core.Money
	Overage    core.Money
}

// BudgetEvaluator compares spend with budget limits.
type BudgetEvaluator struct {
	NearLimitPercent int
}

// NewBudgetEvaluator returns an evaluator, falling back to the default
// threshold when nearPercent is outside (0, 100].
func NewBudgetEvaluator(nearPercent int) BudgetEvaluator {
	if nearPercent <= 0 || nearPercent > 100 {
		nearPercent = DefaultNearLimitPercent
	}
	return BudgetEvaluator{NearLimitPercent: nearPercent}
}

// Evaluate uses the default near threshold.
func Evaluate(spend, limit core.Money) Evaluation {
	return NewBudgetEvaluator(DefaultNearLimitPercent).Evaluate(spend, limit)
}

// Evaluate classifies spend against limit using integer cents. A
// non-positive limit yields an under evaluation at 0%; such budgets are
// rejected when created.
func (b BudgetEvaluator) Evaluate(spend, limit core.Money) Evaluation {
	ev := Evaluation{Status: StatusUnder, Spend: spend, Limit: limit}
	if limit.Cents <= 0 {
		return ev
	}
	near := b.NearLimitPercent
	if near <= 0 {
		near = DefaultNearLimitPercent
	}

	ev.Percentage = 100 * float64(spend.Cents) / float64(limit.Cents)
	switch {
	case spend.Cents > limit.Cents:
		ev.Status = StatusOver
		ev.Overage = core.Money{Cents: spend.Cents - limit.Cents}
	case atLeastShare(spend.Cents, limit.Cents, near):
		ev.Status = StatusNear
		ev.Remaining = core.Money{Cents: limit.Cents - spend.Cents}
	default:
		ev.Remaining = core.Money{Cents: limit.Cents - spend.Cents}
	}
	return ev
}

// BudgetResult pairs a budget with its evaluation.
type BudgetResult struct {
	Budget     core.Budget
	Evaluation Evaluation
}

// BudgetReport evaluates every budget of an owner for the current month.
type BudgetReport struct {
	Overall    *BudgetResult
	Categories []BudgetResult
}

// Exceeded returns the budgets that are over their limit.
func (r BudgetReport) Exceeded() []BudgetResult {
	var out []BudgetResult
	if r.Overall != nil && r.Overall.Evaluation.Status == StatusOver {
		out = append(out, *r.Overall)
	}
	for _, c := range r.Categories {
		if c.Evaluation.Status == StatusOver {
			out = append(out, c)
		}
	}
	return out
}

// EvaluateBudgets compares the overall budget with the current month's
// spending and each category budget with that category's spend in the
// current month. Categories are reported in enumeration order.
func (b BudgetEvaluator) EvaluateBudgets(expenses []core.Expense, budgets []core.Budget, now time.Time) BudgetReport {
	year, month := now.Year(), now.Month()
	breakdown := MonthlyCategoryBreakdown(expenses, year, month)

	var report BudgetReport
	byCat := map[core.Category]core.Budget{}
	for _, bg := range budgets {
		if bg.IsOverall() {
			r := BudgetResult{Budget: bg, Evaluation: b.Evaluate(MonthTotal(expenses, year, month), bg.Limit)}
			report.Overall = &r
			continue
		}
		byCat[bg.Category] = bg
	}
	for _, c := range core.Categories() {
		bg, ok := byCat[c]
		if !ok {
			continue
		}
		report.Categories = append(report.Categories, BudgetResult{Budget: bg, Evaluation: b.Evaluate(breakdown[c], bg.Limit)})
	}
	return report
}

// atLeastShare reports spend*100 >= limit*percent for non-negative values,
// using 128-bit products so large ledgers cannot overflow.
func atLeastShare(spend, limit int64, percent int) bool {
	if spend <= 0 {
		return false
	}
	hiS, loS := bits.Mul64(uint64(spend), 100)
	hiL, loL := bits.Mul64(uint64(limit), uint64(percent))
	return hiS > hiL || (hiS == hiL && loS >= loL)
}
