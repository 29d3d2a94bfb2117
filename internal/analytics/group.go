package analytics

import (
	"fmt"
	"sort"
	"time"

	"budgetly/internal/core"
)

type GroupKind string

const (
	GroupWeek  GroupKind = "week"
	GroupMonth GroupKind = "month"
)

// CategoryGroup holds one category's expenses inside a bucket.
type CategoryGroup struct {
	Category core.Category
	Expenses []core.Expense
	Total    core.Money
}

// Group is one display bucket: a Sunday-start week of the current month,
// or a calendar month otherwise.
type Group struct {
	Kind       GroupKind
	Label      string
	Start      core.Date
	End        core.Date
	Total      core.Money
	Count      int
	Categories []CategoryGroup
}

// GroupedView is the two-tier grouping: weeks for the current month, then
// months for everything else. Both lists are newest first.
type GroupedView struct {
	Weeks  []Group
	Months []Group
}

// Groups returns weeks followed by months.
func (v GroupedView) Groups() []Group {
	out := make([]Group, 0, len(v.Weeks)+len(v.Months))
	out = append(out, v.Weeks...)
	return append(out, v.Months...)
}

// GroupForDisplay partitions expenses for the list screen.
func GroupForDisplay(expenses []core.Expense, now time.Time) GroupedView {
	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	SortByDateDesc(sorted)

	thisWeek := weekStart(core.DateOf(now))
	lastWeek := core.Date{Time: thisWeek.AddDate(0, 0, -7)}

	weeks := map[core.Date][]core.Expense{}
	months := map[core.Date][]core.Expense{}
	for _, e := range sorted {
		if inMonth(e.Date, now.Year(), now.Month()) {
			k := weekStart(e.Date)
			weeks[k] = append(weeks[k], e)
			continue
		}
		k := core.NewDate(e.Date.Year(), e.Date.Month(), 1)
		months[k] = append(months[k], e)
	}

	var view GroupedView
	for _, start := range sortedKeysDesc(weeks) {
		end := core.Date{Time: start.AddDate(0, 0, 6)}
		label := fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2"))
		switch {
		case start.Equal(thisWeek):
			label = "This Week"
		case start.Equal(lastWeek):
			label = "Last Week"
		}
		view.Weeks = append(view.Weeks, newGroup(GroupWeek, label, start, end, weeks[start]))
	}
	for _, start := range sortedKeysDesc(months) {
		end := core.Date{Time: start.AddDate(0, 1, -1)}
		view.Months = append(view.Months, newGroup(GroupMonth, start.Format("January 2006"), start, end, months[start]))
	}
	return view
}

func newGroup(kind GroupKind, label string, start, end core.Date, expenses []core.Expense) Group {
	g := Group{Kind: kind, Label: label, Start: start, End: end, Count: len(expenses)}
	byCat := map[core.Category]*CategoryGroup{}
	for _, e := range expenses {
		g.Total = g.Total.Add(e.Amount)
		cg, ok := byCat[e.Category]
		if !ok {
			cg = &CategoryGroup{Category: e.Category}
			byCat[e.Category] = cg
		}
		cg.Expenses = append(cg.Expenses, e)
		cg.Total = cg.Total.Add(e.Amount)
	}
	for _, c := range core.Categories() {
		if cg, ok := byCat[c]; ok {
			g.Categories = append(g.Categories, *cg)
		}
	}
	return g
}

func weekStart(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, -int(d.Weekday()))}
}

func sortedKeysDesc(m map[core.Date][]core.Expense) []core.Date {
	keys := make([]core.Date, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].After(keys[j]) })
	return keys
}
