// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring expense dueness checking.
// Each frequency has its own strategy deciding whether a template that last
// generated at a given instant is due again.
package services

import (
	"fmt"
	"time"

	"budgetly/internal/core"
)

// DuenessChecker is the strategy interface for checking if a template is due.
// lastGenerated is never zero; first generation is decided by IsDue.
type DuenessChecker interface {
	IsDue(lastGenerated, now time.Time) bool
}

// DailyChecker is due once a full day has elapsed.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastGenerated, now time.Time) bool {
	return now.Sub(lastGenerated) >= 24*time.Hour
}

// WeeklyChecker is due once seven full days have elapsed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastGenerated, now time.Time) bool {
	return now.Sub(lastGenerated) >= 7*24*time.Hour
}

// MonthlyChecker is due as soon as now is in a different calendar month,
// so the 31st followed by the 1st is due after one day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastGenerated, now time.Time) bool {
	last := lastGenerated.In(now.Location())
	return last.Year() != now.Year() || last.Month() != now.Month()
}

// YearlyChecker is due as soon as now is in a different calendar year.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastGenerated, now time.Time) bool {
	return lastGenerated.In(now.Location()).Year() != now.Year()
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// IsDue decides whether rt should materialize at now. A template that has
// never generated is due from its start date on. A marker in the future is
// never due.
func IsDue(rt core.RecurringTemplate, now time.Time) (bool, error) {
	checker, err := GetDuenessChecker(rt.Frequency)
	if err != nil {
		return false, err
	}
	if !rt.IsActive {
		return false, nil
	}
	if rt.LastGenerated == nil {
		return !core.DateOf(now).Before(rt.StartDate), nil
	}
	if now.Before(*rt.LastGenerated) {
		return false, nil
	}
	return checker.IsDue(*rt.LastGenerated, now), nil
}
