package core

import "time"

// ExpensePatch carries the fields of a partial expense update.
// Nil fields are left untouched.
type ExpensePatch struct {
	Amount         *Money
	Classification *Classification
	Description    *string
	Date           *Date
}

// Apply returns e with the patch fields applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Classification != nil {
		e.Classification = *p.Classification
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	return e
}

func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Classification == nil && p.Description == nil && p.Date == nil
}

// RecurringTemplatePatch carries the fields of a partial template update.
type RecurringTemplatePatch struct {
	Amount         *Money
	Classification *Classification
	Description    *string
	Frequency      *Frequency
	StartDate      *Date
	LastGenerated  *time.Time
	IsActive       *bool
}

// Apply returns rt with the patch fields applied.
func (p RecurringTemplatePatch) Apply(rt RecurringTemplate) RecurringTemplate {
	if p.Amount != nil {
		rt.Amount = *p.Amount
	}
	if p.Classification != nil {
		rt.Classification = *p.Classification
	}
	if p.Description != nil {
		rt.Description = *p.Description
	}
	if p.Frequency != nil {
		rt.Frequency = *p.Frequency
	}
	if p.StartDate != nil {
		rt.StartDate = *p.StartDate
	}
	if p.LastGenerated != nil {
		t := *p.LastGenerated
		rt.LastGenerated = &t
	}
	if p.IsActive != nil {
		rt.IsActive = *p.IsActive
	}
	return rt
}

// MarkGenerated returns a patch advancing the last generated marker.
func MarkGenerated(at time.Time) RecurringTemplatePatch {
	return RecurringTemplatePatch{LastGenerated: &at}
}
