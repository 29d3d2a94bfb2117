package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfUsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	ts := time.Date(2024, 3, 1, 2, 0, 0, 0, loc) // still Feb 29 in UTC
	if got := DateOf(ts).String(); got != "2024-03-01" {
		t.Errorf("DateOf() = %s, want 2024-03-01", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func validExpense() Expense {
	return Expense{
		Date:           NewDate(2025, 1, 1),
		Description:    "ok",
		Amount:         Money{Cents: 100},
		Classification: Classification{Category: Food},
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"amount above cap", func(e *Expense) { e.Amount = Money{Cents: MaxAmountCents + 1} }, ErrInvalidAmount},
		{"empty description", func(e *Expense) { e.Description = "   " }, ErrEmptyDescription},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"bad category", func(e *Expense) { e.Category = "Pets" }, ErrInvalidCategory},
		{"bills without subcategory", func(e *Expense) { e.Category = Bills }, ErrMissingSubcategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Errorf("Validate() error %T is not a ValidationError", err)
			}
		})
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	before := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	good := RecurringTemplate{
		Amount:         Money{Cents: 150000},
		Classification: Classification{Category: Bills, Subcategory: "Rent"},
		Description:    "Rent",
		Frequency:      Monthly,
		StartDate:      NewDate(2024, 1, 1),
		IsActive:       true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Frequency = "hourly"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("Validate() = %v, want ErrInvalidFrequency", err)
	}

	bad = good
	bad.LastGenerated = &before
	if err := bad.Validate(); !errors.Is(err, ErrGeneratedBeforeStart) {
		t.Errorf("Validate() = %v, want ErrGeneratedBeforeStart", err)
	}
}

func TestTemplateReference(t *testing.T) {
	rt := RecurringTemplate{StartDate: NewDate(2024, 1, 1)}
	if !rt.Reference().Equal(rt.StartDate.Time) {
		t.Errorf("Reference() = %v, want start date", rt.Reference())
	}
	gen := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	rt.LastGenerated = &gen
	if !rt.Reference().Equal(gen) {
		t.Errorf("Reference() = %v, want %v", rt.Reference(), gen)
	}
}

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name string
		b    Budget
		want error
	}{
		{"overall", NewOverallBudget(Money{Cents: 1000}), nil},
		{"category", NewCategoryBudget(Food, Money{Cents: 1000}), nil},
		{"zero limit", NewCategoryBudget(Food, Money{}), ErrInvalidBudget},
		{"unknown category", NewCategoryBudget("Pets", Money{Cents: 1}), ErrInvalidCategory},
		{"weekly", Budget{Category: Food, Limit: Money{Cents: 1}, Period: "weekly"}, ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMonthView(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in        string
		wantOK    bool
		wantMonth time.Month
		wantErr   bool
	}{
		{"", false, 0, false},
		{"all", false, 0, false},
		{"current", true, time.May, false},
		{"2023-11", true, time.November, false},
		{"2023-13", false, 0, true},
		{"nov", false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseMonthView(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthView(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			_, m, ok := v.Month(now)
			if ok != tt.wantOK || m != tt.wantMonth {
				t.Errorf("Month() = %v,%v want %v,%v", m, ok, tt.wantMonth, tt.wantOK)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	e := validExpense()
	e.ID = "keep"
	desc := "lunch"
	amt := Money{Cents: 999}
	got := ExpensePatch{Description: &desc, Amount: &amt}.Apply(e)
	if got.ID != "keep" || got.Description != "lunch" || got.Amount.Cents != 999 {
		t.Errorf("Apply() = %+v", got)
	}
	if got.Date != e.Date {
		t.Errorf("Apply() changed untouched date")
	}

	paused := false
	rt := RecurringTemplate{IsActive: true}
	if (RecurringTemplatePatch{IsActive: &paused}).Apply(rt).IsActive {
		t.Errorf("Apply() did not pause template")
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := MarkGenerated(at).Apply(rt); got.LastGenerated == nil || !got.LastGenerated.Equal(at) {
		t.Errorf("MarkGenerated() = %v", got.LastGenerated)
	}
}
