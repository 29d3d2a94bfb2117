package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// MaxDescriptionLength bounds expense and template descriptions.
const MaxDescriptionLength = 200

// MaxAmountCents bounds a single amount (one billion units) so that ledger
// sums stay far from int64 overflow.
const MaxAmountCents int64 = 100_000_000_000

type (
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single ledger entry. RecurringID is set when the entry was
	// materialized from a RecurringTemplate.
	Expense struct {
		ID string
		Classification
		Amount      Money
		Description string
		Date        Date
		CreatedAt   time.Time
		RecurringID string
	}

	// RecurringTemplate is a rule for periodic expense generation.
	// LastGenerated is nil until the first materialization.
	RecurringTemplate struct {
		ID string
		Classification
		Amount        Money
		Description   string
		Frequency     Frequency
		StartDate     Date
		LastGenerated *time.Time
		IsActive      bool
		CreatedAt     time.Time
	}
)

// Frequencies returns the supported recurrence frequencies.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Monthly, Yearly}
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return DateOf(t), nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	return e.Classification.Validate()
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := validateDescription(rt.Description); err != nil {
		return err
	}
	if !rt.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Err: ErrInvalidFrequency}
	}
	if err := rt.StartDate.Validate(); err != nil {
		return &ValidationError{Field: "start_date", Err: err}
	}
	if rt.LastGenerated != nil && DateOf(*rt.LastGenerated).Before(rt.StartDate) {
		return &ValidationError{Field: "last_generated", Err: ErrGeneratedBeforeStart}
	}
	return rt.Classification.Validate()
}

// Reference returns the instant the next due check is measured from.
func (rt RecurringTemplate) Reference() time.Time {
	if rt.LastGenerated != nil {
		return *rt.LastGenerated
	}
	return rt.StartDate.Time
}
