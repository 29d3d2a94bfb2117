package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidDay           = errors.New("invalid day")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidSubcategory   = errors.New("invalid subcategory")
	ErrMissingSubcategory   = errors.New("subcategory required")
	ErrMissingCustomText    = errors.New("custom text required")
	ErrUnexpectedCustomText = errors.New("custom text not allowed")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrGeneratedBeforeStart = errors.New("last generated before start date")
	ErrInvalidPeriod        = errors.New("invalid budget period")
	ErrInvalidMonthView     = errors.New("invalid month view")

	// ErrInvalidBudget is returned when a budget limit is not positive.
	ErrInvalidBudget = errors.New("invalid budget")
	// ErrNotFound is returned when an id does not exist for the owner.
	ErrNotFound = errors.New("not found")
	// ErrStorage matches every StorageError.
	ErrStorage = errors.New("storage failure")
)

// ValidationError reports malformed input rejected before any write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failure of the ledger store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
