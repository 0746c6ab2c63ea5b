package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate marks a date string that is not a valid YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("invalid date")
	// ErrConfigNotReady is returned when a balance is requested before the
	// salary configuration has been loaded.
	ErrConfigNotReady = errors.New("salary configuration not ready")
	// ErrEmptyRange is returned when a range starts after it ends.
	ErrEmptyRange = errors.New("empty date range")
	// ErrDayOutOfBucket is returned when a day-of-month does not exist in the
	// reference month used for bucketing (e.g. the 31st against February).
	ErrDayOutOfBucket = errors.New("day outside reference month")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidDay       = errors.New("invalid day of month")
)

// InvalidDateError reports the offending input. It matches ErrInvalidDate
// with errors.Is.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}

func (e *InvalidDateError) Is(target error) bool { return target == ErrInvalidDate }

func (e *InvalidDateError) Unwrap() error { return e.Err }

// EmptyRangeError is returned by aggregations handed a range whose start is
// after its end. It matches ErrEmptyRange with errors.Is.
type EmptyRangeError struct {
	Start Date
	End   Date
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("empty date range: start %s is after end %s", e.Start, e.End)
}

func (e *EmptyRangeError) Is(target error) bool { return target == ErrEmptyRange }
