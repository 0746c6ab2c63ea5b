package core

import (
	"bytes"
	"fmt"
	"time"
)

// DateLayout is the wire format of every calendar day exchanged with the backend.
const DateLayout = "2006-01-02"

// Date is a calendar day stored as midnight UTC. Only the (year, month, day)
// triple is meaningful; comparisons never depend on a time zone.
type Date struct {
	time.Time
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewDate creates a Date from year, month, day. Out of range values are
// normalized the way time.Date does it, so day 30 of February becomes the
// first days of March.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Days that do not exist (2023-02-30)
// are rejected.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, &InvalidDateError{Value: s}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &InvalidDateError{Value: s, Err: err}
	}
	return Date{Time: t}, nil
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

// YearMonth returns the month d belongs to.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: time.Month(d.Month())}
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compare orders two days by (year, month, day): -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year() != o.Year():
		return sign(d.Year() - o.Year())
	case d.Month() != o.Month():
		return sign(d.Month() - o.Month())
	default:
		return sign(d.Day() - o.Day())
	}
}

func (d Date) SameDay(o Date) bool { return d.Compare(o) == 0 }

func (d Date) OnOrBefore(o Date) bool { return d.Compare(o) <= 0 }

func (d Date) OnOrAfter(o Date) bool { return d.Compare(o) >= 0 }

// AddDays moves d by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// FirstOfMonth returns day 1 of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return &InvalidDateError{Value: string(b)}
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the Gregorian day count of the month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Days returns the day count of ym.
func (ym YearMonth) Days() int {
	return DaysInMonth(ym.Year, ym.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// DayBucketIndex extracts the day-of-month of iso for placement into a per-day
// bucket sized to ref. The result is in [1, ref.Days()].
func DayBucketIndex(iso string, ref YearMonth) (int, error) {
	d, err := ParseDate(iso)
	if err != nil {
		return 0, err
	}
	return dayBucket(d, ref)
}

func dayBucket(d Date, ref YearMonth) (int, error) {
	day := d.Day()
	if day > ref.Days() {
		return 0, fmt.Errorf("%w: day %d of %s", ErrDayOutOfBucket, day, ref)
	}
	return day, nil
}

// BucketOf is DayBucketIndex for an already parsed date.
func BucketOf(d Date, ref YearMonth) (int, error) {
	return dayBucket(d, ref)
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewDateRange parses both ends of a range.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

// MonthOf returns [first day, last day] of today's month.
func MonthOf(today Date) DateRange {
	return DateRange{Start: today.FirstOfMonth(), End: today.LastOfMonth()}
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if r.Start.Compare(r.End) > 0 {
		return &EmptyRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Contains reports whether d falls inside the range, both ends included.
func (r DateRange) Contains(d Date) bool {
	return d.OnOrAfter(r.Start) && d.OnOrBefore(r.End)
}

// Equal compares both ends by calendar day.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.SameDay(o.Start) && r.End.SameDay(o.End)
}

// Reference is the month whose length sizes per-day series for the range.
func (r DateRange) Reference() YearMonth {
	return r.Start.YearMonth()
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
