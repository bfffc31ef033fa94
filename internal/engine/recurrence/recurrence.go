// Package recurrence decides which checklist templates are due on a calendar date.
//
// Dates are plain calendar dates (year, month, day). Nothing here looks at a clock
// or a time zone, so a date can never drift across midnight.
package recurrence

import (
	"fmt"
	"time"
)

// Kind is the recurrence kind of a template.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
	OneTime Kind = "one_time"
)

// RecurringKinds are the kinds the materializer handles. one_time is only ever assigned explicitly.
var RecurringKinds = []Kind{Daily, Weekly, Monthly, Yearly}

// ParseKind validates a stored or user supplied kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Daily, Weekly, Monthly, Yearly, OneTime:
		return k, nil
	default:
		return "", &InvalidRuleError{Field: "period_type", Message: fmt.Sprintf("period_type must be one of daily, weekly, monthly, yearly, one_time (got %q)", s)}
	}
}

// Recurring reports whether occurrences of k are materialized automatically.
func (k Kind) Recurring() bool {
	return k == Daily || k == Weekly || k == Monthly || k == Yearly
}

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD. Non-existent dates such as 2023-02-29 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &InvalidRuleError{Field: "date", Message: fmt.Sprintf("date must be YYYY-MM-DD (got %q)", s)}
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustDate builds a Date from components and panics if they do not name a real day.
func MustDate(year int, month time.Month, day int) Date {
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		panic(fmt.Sprintf("recurrence: invalid date %04d-%02d-%02d", year, month, day))
	}
	return d
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Valid reports whether the components name a day that exists.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= DaysIn(d.Year, d.Month)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday numbers days 0 (Sunday) through 6 (Saturday).
func (d Date) Weekday() int {
	return int(d.civil().Weekday())
}

// AddDays steps the calendar by n days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.civil().AddDate(0, 0, n))
}

func (d Date) civil() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Rule is the recurrence part of a template. Only the parameters of Kind are set.
type Rule struct {
	Kind       Kind
	DayOfWeek  *int
	DayOfMonth *int
	RecurMonth *int
	RecurDay   *int
}

// InvalidRuleError reports a malformed rule or date.
type InvalidRuleError struct {
	Field   string
	Message string
}

func (e *InvalidRuleError) Error() string { return e.Message }

// Normalize clears parameters that do not belong to the kind.
func (r Rule) Normalize() Rule {
	out := Rule{Kind: r.Kind}
	switch r.Kind {
	case Weekly:
		out.DayOfWeek = r.DayOfWeek
	case Monthly:
		out.DayOfMonth = r.DayOfMonth
	case Yearly:
		out.RecurMonth = r.RecurMonth
		out.RecurDay = r.RecurDay
	}
	return out
}

// Validate checks that exactly the parameters required by the kind are present and in range.
func (r Rule) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r != r.Normalize() {
		return &InvalidRuleError{Field: "period_type", Message: fmt.Sprintf("%s templates take no other recurrence parameters", r.Kind)}
	}
	switch r.Kind {
	case Weekly:
		if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return &InvalidRuleError{Field: "day_of_week", Message: "day_of_week required for weekly (0=Sun, 1=Mon, ... 6=Sat)"}
		}
	case Monthly:
		if r.DayOfMonth == nil || *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return &InvalidRuleError{Field: "day_of_month", Message: "day_of_month required for monthly (1-31)"}
		}
	case Yearly:
		if r.RecurMonth == nil || *r.RecurMonth < 1 || *r.RecurMonth > 12 {
			return &InvalidRuleError{Field: "recur_month", Message: "recur_month (1-12) required for yearly"}
		}
		if r.RecurDay == nil || *r.RecurDay < 1 || *r.RecurDay > 31 {
			return &InvalidRuleError{Field: "recur_day", Message: "recur_day (1-31) required for yearly"}
		}
	}
	return nil
}

// IsDue reports whether a template with rule r has an occurrence on d.
//
// Monthly and yearly rules naming a day the month lacks (31 in April, Feb 29 in a
// common year) simply do not fire that month; there is no last-day fallback.
func IsDue(r Rule, d Date) bool {
	switch r.Kind {
	case Daily:
		return true
	case Weekly:
		return r.DayOfWeek != nil && d.Weekday() == *r.DayOfWeek
	case Monthly:
		return r.DayOfMonth != nil && d.Day == *r.DayOfMonth
	case Yearly:
		return r.RecurMonth != nil && r.RecurDay != nil &&
			int(d.Month) == *r.RecurMonth && d.Day == *r.RecurDay
	default:
		return false
	}
}
