package calendar

import (
	"fmt"
	"slices"

	"github.com/roach88/tradecal/internal/date"
)

// DefaultMaxTraversalDays bounds NextBusinessDay and PreviousBusinessDay.
// Ten years of days; any real exchange has a business day well within it.
const DefaultMaxTraversalDays = 3660

// Calendar is an immutable snapshot of derived holidays, half days and
// weekend weekdays for an inclusive year range. It is only produced by
// Build (or Empty) and is safe for concurrent use.
type Calendar struct {
	firstYear int
	lastYear  int
	built     bool

	holidays map[date.Date]struct{}
	halfDays map[date.Date]struct{}
	weekend  []date.Weekday

	// sorted views, computed once at publish time
	holidayList []date.Date
	halfDayList []date.Date

	maxTraversal int
}

// Empty returns a calendar with no holidays, no half days, no weekend and
// no year range. It is the initial snapshot of a rule set that was never
// populated.
func Empty() *Calendar {
	return &Calendar{
		holidays:     map[date.Date]struct{}{},
		halfDays:     map[date.Date]struct{}{},
		maxTraversal: DefaultMaxTraversalDays,
	}
}

// IsEmpty reports whether the calendar was never built.
func (c *Calendar) IsEmpty() bool {
	return !c.built
}

// FirstYear returns the first year of the build range.
func (c *Calendar) FirstYear() int { return c.firstYear }

// LastYear returns the last year of the build range.
func (c *Calendar) LastYear() int { return c.lastYear }

// Covers reports whether d's year lies inside the build range.
func (c *Calendar) Covers(d date.Date) bool {
	return c.built && d.Year >= c.firstYear && d.Year <= c.lastYear
}

// MaxTraversalDays returns the traversal limit for business-day walks.
func (c *Calendar) MaxTraversalDays() int { return c.maxTraversal }

// Holidays returns the full holidays in ascending order.
func (c *Calendar) Holidays() []date.Date {
	return slices.Clone(c.holidayList)
}

// HalfDays returns the half days in ascending order.
func (c *Calendar) HalfDays() []date.Date {
	return slices.Clone(c.halfDayList)
}

// Weekend returns the weekend weekdays in rule order.
func (c *Calendar) Weekend() []date.Weekday {
	return slices.Clone(c.weekend)
}

// IsWeekend reports whether d falls on a weekend weekday.
func (c *Calendar) IsWeekend(d date.Date) bool {
	return slices.Contains(c.weekend, d.Weekday())
}

// IsHoliday reports whether d is a full holiday.
func (c *Calendar) IsHoliday(d date.Date) bool {
	_, ok := c.holidays[d]
	return ok
}

// IsHalfHoliday reports whether d is a half day.
func (c *Calendar) IsHalfHoliday(d date.Date) bool {
	_, ok := c.halfDays[d]
	return ok
}

// IsBusinessDay reports whether the exchange trades on d. Half days are
// business days.
func (c *Calendar) IsBusinessDay(d date.Date) bool {
	return !c.IsWeekend(d) && !c.IsHoliday(d)
}

// NextBusinessDay returns the first business day strictly after d.
func (c *Calendar) NextBusinessDay(d date.Date) (date.Date, error) {
	return c.walk(d, 1, Forward)
}

// PreviousBusinessDay returns the last business day strictly before d.
func (c *Calendar) PreviousBusinessDay(d date.Date) (date.Date, error) {
	return c.walk(d, -1, Backward)
}

// MustNextBusinessDay is like NextBusinessDay but panics on error.
func (c *Calendar) MustNextBusinessDay(d date.Date) date.Date {
	next, err := c.NextBusinessDay(d)
	if err != nil {
		panic(err)
	}
	return next
}

// MustPreviousBusinessDay is like PreviousBusinessDay but panics on error.
func (c *Calendar) MustPreviousBusinessDay(d date.Date) date.Date {
	prev, err := c.PreviousBusinessDay(d)
	if err != nil {
		panic(err)
	}
	return prev
}

func (c *Calendar) walk(from date.Date, step int, dir Direction) (date.Date, error) {
	cur := from
	for i := 0; i < c.maxTraversal; i++ {
		cur = cur.AddDays(step)
		if c.IsBusinessDay(cur) {
			return cur, nil
		}
	}
	return date.Date{}, &TraversalError{
		From:      from,
		Direction: dir,
		Steps:     c.maxTraversal,
		Limit:     c.maxTraversal,
	}
}

// AddBusinessDays moves n business days from d (backwards for negative n).
// AddBusinessDays(d, 0) returns d unchanged even if d is not a business day.
func (c *Calendar) AddBusinessDays(d date.Date, n int) (date.Date, error) {
	cur := d
	for ; n > 0; n-- {
		next, err := c.NextBusinessDay(cur)
		if err != nil {
			return date.Date{}, err
		}
		cur = next
	}
	for ; n < 0; n++ {
		prev, err := c.PreviousBusinessDay(cur)
		if err != nil {
			return date.Date{}, err
		}
		cur = prev
	}
	return cur, nil
}

// HolidaysBetween returns the full holidays in [from, to], ascending.
func (c *Calendar) HolidaysBetween(from, to date.Date) []date.Date {
	lo, _ := slices.BinarySearchFunc(c.holidayList, from, date.Date.Compare)
	hi, found := slices.BinarySearchFunc(c.holidayList, to, date.Date.Compare)
	if found {
		hi++
	}
	if lo >= hi {
		return nil
	}
	return slices.Clone(c.holidayList[lo:hi])
}

// BusinessDaysBetween counts business days in [from, to]. The span may not
// exceed the traversal limit.
func (c *Calendar) BusinessDaysBetween(from, to date.Date) (int, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("business days between %s and %s: end before start", from, to)
	}
	span := from.DaysUntil(to) + 1
	if span > c.maxTraversal {
		return 0, &TraversalError{From: from, Direction: Forward, Steps: span, Limit: c.maxTraversal}
	}

	n := 0
	for d := from; !d.After(to); d = d.Next() {
		if c.IsBusinessDay(d) {
			n++
		}
	}
	return n, nil
}

// DayStatus classifies a single date.
type DayStatus int

const (
	Open DayStatus = iota
	HalfDay
	Weekend
	Closed
)

var statusNames = [...]string{"open", "half_day", "weekend", "closed"}

func (s DayStatus) String() string {
	if s < Open || s > Closed {
		return fmt.Sprintf("DayStatus(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s DayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status classifies d. A holiday is Closed even when it is also a weekend
// day or a half day.
func (c *Calendar) Status(d date.Date) DayStatus {
	switch {
	case c.IsHoliday(d):
		return Closed
	case c.IsWeekend(d):
		return Weekend
	case c.IsHalfHoliday(d):
		return HalfDay
	default:
		return Open
	}
}
