package rule

import (
	"fmt"
	"reflect"

	"github.com/roach88/tradecal/internal/date"
)

// Rule is a sealed interface over the holiday generation strategies.
// Only WeekDay, MovableYearlyDay, SingularDay, EasterOffset and MonthWeekday
// implement it.
type Rule interface {
	// Accept dispatches to the visitor method for the concrete variant.
	Accept(v Visitor) error

	// Variant returns the wire key of the variant ("MonthWeekday", ...).
	Variant() string

	rule() // sealed
}

// Visitor handles each rule variant. Adding a variant adds a method here,
// which breaks every implementation until it handles the new case.
type Visitor interface {
	VisitWeekDay(r WeekDay) error
	VisitMovableYearlyDay(r MovableYearlyDay) error
	VisitSingularDay(r SingularDay) error
	VisitEasterOffset(r EasterOffset) error
	VisitMonthWeekday(r MonthWeekday) error
}

// Wire keys for the rule variants.
const (
	KindWeekDay          = "WeekDay"
	KindMovableYearlyDay = "MovableYearlyDay"
	KindSingularDay      = "SingularDay"
	KindEasterOffset     = "EasterOffset"
	KindMonthWeekday     = "MonthWeekday"
)

// WeekDay marks every occurrence of a weekday as a non-trading day
// (for US exchanges, Saturday and Sunday).
type WeekDay struct {
	Weekday date.Weekday
}

// MovableYearlyDay recurs every year on (Month, Day). It is moved to Friday
// when it falls on a Saturday and to Monday when it falls on a Sunday, and it
// is dropped when the moved date is the last day of its month or year.
// First and Last bound the active years inclusively.
type MovableYearlyDay struct {
	Month     int
	Day       int
	First     *int
	Last      *int
	HalfCheck *HalfCheck
}

// SingularDay is a one-off holiday.
type SingularDay struct {
	Date date.Date
}

// EasterOffset is a holiday Offset days from Easter Sunday
// (-2 for Good Friday).
type EasterOffset struct {
	Offset int
	First  *int
	Last   *int
}

// MonthWeekday falls on the Nth (or last) Weekday of Month,
// e.g. the first Monday in September.
type MonthWeekday struct {
	Month     int
	Weekday   date.Weekday
	Nth       NthWeek
	First     *int
	Last      *int
	HalfCheck *HalfCheck
}

func (WeekDay) rule()          {}
func (MovableYearlyDay) rule() {}
func (SingularDay) rule()      {}
func (EasterOffset) rule()     {}
func (MonthWeekday) rule()     {}

func (r WeekDay) Accept(v Visitor) error          { return v.VisitWeekDay(r) }
func (r MovableYearlyDay) Accept(v Visitor) error { return v.VisitMovableYearlyDay(r) }
func (r SingularDay) Accept(v Visitor) error      { return v.VisitSingularDay(r) }
func (r EasterOffset) Accept(v Visitor) error     { return v.VisitEasterOffset(r) }
func (r MonthWeekday) Accept(v Visitor) error     { return v.VisitMonthWeekday(r) }

func (WeekDay) Variant() string          { return KindWeekDay }
func (MovableYearlyDay) Variant() string { return KindMovableYearlyDay }
func (SingularDay) Variant() string      { return KindSingularDay }
func (EasterOffset) Variant() string     { return KindEasterOffset }
func (MonthWeekday) Variant() string     { return KindMonthWeekday }

// NthWeek selects the occurrence of a weekday within a month.
type NthWeek int

const (
	First NthWeek = iota
	Second
	Third
	Fourth
	Last
)

var nthNames = [...]string{"First", "Second", "Third", "Fourth", "Last"}

// String returns the wire name ("Third").
func (n NthWeek) String() string {
	if n < First || n > Last {
		return fmt.Sprintf("NthWeek(%d)", int(n))
	}
	return nthNames[n]
}

// MarshalText implements encoding.TextMarshaler.
func (n NthWeek) MarshalText() ([]byte, error) {
	if n < First || n > Last {
		return nil, fmt.Errorf("invalid nth week %d", int(n))
	}
	return []byte(nthNames[n]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NthWeek) UnmarshalText(text []byte) error {
	for i, name := range nthNames {
		if string(text) == name {
			*n = NthWeek(i)
			return nil
		}
	}
	return fmt.Errorf("unknown nth week %q", string(text))
}

// HalfCheck marks the business day before or after a holiday as a half day.
type HalfCheck int

const (
	Before HalfCheck = iota
	After
)

// String returns the wire name ("Before").
func (h HalfCheck) String() string {
	switch h {
	case Before:
		return "Before"
	case After:
		return "After"
	default:
		return fmt.Sprintf("HalfCheck(%d)", int(h))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h HalfCheck) MarshalText() ([]byte, error) {
	if h != Before && h != After {
		return nil, fmt.Errorf("invalid half check %d", int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HalfCheck) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Before":
		*h = Before
	case "After":
		*h = After
	default:
		return fmt.Errorf("unknown half check %q", string(text))
	}
	return nil
}

// Year returns a pointer to y for the optional First/Last fields.
func Year(y int) *int {
	return &y
}

// Half returns a pointer to h for the optional HalfCheck fields.
func Half(h HalfCheck) *HalfCheck {
	return &h
}

// Equal reports structural equality: same variant and same field values,
// comparing optional fields by value rather than by pointer.
func Equal(a, b Rule) bool {
	return reflect.DeepEqual(a, b)
}

// EqualList reports whether two rule lists are element-wise Equal.
func EqualList(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// YearRange clamps a rule's optional First/Last bounds to [start, end].
// The result may be empty (first > last).
func YearRange(start, end int, first, last *int) (int, int) {
	if first != nil && *first > start {
		start = *first
	}
	if last != nil && *last < end {
		end = *last
	}
	return start, end
}
