package compiler

import (
	"fmt"
	"time"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

// Validation error codes (E100-E199)
const (
	ErrMonthOutOfRange    = "E101" // month not in 1..12
	ErrDayOutOfRange      = "E102" // day does not exist in month
	ErrLeapDayFixed       = "E103" // Feb 29 fixed date fails in common years
	ErrYearBoundsInverted = "E104" // first > last
	ErrDuplicateWeekend   = "E105" // same weekend weekday twice
	ErrNoWeekend          = "E106" // no WeekDay rule
	ErrInvalidEnum        = "E107" // weekday, nth or half_check out of range
	ErrDuplicateRule      = "E108" // structurally equal rule repeated
)

// ValidationError represents a lint finding on a rule list.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate lints a rule list. Returns all findings (does not fail-fast).
// Findings do not block building; a rule flagged E101-E103 will however make
// calendar.Build fail for the affected years.
func Validate(rules []rule.Rule) []ValidationError {
	v := &validator{weekend: map[date.Weekday]bool{}}
	for i, r := range rules {
		v.index = i
		if r == nil {
			v.add("", ErrInvalidEnum, "nil rule")
			continue
		}
		for j := 0; j < i; j++ {
			if rule.Equal(rules[j], r) {
				v.add("", ErrDuplicateRule, fmt.Sprintf("duplicate of rules[%d]", j))
				break
			}
		}
		_ = r.Accept(v)
	}

	if len(v.weekend) == 0 {
		v.errs = append(v.errs, ValidationError{
			Field:   "rules",
			Message: "no WeekDay rule; every day is a potential business day",
			Code:    ErrNoWeekend,
		})
	}
	return v.errs
}

// ValidateSpec lints a spec: its own range plus its rules.
func ValidateSpec(spec *CalendarSpec) []ValidationError {
	var errs []ValidationError
	if spec.First != nil && spec.Last != nil && *spec.First > *spec.Last {
		errs = append(errs, ValidationError{
			Field:   "first",
			Message: fmt.Sprintf("first year %d after last year %d", *spec.First, *spec.Last),
			Code:    ErrYearBoundsInverted,
		})
	}
	return append(errs, Validate(spec.Rules)...)
}

type validator struct {
	index   int
	weekend map[date.Weekday]bool
	errs    []ValidationError
}

func (v *validator) add(field, code, msg string) {
	path := fmt.Sprintf("rules[%d]", v.index)
	if field != "" {
		path += "." + field
	}
	v.errs = append(v.errs, ValidationError{Field: path, Message: msg, Code: code})
}

func (v *validator) bounds(first, last *int) {
	if first != nil && last != nil && *first > *last {
		v.add("first", ErrYearBoundsInverted, fmt.Sprintf("first year %d after last year %d; rule never applies", *first, *last))
	}
}

func (v *validator) month(m int) bool {
	if m < 1 || m > 12 {
		v.add("month", ErrMonthOutOfRange, fmt.Sprintf("month %d not in 1..12", m))
		return false
	}
	return true
}

func (v *validator) halfCheck(h *rule.HalfCheck) {
	if h != nil && *h != rule.Before && *h != rule.After {
		v.add("half_check", ErrInvalidEnum, fmt.Sprintf("invalid half check %d", int(*h)))
	}
}

func (v *validator) VisitWeekDay(r rule.WeekDay) error {
	if !r.Weekday.Valid() {
		v.add("", ErrInvalidEnum, fmt.Sprintf("invalid weekday %d", int(r.Weekday)))
		return nil
	}
	if v.weekend[r.Weekday] {
		v.add("", ErrDuplicateWeekend, fmt.Sprintf("weekday %s already in weekend", r.Weekday))
	}
	v.weekend[r.Weekday] = true
	return nil
}

func (v *validator) VisitMovableYearlyDay(r rule.MovableYearlyDay) error {
	v.bounds(r.First, r.Last)
	v.halfCheck(r.HalfCheck)
	if !v.month(r.Month) {
		return nil
	}

	m := time.Month(r.Month)
	switch {
	case m == time.February && r.Day == 29:
		v.add("day", ErrLeapDayFixed, "February 29 does not exist in common years; the build fails for them")
	case r.Day < 1 || r.Day > date.DaysIn(2000, m):
		v.add("day", ErrDayOutOfRange, fmt.Sprintf("day %d does not exist in %s", r.Day, m))
	}
	return nil
}

func (v *validator) VisitSingularDay(r rule.SingularDay) error {
	if _, err := date.New(r.Date.Year, r.Date.Month, r.Date.Day); err != nil {
		v.add("", ErrDayOutOfRange, err.Error())
	}
	return nil
}

func (v *validator) VisitEasterOffset(r rule.EasterOffset) error {
	v.bounds(r.First, r.Last)
	return nil
}

func (v *validator) VisitMonthWeekday(r rule.MonthWeekday) error {
	v.bounds(r.First, r.Last)
	v.halfCheck(r.HalfCheck)
	v.month(r.Month)
	if !r.Weekday.Valid() {
		v.add("weekday", ErrInvalidEnum, fmt.Sprintf("invalid weekday %d", int(r.Weekday)))
	}
	if r.Nth < rule.First || r.Nth > rule.Last {
		v.add("nth", ErrInvalidEnum, fmt.Sprintf("invalid nth week %d", int(r.Nth)))
	}
	return nil
}
