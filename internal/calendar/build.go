package calendar

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

// BuildStats summarizes one Build call for observers.
type BuildStats struct {
	Rules     int
	FirstYear int
	LastYear  int
	Holidays  int
	HalfDays  int
	Duration  time.Duration
}

// Observer receives the outcome of every Build call. err is nil on success.
// Observers must not influence the result; they exist for metrics.
type Observer interface {
	ObserveBuild(stats BuildStats, err error)
}

type buildConfig struct {
	logger       *slog.Logger
	observer     Observer
	maxTraversal int
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithLogger sets the logger for build diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer for build outcomes.
func WithObserver(o Observer) BuildOption {
	return func(c *buildConfig) {
		c.observer = o
	}
}

// WithMaxTraversalDays sets the traversal limit of the built calendar.
// Values < 1 keep the default.
func WithMaxTraversalDays(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.maxTraversal = n
		}
	}
}

// Build derives a Calendar from rules over the inclusive year range
// [startYear, endYear]. Rules are applied in order. A rule that produces a
// nonexistent date fails the whole build; nothing is skipped.
func Build(rules []rule.Rule, startYear, endYear int, opts ...BuildOption) (*Calendar, error) {
	cfg := buildConfig{
		logger:       slog.Default(),
		maxTraversal: DefaultMaxTraversalDays,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	began := time.Now()
	cal, err := build(rules, startYear, endYear, cfg)

	stats := BuildStats{
		Rules:     len(rules),
		FirstYear: startYear,
		LastYear:  endYear,
		Duration:  time.Since(began),
	}
	if cal != nil {
		stats.Holidays = len(cal.holidayList)
		stats.HalfDays = len(cal.halfDayList)
	}
	if cfg.observer != nil {
		cfg.observer.ObserveBuild(stats, err)
	}

	if err != nil {
		cfg.logger.Debug("calendar build failed", "rules", len(rules), "first", startYear, "last", endYear, "error", err)
		return nil, err
	}
	cfg.logger.Debug("calendar built",
		"rules", stats.Rules,
		"first", startYear,
		"last", endYear,
		"holidays", stats.Holidays,
		"half_days", stats.HalfDays,
	)
	return cal, nil
}

func build(rules []rule.Rule, startYear, endYear int, cfg buildConfig) (*Calendar, error) {
	if startYear > endYear {
		return nil, &BuildError{
			Code:      ErrCodeInvalidRange,
			Message:   fmt.Sprintf("start year %d after end year %d", startYear, endYear),
			RuleIndex: -1,
		}
	}

	b := &builder{
		start:    startYear,
		end:      endYear,
		holidays: map[date.Date]struct{}{},
		halfDays: map[date.Date]struct{}{},
	}
	for i, r := range rules {
		b.index = i
		if r == nil {
			return nil, &BuildError{Code: ErrCodeUnknownRule, Message: "nil rule", RuleIndex: i}
		}
		b.variant = r.Variant()
		if err := r.Accept(b); err != nil {
			return nil, err
		}
	}

	return &Calendar{
		firstYear:    startYear,
		lastYear:     endYear,
		built:        true,
		holidays:     b.holidays,
		halfDays:     b.halfDays,
		weekend:      b.weekend,
		holidayList:  sortedDates(b.holidays),
		halfDayList:  sortedDates(b.halfDays),
		maxTraversal: cfg.maxTraversal,
	}, nil
}

func sortedDates(set map[date.Date]struct{}) []date.Date {
	out := make([]date.Date, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	slices.SortFunc(out, date.Date.Compare)
	return out
}

// builder accumulates into private sets; nothing escapes until build
// publishes the Calendar.
type builder struct {
	start, end int
	index      int
	variant    string

	holidays map[date.Date]struct{}
	halfDays map[date.Date]struct{}
	weekend  []date.Weekday
}

func (b *builder) invalidDate(year int, err error) error {
	return &BuildError{
		Code:      ErrCodeInvalidDate,
		Message:   err.Error(),
		RuleIndex: b.index,
		Variant:   b.variant,
		Year:      year,
		Err:       err,
	}
}

func (b *builder) invalidRule(format string, args ...any) error {
	return &BuildError{
		Code:      ErrCodeInvalidRule,
		Message:   fmt.Sprintf(format, args...),
		RuleIndex: b.index,
		Variant:   b.variant,
	}
}

func (b *builder) VisitWeekDay(r rule.WeekDay) error {
	if !r.Weekday.Valid() {
		return b.invalidRule("invalid weekday %d", int(r.Weekday))
	}
	if !slices.Contains(b.weekend, r.Weekday) {
		b.weekend = append(b.weekend, r.Weekday)
	}
	return nil
}

func (b *builder) VisitSingularDay(r rule.SingularDay) error {
	// Date fields are exported, so rules built in code bypass date.New.
	if _, err := date.New(r.Date.Year, r.Date.Month, r.Date.Day); err != nil {
		return b.invalidDate(r.Date.Year, err)
	}
	if r.Date.Year >= b.start && r.Date.Year <= b.end {
		b.holidays[r.Date] = struct{}{}
	}
	return nil
}

func (b *builder) VisitEasterOffset(r rule.EasterOffset) error {
	first, last := rule.YearRange(b.start, b.end, r.First, r.Last)
	for year := first; year <= last; year++ {
		b.holidays[Easter(year).AddDays(r.Offset)] = struct{}{}
	}
	return nil
}

func (b *builder) VisitMovableYearlyDay(r rule.MovableYearlyDay) error {
	if r.HalfCheck != nil && !validHalfCheck(*r.HalfCheck) {
		return b.invalidRule("invalid half check %d", int(*r.HalfCheck))
	}

	first, last := rule.YearRange(b.start, b.end, r.First, r.Last)
	for year := first; year <= last; year++ {
		d, err := date.New(year, time.Month(r.Month), r.Day)
		if err != nil {
			return b.invalidDate(year, err)
		}

		shifted := false
		switch d.Weekday() {
		case date.Saturday:
			d, shifted = d.Prev(), true
		case date.Sunday:
			d, shifted = d.Next(), true
		}

		if d == d.LastOfMonth() || d == d.LastOfYear() {
			continue
		}
		b.holidays[d] = struct{}{}

		// An observed (moved) holiday never gets an adjacent half day.
		if r.HalfCheck != nil && !shifted {
			b.halfDay(d, *r.HalfCheck)
		}
	}
	return nil
}

func (b *builder) VisitMonthWeekday(r rule.MonthWeekday) error {
	if !r.Weekday.Valid() {
		return b.invalidRule("invalid weekday %d", int(r.Weekday))
	}
	if r.Nth < rule.First || r.Nth > rule.Last {
		return b.invalidRule("invalid nth week %d", int(r.Nth))
	}
	if r.HalfCheck != nil && !validHalfCheck(*r.HalfCheck) {
		return b.invalidRule("invalid half check %d", int(*r.HalfCheck))
	}

	first, last := rule.YearRange(b.start, b.end, r.First, r.Last)
	for year := first; year <= last; year++ {
		d, err := NthWeekday(year, time.Month(r.Month), r.Weekday, r.Nth)
		if err != nil {
			return b.invalidDate(year, err)
		}
		b.holidays[d] = struct{}{}
		if r.HalfCheck != nil {
			b.halfDay(d, *r.HalfCheck)
		}
	}
	return nil
}

// halfDay records the day adjacent to holiday d. The day before a Monday
// and the day after a Friday are weekend days and are never recorded.
func (b *builder) halfDay(d date.Date, check rule.HalfCheck) {
	switch check {
	case rule.Before:
		if d.Weekday() != date.Monday {
			b.halfDays[d.Prev()] = struct{}{}
		}
	case rule.After:
		if d.Weekday() != date.Friday {
			b.halfDays[d.Next()] = struct{}{}
		}
	}
}

func validHalfCheck(h rule.HalfCheck) bool {
	return h == rule.Before || h == rule.After
}

// NthWeekday returns the nth occurrence of wd in the given month. The
// First..Fourth occurrences start from days 1, 8, 15 and 22 and walk
// forward; Last starts from the final day of the month and walks back.
func NthWeekday(year int, month time.Month, wd date.Weekday, nth rule.NthWeek) (date.Date, error) {
	if nth == rule.Last {
		first, err := date.New(year, month, 1)
		if err != nil {
			return date.Date{}, err
		}
		end := first.LastOfMonth()
		back := (int(end.Weekday()) - int(wd) + 7) % 7
		return end.AddDays(-back), nil
	}

	start, err := date.New(year, month, 1+7*int(nth))
	if err != nil {
		return date.Date{}, err
	}
	ahead := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDays(ahead), nil
}
