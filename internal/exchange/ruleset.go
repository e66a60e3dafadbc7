package exchange

import (
	"log/slog"
	"slices"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/rule"
)

// RuleSet is an ordered, append-only rule list plus the calendar most
// recently built from it.
type RuleSet struct {
	rules    []rule.Rule
	snapshot *calendar.Calendar

	logger       *slog.Logger
	observer     calendar.Observer
	maxTraversal int
}

// Option configures a RuleSet.
type Option func(*options)

type options struct {
	additional   []rule.Rule
	logger       *slog.Logger
	observer     calendar.Observer
	maxTraversal int
}

// WithAdditionalRules appends rules after the initial table.
func WithAdditionalRules(rules ...rule.Rule) Option {
	return func(o *options) {
		o.additional = append(o.additional, rules...)
	}
}

// WithLogger sets the logger passed to calendar builds.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics reports every build to obs.
func WithMetrics(obs calendar.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithMaxTraversalDays sets the traversal limit of built calendars.
func WithMaxTraversalDays(n int) Option {
	return func(o *options) {
		o.maxTraversal = n
	}
}

// New creates a RuleSet holding rules (copied) with an empty snapshot.
func New(rules ...rule.Rule) *RuleSet {
	return NewWithOptions(rules)
}

// NewWithOptions creates a RuleSet from rules followed by any
// WithAdditionalRules, with an empty snapshot.
func NewWithOptions(rules []rule.Rule, opts ...Option) *RuleSet {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	all := make([]rule.Rule, 0, len(rules)+len(o.additional))
	all = append(all, rules...)
	all = append(all, o.additional...)

	return &RuleSet{
		rules:        all,
		snapshot:     calendar.Empty(),
		logger:       logger,
		observer:     o.observer,
		maxTraversal: o.maxTraversal,
	}
}

// WithDefaultRules returns a RuleSet preloaded with USRules and any
// additional rules. If populate is true it is built immediately over the
// default range.
func WithDefaultRules(populate bool, opts ...Option) (*RuleSet, error) {
	s := NewWithOptions(USRules(), opts...)
	if !populate {
		return s, nil
	}
	return s.Populate(nil, nil)
}

// AddRule appends r. The snapshot is unchanged until the next Populate.
func (s *RuleSet) AddRule(r rule.Rule) *RuleSet {
	s.rules = append(s.rules, r)
	return s
}

// Rules returns a copy of the rule list.
func (s *RuleSet) Rules() []rule.Rule {
	return slices.Clone(s.rules)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Snapshot returns the calendar from the last successful Populate, or an
// empty calendar if none.
func (s *RuleSet) Snapshot() *calendar.Calendar {
	return s.snapshot
}

// Populate builds the calendar over [start, end]. Nil bounds default to
// DefaultFirstYear and DefaultLastYear. On error the previous snapshot is
// kept.
func (s *RuleSet) Populate(start, end *int) (*RuleSet, error) {
	first, last := DefaultFirstYear, DefaultLastYear
	if start != nil {
		first = *start
	}
	if end != nil {
		last = *end
	}
	return s.PopulateRange(first, last)
}

// PopulateRange is Populate with explicit bounds.
func (s *RuleSet) PopulateRange(first, last int) (*RuleSet, error) {
	opts := []calendar.BuildOption{
		calendar.WithLogger(s.logger),
		calendar.WithMaxTraversalDays(s.maxTraversal),
	}
	if s.observer != nil {
		opts = append(opts, calendar.WithObserver(s.observer))
	}

	cal, err := calendar.Build(s.rules, first, last, opts...)
	if err != nil {
		return s, err
	}
	s.snapshot = cal

	s.logger.Info("calendar populated",
		"rules", len(s.rules),
		"first", first,
		"last", last,
		"holidays", len(cal.Holidays()),
	)
	return s, nil
}

// Hash returns the content hash of the rule list.
func (s *RuleSet) Hash() (string, error) {
	return rule.Hash(s.rules)
}
