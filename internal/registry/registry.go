// Package registry maps calendar names to built calendars.
//
// Names are NFC-normalized and upper-cased before use, so "us_exchanges"
// and "US_EXCHANGES" name the same calendar. A lookup miss is a modeled
// outcome (ErrNotFound), never a panic.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/rule"
)

// ErrNotFound is returned by Lookup for unknown names.
var ErrNotFound = errors.New("calendar not found")

// Observer receives registry events. *metrics.Metrics implements it.
type Observer interface {
	ObserveLookup(hit bool)
	ObserveRegister(name string, cal *calendar.Calendar)
}

// Registry is a concurrency-safe name -> calendar map.
type Registry struct {
	mu        sync.RWMutex
	calendars map[string]*calendar.Calendar
	hashes    map[string]string // rule hash per name, when known

	logger   *slog.Logger
	observer Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithObserver reports lookups and registrations to o.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		calendars: make(map[string]*calendar.Calendar),
		hashes:    make(map[string]string),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize returns the canonical form of a calendar name.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(name)))
}

// Register stores cal under name, replacing any previous calendar.
func (r *Registry) Register(name string, cal *calendar.Calendar) error {
	return r.register(name, "", cal)
}

// RegisterRules is Register for a calendar built from rules; the rule hash
// is kept and returned by Hash.
func (r *Registry) RegisterRules(name string, rules []rule.Rule, cal *calendar.Calendar) error {
	hash, err := rule.Hash(rules)
	if err != nil {
		return fmt.Errorf("register calendar %s: %w", Normalize(name), err)
	}
	return r.register(name, hash, cal)
}

func (r *Registry) register(name, hash string, cal *calendar.Calendar) error {
	key := Normalize(name)
	if key == "" {
		return fmt.Errorf("register calendar: empty name")
	}
	if cal == nil {
		return fmt.Errorf("register calendar %s: nil calendar", key)
	}

	r.mu.Lock()
	r.calendars[key] = cal
	if hash == "" {
		delete(r.hashes, key)
	} else {
		r.hashes[key] = hash
	}
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.ObserveRegister(key, cal)
	}
	r.logger.Info("calendar registered", "name", key, "first", cal.FirstYear(), "last", cal.LastYear())
	return nil
}

// Lookup returns the calendar registered under name, or ErrNotFound.
func (r *Registry) Lookup(name string) (*calendar.Calendar, error) {
	key := Normalize(name)

	r.mu.RLock()
	cal, ok := r.calendars[key]
	r.mu.RUnlock()

	if r.observer != nil {
		r.observer.ObserveLookup(ok)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return cal, nil
}

// Hash returns the rule hash of the calendar registered under name. It is
// empty for calendars registered without rules.
func (r *Registry) Hash(name string) (string, error) {
	key := Normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.calendars[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.hashes[key], nil
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.calendars))
	for name := range r.calendars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default builds the US exchange calendar (default table plus extra) over
// the default range and registers it as exchange.DefaultCalendarName.
func Default(extra []rule.Rule, opts ...Option) (*Registry, error) {
	r := New(opts...)

	set, err := exchange.WithDefaultRules(true,
		exchange.WithAdditionalRules(extra...),
		exchange.WithLogger(r.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", exchange.DefaultCalendarName, err)
	}
	if err := r.RegisterRules(exchange.DefaultCalendarName, set.Rules(), set.Snapshot()); err != nil {
		return nil, err
	}
	return r, nil
}
