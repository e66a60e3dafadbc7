package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

// Scenario defines a calendar scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// First and Last bound the build range (inclusive).
	First int `yaml:"first"`
	Last  int `yaml:"last"`

	// DefaultRules starts from the default US exchange table.
	// Rules are appended after it.
	DefaultRules bool `yaml:"default_rules,omitempty"`

	// Rules in the JSON wire shape, e.g. {MovableYearlyDay: {month: 7, day: 4}}.
	Rules []any `yaml:"rules,omitempty"`

	// ExpectError is the BuildErrorCode the build must fail with.
	// Checks are not evaluated when set.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Checks are evaluated in order against the built calendar.
	Checks []Check `yaml:"checks,omitempty"`
}

// Check asserts facts about one date. Unset fields are not checked.
type Check struct {
	Date        date.Date  `yaml:"date"`
	Holiday     *bool      `yaml:"holiday,omitempty"`
	HalfDay     *bool      `yaml:"half_day,omitempty"`
	Weekend     *bool      `yaml:"weekend,omitempty"`
	BusinessDay *bool      `yaml:"business_day,omitempty"`
	Status      string     `yaml:"status,omitempty"`
	Next        *date.Date `yaml:"next,omitempty"`
	Prev        *date.Date `yaml:"prev,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
// If filter is non-empty only scenarios whose name contains it are returned.
func LoadDir(dir, filter string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if filter != "" && !strings.Contains(s.Name, filter) {
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.First == 0 || s.Last == 0 {
		return fmt.Errorf("first and last are required")
	}
	if !s.DefaultRules && len(s.Rules) == 0 {
		return fmt.Errorf("rules are required unless default_rules is set")
	}

	if s.ExpectError != "" {
		codes := []calendar.BuildErrorCode{
			calendar.ErrCodeInvalidRange,
			calendar.ErrCodeInvalidDate,
			calendar.ErrCodeInvalidRule,
			calendar.ErrCodeUnknownRule,
		}
		if !slices.Contains(codes, calendar.BuildErrorCode(s.ExpectError)) {
			return fmt.Errorf("expect_error: unknown code %q", s.ExpectError)
		}
		if len(s.Checks) > 0 {
			return fmt.Errorf("checks cannot be combined with expect_error")
		}
		return nil
	}

	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}
	for i, c := range s.Checks {
		if c.Date == (date.Date{}) {
			return fmt.Errorf("checks[%d]: date is required", i)
		}
		if c.Status != "" && !slices.Contains(statusNames, c.Status) {
			return fmt.Errorf("checks[%d]: unknown status %q", i, c.Status)
		}
	}
	return nil
}

var statusNames = []string{
	calendar.Open.String(),
	calendar.HalfDay.String(),
	calendar.Weekend.String(),
	calendar.Closed.String(),
}

// DecodeRules converts the YAML rules into rule values through the strict
// wire decoder.
func (s *Scenario) DecodeRules() ([]rule.Rule, error) {
	if len(s.Rules) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(wireValue(s.Rules))
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return rule.DecodeList(data)
}

// wireValue rewrites YAML-decoded values into their JSON wire form.
// Unquoted dates resolve to time.Time in YAML and must become date strings.
func wireValue(v any) any {
	switch v := v.(type) {
	case time.Time:
		return v.Format(date.Layout)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = wireValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = wireValue(e)
		}
		return out
	default:
		return v
	}
}
