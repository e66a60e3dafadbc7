package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/rule"
)

// Run builds the scenario's calendar and evaluates its checks.
//
// An error is returned only when the scenario itself cannot be run (bad
// rules). Build failures and failed checks are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	extra, err := scenario.DecodeRules()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	var base []rule.Rule
	if scenario.DefaultRules {
		base = exchange.USRules()
	}

	rs := exchange.NewWithOptions(base,
		exchange.WithAdditionalRules(extra...),
		exchange.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	result := NewResult()
	_, buildErr := rs.PopulateRange(scenario.First, scenario.Last)

	if scenario.ExpectError != "" {
		checkBuildError(result, scenario.ExpectError, buildErr)
		return result, nil
	}
	if buildErr != nil {
		result.AddError(fmt.Sprintf("build failed: %v", buildErr))
		return result, nil
	}

	result.Calendar = rs.Snapshot()
	for _, c := range scenario.Checks {
		evaluateCheck(result, result.Calendar, c)
		result.Checks++
	}
	return result, nil
}

func checkBuildError(result *Result, want string, err error) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected build error %s, build succeeded", want))
		return
	}
	var be *calendar.BuildError
	if !errors.As(err, &be) {
		result.AddError(fmt.Sprintf("expected build error %s, got %v", want, err))
		return
	}
	if string(be.Code) != want {
		result.AddError(fmt.Sprintf("expected build error %s, got %s", want, be.Code))
	}
}

func evaluateCheck(result *Result, cal *calendar.Calendar, c Check) {
	flag := func(name string, want *bool, got bool) {
		if want != nil && *want != got {
			result.AddError(fmt.Sprintf("%s: %s = %t, want %t", c.Date, name, got, *want))
		}
	}
	flag("holiday", c.Holiday, cal.IsHoliday(c.Date))
	flag("half_day", c.HalfDay, cal.IsHalfHoliday(c.Date))
	flag("weekend", c.Weekend, cal.IsWeekend(c.Date))
	flag("business_day", c.BusinessDay, cal.IsBusinessDay(c.Date))

	if c.Status != "" {
		if got := cal.Status(c.Date).String(); got != c.Status {
			result.AddError(fmt.Sprintf("%s: status = %s, want %s", c.Date, got, c.Status))
		}
	}

	traverse := func(name string, want *date.Date, step func(date.Date) (date.Date, error)) {
		if want == nil {
			return
		}
		got, err := step(c.Date)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: %s: %v", c.Date, name, err))
			return
		}
		if got != *want {
			result.AddError(fmt.Sprintf("%s: %s = %s, want %s", c.Date, name, got, *want))
		}
	}
	traverse("next", c.Next, cal.NextBusinessDay)
	traverse("prev", c.Prev, cal.PreviousBusinessDay)
}
