package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
)

// YearResult is the output of the show command.
type YearResult struct {
	Calendar string      `json:"calendar"`
	First    int         `json:"first"`
	Last     int         `json:"last"`
	Holidays []date.Date `json:"holidays"`
	HalfDays []date.Date `json:"half_days"`
}

// DayResult is the output of the check command.
type DayResult struct {
	Calendar    string             `json:"calendar"`
	Date        date.Date          `json:"date"`
	Status      calendar.DayStatus `json:"status"`
	Holiday     bool               `json:"holiday"`
	HalfDay     bool               `json:"half_day"`
	Weekend     bool               `json:"weekend"`
	BusinessDay bool               `json:"business_day"`
	Covered     bool               `json:"covered"`
}

// TraversalResult is the output of the next and prev commands.
type TraversalResult struct {
	Calendar  string             `json:"calendar"`
	From      date.Date          `json:"from"`
	Direction calendar.Direction `json:"direction"`
	Date      date.Date          `json:"date"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <first-year> [last-year]",
		Short: "List holidays and half days for a year range",
		Long: `Build the calendar over [first-year, last-year] and list its full
holidays and half days. last-year defaults to first-year.

Examples:
  tradecal show 2021
  tradecal show 2019 2020 --format json
  tradecal show 2024 --rules ./my_rules.json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args, cmd)
		},
	}
}

func runShow(opts *RootOptions, args []string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	first, last, err := parseYearRange(args)
	if err != nil {
		return reportLoadError(f, err)
	}

	src, err := opts.ResolveRules()
	if err != nil {
		return reportLoadError(f, err)
	}
	f.VerboseLog("Building %s (%d rules from %s) for %d-%d", src.Name, len(src.Rules), src.Origin, first, last)

	cal, err := opts.Build(src, first, last)
	if err != nil {
		return reportLoadError(f, err)
	}

	result := YearResult{
		Calendar: src.Name,
		First:    first,
		Last:     last,
		Holidays: nonNil(cal.Holidays()),
		HalfDays: nonNil(cal.HalfDays()),
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "holidays: [%s]\n", joinDates(result.Holidays))
		fmt.Fprintf(w, "half days: [%s]\n", joinDates(result.HalfDays))
	})
}

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool // exit 1 unless the date is a business day
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <date>",
		Short: "Classify a date",
		Long: `Report whether a date is a holiday, a half day, a weekend day or a
business day. Dates are YYYY-MM-DD.

Exit codes:
  0 - Date classified (or a business day with --strict)
  1 - Not a business day and --strict is set
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 if the date is not a business day")

	return cmd
}

func runCheck(opts *CheckOptions, arg string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	d, err := parseDateArg(arg)
	if err != nil {
		return reportLoadError(f, err)
	}

	src, cal, err := opts.resolveAndBuild()
	if err != nil {
		return reportLoadError(f, err)
	}

	result := DayResult{
		Calendar:    src.Name,
		Date:        d,
		Status:      cal.Status(d),
		Holiday:     cal.IsHoliday(d),
		HalfDay:     cal.IsHalfHoliday(d),
		Weekend:     cal.IsWeekend(d),
		BusinessDay: cal.IsBusinessDay(d),
		Covered:     cal.Covers(d),
	}
	if !result.Covered {
		f.VerboseLog("%s is outside the built range %d-%d; only weekend rules apply", d, cal.FirstYear(), cal.LastYear())
	}

	if err := f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s\n", d, result.Status)
	}); err != nil {
		return err
	}
	if opts.Strict && !result.BusinessDay {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not a business day", d))
	}
	return nil
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	return newTraversalCommand(rootOpts, calendar.Forward)
}

// NewPrevCommand creates the prev command.
func NewPrevCommand(rootOpts *RootOptions) *cobra.Command {
	return newTraversalCommand(rootOpts, calendar.Backward)
}

func newTraversalCommand(rootOpts *RootOptions, dir calendar.Direction) *cobra.Command {
	use, short := "next <date>", "Find the next business day strictly after a date"
	if dir == calendar.Backward {
		use, short = "prev <date>", "Find the previous business day strictly before a date"
	}

	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraversal(rootOpts, dir, args[0], cmd)
		},
	}
}

func runTraversal(opts *RootOptions, dir calendar.Direction, arg string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	from, err := parseDateArg(arg)
	if err != nil {
		return reportLoadError(f, err)
	}

	src, cal, err := opts.resolveAndBuild()
	if err != nil {
		return reportLoadError(f, err)
	}

	var to date.Date
	if dir == calendar.Forward {
		to, err = cal.NextBusinessDay(from)
	} else {
		to, err = cal.PreviousBusinessDay(from)
	}
	if err != nil {
		var travErr *calendar.TraversalError
		if errors.As(err, &travErr) {
			details := map[string]any{
				"from":      travErr.From,
				"direction": travErr.Direction,
				"steps":     travErr.Steps,
				"limit":     travErr.Limit,
			}
			if outErr := f.Error(ErrCodeTraversal, travErr.Error(), details); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, ErrCodeTraversal, err)
		}
		return reportLoadError(f, err)
	}

	result := TraversalResult{Calendar: src.Name, From: from, Direction: dir, Date: to}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, to)
	})
}

func parseDateArg(s string) (date.Date, error) {
	d, err := date.Parse(s)
	if err != nil {
		return date.Date{}, &LoadError{Code: ErrCodeInvalidArg, Message: fmt.Sprintf("invalid date %q: %v", s, err)}
	}
	return d, nil
}

func parseYearRange(args []string) (int, int, error) {
	first, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, &LoadError{Code: ErrCodeInvalidArg, Message: fmt.Sprintf("invalid year %q", args[0])}
	}
	last := first
	if len(args) > 1 {
		if last, err = strconv.Atoi(args[1]); err != nil {
			return 0, 0, &LoadError{Code: ErrCodeInvalidArg, Message: fmt.Sprintf("invalid year %q", args[1])}
		}
	}
	return first, last, nil
}

func joinDates(dates []date.Date) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

func nonNil(dates []date.Date) []date.Date {
	if dates == nil {
		return []date.Date{}
	}
	return dates
}
