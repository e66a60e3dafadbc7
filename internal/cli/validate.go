package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/compiler"
)

// CalendarValidation holds the findings for one calendar.
type CalendarValidation struct {
	Name     string                     `json:"name"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.OverlapWarning  `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                 `json:"valid"`
	Calendars []CalendarValidation `json:"calendars"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.json|specs-dir>",
		Short: "Lint rule lists without building calendars",
		Long: `Lint a JSON rule list or every calendar in a CUE specs directory.

Reports out-of-range months and days, fixed Feb 29 dates, inverted year
bounds, duplicate rules and missing weekend rules. Dates generated by more
than one rule are reported as warnings and do not fail validation.

Exit codes:
  0 - No errors (warnings allowed)
  1 - One or more findings
  2 - Command error (unreadable file, CUE errors)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	info, err := os.Stat(path)
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)})
	}

	var result ValidationResult
	if info.IsDir() {
		loaded, loadErrs := LoadSpecs(path, LoadModeCollectAll)
		if loaded == nil || len(loaded.Calendars) == 0 {
			return reportLoadError(f, loadErrs[0])
		}
		if len(loadErrs) > 0 {
			return outputLoadErrors(f, loadErrs)
		}
		f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, path)

		for _, spec := range loaded.Calendars {
			f.VerboseLog("Validating calendar: %s", spec.Name)
			first, last := opts.Config.FirstYear, opts.Config.LastYear
			if spec.First != nil {
				first = *spec.First
			}
			if spec.Last != nil {
				last = *spec.Last
			}
			result.Calendars = append(result.Calendars, validateCalendar(spec.Name, compiler.ValidateSpec(spec), spec, first, last))
		}
	} else {
		rules, err := ReadRulesFile(path)
		if err != nil {
			return reportLoadError(f, err)
		}
		spec := &compiler.CalendarSpec{Name: path, Rules: rules}
		result.Calendars = append(result.Calendars,
			validateCalendar(path, compiler.Validate(rules), spec, opts.Config.FirstYear, opts.Config.LastYear))
	}

	result.Valid = true
	for _, c := range result.Calendars {
		if len(c.Errors) > 0 {
			result.Valid = false
		}
	}

	if err := f.Success(result, func(w io.Writer) { writeValidationText(w, result) }); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateCalendar pairs lint findings with overlap warnings. Overlaps are
// only analysed over a sane range.
func validateCalendar(name string, errs []compiler.ValidationError, spec *compiler.CalendarSpec, first, last int) CalendarValidation {
	v := CalendarValidation{Name: name, Rules: len(spec.Rules), Errors: errs}
	if first <= last {
		v.Warnings = compiler.AnalyzeOverlaps(spec.Rules, first, last)
	}
	return v
}

func writeValidationText(w io.Writer, result ValidationResult) {
	for _, c := range result.Calendars {
		if len(c.Errors) == 0 {
			fmt.Fprintf(w, "✓ %s: %d rule(s) valid\n", c.Name, c.Rules)
		} else {
			fmt.Fprintf(w, "✗ %s: %d finding(s)\n", c.Name, len(c.Errors))
		}
		for _, e := range c.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
		for _, warn := range c.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn.Message)
		}
	}
}

// outputLoadErrors reports every load error; the first sets the code.
func outputLoadErrors(f *OutputFormatter, errs []error) error {
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	first := loadErrorOf(errs[0])
	if err := f.Error(first.Code, fmt.Sprintf("%d calendar(s) failed to compile", len(errs)), messages); err != nil {
		return err
	}
	if f.Format != "json" && !f.Verbose {
		for _, msg := range messages {
			fmt.Fprintf(f.Writer, "  %s\n", msg)
		}
	}
	return WrapExitError(ExitCommandError, first.Code, errs[0])
}
