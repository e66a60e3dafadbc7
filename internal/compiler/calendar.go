package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tradecal/internal/rule"
)

// CalendarSpec is a named rule list with an optional build range.
type CalendarSpec struct {
	Name  string
	First *int
	Last  *int
	Rules []rule.Rule
}

// CompileAll compiles every calendar under the top-level "calendar" field,
// in declaration order.
func CompileAll(v cue.Value) ([]*CalendarSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	calVal := v.LookupPath(cue.ParsePath("calendar"))
	if !calVal.Exists() {
		return nil, nil
	}

	iter, err := calVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []*CalendarSpec
	for iter.Next() {
		spec, err := CompileCalendar(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CompileCalendar parses a CUE value into a CalendarSpec.
// The value should be the calendar struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`calendar: NYSE: { rules: [...] }`)
//	spec, err := CompileCalendar(v.LookupPath(cue.ParsePath("calendar.NYSE")))
func CompileCalendar(v cue.Value) (*CalendarSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &CalendarSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
		if unquoted, err := strconv.Unquote(spec.Name); err == nil {
			spec.Name = unquoted
		}
	}

	var err error
	if spec.First, err = optionalYear(v, "first"); err != nil {
		return nil, err
	}
	if spec.Last, err = optionalYear(v, "last"); err != nil {
		return nil, err
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules is required",
			Pos:     v.Pos(),
		}
	}

	spec.Rules, err = compileRules(rulesVal)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func optionalYear(v cue.Value, field string) (*int, error) {
	yv := v.LookupPath(cue.ParsePath(field))
	if !yv.Exists() || yv.Null() == nil {
		return nil, nil
	}
	if yv.IncompleteKind() != cue.IntKind {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be an integer year, got %v", yv.IncompleteKind()),
			Pos:     yv.Pos(),
		}
	}
	n, err := yv.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	year := int(n)
	return &year, nil
}

// compileRules decodes each list element through the strict wire decoder,
// attaching the element's CUE position to any failure.
func compileRules(v cue.Value) ([]rule.Rule, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []rule.Rule
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		field := fmt.Sprintf("rules[%d]", i)

		if elem.IncompleteKind() != cue.StructKind {
			return nil, &CompileError{
				Field:   field,
				Message: "rule must be a single-field struct",
				Pos:     elem.Pos(),
			}
		}

		data, err := elem.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}

		r, err := rule.UnmarshalRule(data)
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: err.Error(),
				Pos:     elem.Pos(),
				Err:     err,
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}
	return err
}
