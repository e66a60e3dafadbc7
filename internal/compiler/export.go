package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tradecal/internal/rule"
)

// ExportCUE renders specs as CUE source under the "calendar" field.
// Unset optional fields are omitted. CompileAll on the output yields
// specs with Equal rule lists.
func ExportCUE(specs ...*CalendarSpec) ([]byte, error) {
	calendars := ast.NewStruct()
	for _, spec := range specs {
		body, err := specStruct(spec)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", spec.Name, err)
		}
		calendars.Elts = append(calendars.Elts, &ast.Field{
			Label: label(spec.Name),
			Value: body,
		})
	}

	file := &ast.File{Decls: []ast.Decl{
		&ast.Field{Label: ast.NewIdent("calendar"), Value: calendars},
	}}
	return format.Node(file)
}

func specStruct(spec *CalendarSpec) (*ast.StructLit, error) {
	s := ast.NewStruct()
	if spec.First != nil {
		s.Elts = append(s.Elts, field("first", intLit(*spec.First)))
	}
	if spec.Last != nil {
		s.Elts = append(s.Elts, field("last", intLit(*spec.Last)))
	}

	list := ast.NewList()
	for i, r := range spec.Rules {
		if r == nil {
			return nil, fmt.Errorf("rules[%d]: nil rule", i)
		}
		e := &exporter{}
		if err := r.Accept(e); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		list.Elts = append(list.Elts, ast.NewStruct(field(r.Variant(), e.expr)))
	}
	s.Elts = append(s.Elts, field("rules", list))
	return s, nil
}

// exporter renders the payload of one rule as a CUE expression.
type exporter struct {
	expr ast.Expr
}

func (e *exporter) VisitWeekDay(r rule.WeekDay) error {
	text, err := r.Weekday.MarshalText()
	if err != nil {
		return err
	}
	e.expr = ast.NewString(string(text))
	return nil
}

func (e *exporter) VisitSingularDay(r rule.SingularDay) error {
	e.expr = ast.NewString(r.Date.String())
	return nil
}

func (e *exporter) VisitMovableYearlyDay(r rule.MovableYearlyDay) error {
	s := ast.NewStruct(
		field("month", intLit(r.Month)),
		field("day", intLit(r.Day)),
	)
	appendBounds(s, r.First, r.Last)
	if err := appendHalfCheck(s, r.HalfCheck); err != nil {
		return err
	}
	e.expr = s
	return nil
}

func (e *exporter) VisitEasterOffset(r rule.EasterOffset) error {
	s := ast.NewStruct(field("offset", intLit(r.Offset)))
	appendBounds(s, r.First, r.Last)
	e.expr = s
	return nil
}

func (e *exporter) VisitMonthWeekday(r rule.MonthWeekday) error {
	wd, err := r.Weekday.MarshalText()
	if err != nil {
		return err
	}
	nth, err := r.Nth.MarshalText()
	if err != nil {
		return err
	}
	s := ast.NewStruct(
		field("month", intLit(r.Month)),
		field("weekday", ast.NewString(string(wd))),
		field("nth", ast.NewString(string(nth))),
	)
	appendBounds(s, r.First, r.Last)
	if err := appendHalfCheck(s, r.HalfCheck); err != nil {
		return err
	}
	e.expr = s
	return nil
}

func appendBounds(s *ast.StructLit, first, last *int) {
	if first != nil {
		s.Elts = append(s.Elts, field("first", intLit(*first)))
	}
	if last != nil {
		s.Elts = append(s.Elts, field("last", intLit(*last)))
	}
}

func appendHalfCheck(s *ast.StructLit, h *rule.HalfCheck) error {
	if h == nil {
		return nil
	}
	text, err := h.MarshalText()
	if err != nil {
		return err
	}
	s.Elts = append(s.Elts, field("half_check", ast.NewString(string(text))))
	return nil
}

func field(name string, value ast.Expr) *ast.Field {
	return &ast.Field{Label: label(name), Value: value}
}

func label(name string) ast.Label {
	if ast.IsValidIdent(name) {
		return ast.NewIdent(name)
	}
	return ast.NewString(name)
}

func intLit(n int) ast.Expr {
	if n < 0 {
		return &ast.UnaryExpr{Op: token.SUB, X: ast.NewLit(token.INT, strconv.Itoa(-n))}
	}
	return ast.NewLit(token.INT, strconv.Itoa(n))
}
