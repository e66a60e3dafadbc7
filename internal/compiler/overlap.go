package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

// OverlapWarning reports a date generated by more than one rule.
//
// Overlaps are warnings, not errors: an observed holiday landing on a
// singular closure is harmless, but two rules for the same holiday usually
// mean a copy-paste mistake.
type OverlapWarning struct {
	Date    date.Date `json:"date"`
	Rules   []int     `json:"rules"`   // indexes into the rule list
	Message string    `json:"message"` // human-readable description
	Level   string    `json:"level"`   // "warning"
}

// AnalyzeOverlaps builds each non-weekend rule on its own over
// [first, last] and reports every holiday produced by two or more rules,
// in date order. Rules that fail to build are skipped; Validate and
// calendar.Build report them.
func AnalyzeOverlaps(rules []rule.Rule, first, last int) []OverlapWarning {
	quiet := calendar.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	producers := make(map[date.Date][]int)
	for i, r := range rules {
		if r == nil || r.Variant() == rule.KindWeekDay {
			continue
		}
		cal, err := calendar.Build([]rule.Rule{r}, first, last, quiet)
		if err != nil {
			continue
		}
		for _, d := range cal.Holidays() {
			producers[d] = append(producers[d], i)
		}
	}

	var warnings []OverlapWarning
	for d, idx := range producers {
		if len(idx) < 2 {
			continue
		}
		refs := make([]string, len(idx))
		for k, i := range idx {
			refs[k] = fmt.Sprintf("rules[%d] (%s)", i, rules[i].Variant())
		}
		warnings = append(warnings, OverlapWarning{
			Date:    d,
			Rules:   idx,
			Message: fmt.Sprintf("%s generated by %s", d, strings.Join(refs, ", ")),
			Level:   "warning",
		})
	}
	slices.SortFunc(warnings, func(a, b OverlapWarning) int {
		return a.Date.Compare(b.Date)
	})
	return warnings
}
