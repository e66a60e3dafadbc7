// Package compiler turns CUE calendar specs into rule lists.
//
// A spec file declares one or more calendars under the top-level
// "calendar" field:
//
//	calendar: US_EXCHANGES: {
//		first: 2000
//		last:  2050
//		rules: [
//			{WeekDay: "Sat"},
//			{MonthWeekday: {month: 1, weekday: "Mon", nth: "Third"}},
//		]
//	}
//
// Each rule element is a single-field struct in the JSON wire shape and is
// decoded with the same strict rules as the JSON form. Validate lints a
// compiled rule list, AnalyzeOverlaps reports rules that generate the same
// date, and ExportCUE renders a spec back to CUE source.
package compiler
