package exchange

import (
	"time"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

// Default build range used when Populate is called without bounds.
const (
	DefaultFirstYear = 2000
	DefaultLastYear  = 2050
)

// DefaultCalendarName is the registry name of the default US table.
const DefaultCalendarName = "US_EXCHANGES"

// USRules returns the default US exchange holiday table. A new slice is
// returned on every call.
func USRules() []rule.Rule {
	return []rule.Rule{
		rule.WeekDay{Weekday: date.Saturday},
		rule.WeekDay{Weekday: date.Sunday},
		// New Year's Day
		rule.MovableYearlyDay{Month: 1, Day: 1},
		// Martin Luther King Jr. Day
		rule.MonthWeekday{Month: 1, Weekday: date.Monday, Nth: rule.Third},
		// Presidents' Day
		rule.MonthWeekday{Month: 2, Weekday: date.Monday, Nth: rule.Third},
		// Good Friday
		rule.EasterOffset{Offset: -2, First: rule.Year(2000)},
		// Memorial Day
		rule.MonthWeekday{Month: 5, Weekday: date.Monday, Nth: rule.Last},
		// Juneteenth
		rule.MovableYearlyDay{Month: 6, Day: 19, First: rule.Year(2022)},
		// Independence Day
		rule.MovableYearlyDay{Month: 7, Day: 4, HalfCheck: rule.Half(rule.Before)},
		// Labor Day
		rule.MonthWeekday{Month: 9, Weekday: date.Monday, Nth: rule.First},
		// Thanksgiving
		rule.MonthWeekday{Month: 11, Weekday: date.Thursday, Nth: rule.Fourth, HalfCheck: rule.Half(rule.After)},
		// Christmas
		rule.MovableYearlyDay{Month: 12, Day: 25, HalfCheck: rule.Half(rule.Before)},
		// September 11 closure
		rule.SingularDay{Date: date.MustNew(2001, time.September, 11)},
	}
}
