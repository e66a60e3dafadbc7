package date

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of the week, numbered like time.Weekday (Sunday = 0).
// Its text form is the three-letter English abbreviation.
type Weekday int

// Weekday values in their fixed cyclic order.
const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayAbbrev = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Valid reports whether w is one of the seven weekdays.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// Std converts w to time.Weekday.
func (w Weekday) Std() time.Weekday {
	return time.Weekday(w)
}

// String returns the three-letter abbreviation ("Mon").
func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayAbbrev[w]
}

// MarshalText implements encoding.TextMarshaler.
func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(weekdayAbbrev[w]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWeekday accepts the abbreviation or the full English name,
// case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	for i := Sunday; i <= Saturday; i++ {
		if strings.EqualFold(s, weekdayAbbrev[i]) || strings.EqualFold(s, time.Weekday(i).String()) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
