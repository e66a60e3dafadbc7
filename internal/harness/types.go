package harness

import (
	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Checks is the number of date checks evaluated.
	Checks int `json:"checks"`

	// Errors contains check failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Calendar is the built calendar; nil when the build failed.
	Calendar *calendar.Calendar `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// CalendarDump is the golden-file form of a calendar.
type CalendarDump struct {
	First    int            `json:"first"`
	Last     int            `json:"last"`
	Weekend  []date.Weekday `json:"weekend"`
	Holidays []date.Date    `json:"holidays"`
	HalfDays []date.Date    `json:"half_days"`
}

// Dump captures cal for golden comparison. Nil slices are emitted as [].
func Dump(cal *calendar.Calendar) CalendarDump {
	d := CalendarDump{
		First:    cal.FirstYear(),
		Last:     cal.LastYear(),
		Weekend:  cal.Weekend(),
		Holidays: cal.Holidays(),
		HalfDays: cal.HalfDays(),
	}
	if d.Weekend == nil {
		d.Weekend = []date.Weekday{}
	}
	if d.Holidays == nil {
		d.Holidays = []date.Date{}
	}
	if d.HalfDays == nil {
		d.HalfDays = []date.Date{}
	}
	return d
}
