package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/registry"
)

// CalendarInfo describes a registered calendar.
type CalendarInfo struct {
	Name      string         `json:"name"`
	FirstYear int            `json:"first_year"`
	LastYear  int            `json:"last_year"`
	Weekend   []date.Weekday `json:"weekend"`
	Holidays  int            `json:"holidays"`
	HalfDays  int            `json:"half_days"`
	RulesHash string         `json:"rules_hash,omitempty"`
}

// DayInfo is the status of one date.
type DayInfo struct {
	Date        date.Date          `json:"date"`
	Status      calendar.DayStatus `json:"status"`
	Weekend     bool               `json:"weekend"`
	Holiday     bool               `json:"holiday"`
	HalfDay     bool               `json:"half_day"`
	BusinessDay bool               `json:"business_day"`
}

// TraversalInfo is the result of a next/prev query.
type TraversalInfo struct {
	From      date.Date          `json:"from"`
	Direction calendar.Direction `json:"direction"`
	Date      date.Date          `json:"date"`
}

// RangeInfo lists the holidays and half days in a date range.
type RangeInfo struct {
	From     date.Date   `json:"from"`
	To       date.Date   `json:"to"`
	Holidays []date.Date `json:"holidays"`
	HalfDays []date.Date `json:"half_days"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, s.logger, map[string]string{"status": "OK"})
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	respondOK(w, s.logger, map[string][]string{"calendars": s.registry.Names()})
}

// lookup resolves {name} and sets the ETag. It writes the response and
// returns false when the request is finished (unknown name or a matching
// If-None-Match).
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*calendar.Calendar, string, bool) {
	name := mux.Vars(r)["name"]
	cal, err := s.registry.Lookup(name)
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, s.logger, http.StatusNotFound, ErrCodeNotFound,
			fmt.Sprintf("unknown calendar %q", name), nil)
		return nil, "", false
	}
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, ErrCodeInternal, err.Error(), nil)
		return nil, "", false
	}

	hash, _ := s.registry.Hash(name)
	if hash != "" {
		etag := `"` + hash + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return nil, "", false
		}
	}
	return cal, hash, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, hash, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondOK(w, s.logger, CalendarInfo{
		Name:      registry.Normalize(mux.Vars(r)["name"]),
		FirstYear: cal.FirstYear(),
		LastYear:  cal.LastYear(),
		Weekend:   cal.Weekend(),
		Holidays:  len(cal.Holidays()),
		HalfDays:  len(cal.HalfDays()),
		RulesHash: hash,
	})
}

func (s *Server) pathDate(w http.ResponseWriter, r *http.Request) (date.Date, bool) {
	raw := mux.Vars(r)["date"]
	d, err := date.Parse(raw)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("invalid date %q: want YYYY-MM-DD", raw), nil)
		return date.Date{}, false
	}
	return d, true
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	cal, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondOK(w, s.logger, DayInfo{
		Date:        d,
		Status:      cal.Status(d),
		Weekend:     cal.IsWeekend(d),
		Holiday:     cal.IsHoliday(d),
		HalfDay:     cal.IsHalfHoliday(d),
		BusinessDay: cal.IsBusinessDay(d),
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.traverse(w, r, calendar.Forward)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.traverse(w, r, calendar.Backward)
}

func (s *Server) traverse(w http.ResponseWriter, r *http.Request, dir calendar.Direction) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	cal, _, ok := s.lookup(w, r)
	if !ok {
		return
	}

	step := cal.NextBusinessDay
	if dir == calendar.Backward {
		step = cal.PreviousBusinessDay
	}
	got, err := step(d)
	if err != nil {
		var te *calendar.TraversalError
		if errors.As(err, &te) {
			respondError(w, s.logger, http.StatusUnprocessableEntity, ErrCodeTraversalLimit, err.Error(),
				map[string]any{"from": te.From, "direction": te.Direction, "steps": te.Steps, "limit": te.Limit})
			return
		}
		respondError(w, s.logger, http.StatusInternalServerError, ErrCodeInternal, err.Error(), nil)
		return
	}
	respondOK(w, s.logger, TraversalInfo{From: d, Direction: dir, Date: got})
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	cal, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if cal.IsEmpty() {
		respondOK(w, s.logger, RangeInfo{Holidays: []date.Date{}, HalfDays: []date.Date{}})
		return
	}

	from := date.MustNew(cal.FirstYear(), 1, 1)
	to := date.MustNew(cal.LastYear(), 12, 31)
	for _, q := range []struct {
		key string
		dst *date.Date
	}{{"from", &from}, {"to", &to}} {
		raw := r.URL.Query().Get(q.key)
		if raw == "" {
			continue
		}
		d, err := date.Parse(raw)
		if err != nil {
			respondError(w, s.logger, http.StatusBadRequest, ErrCodeBadRequest,
				fmt.Sprintf("invalid %s %q: want YYYY-MM-DD", q.key, raw), nil)
			return
		}
		*q.dst = d
	}
	if to.Before(from) {
		respondError(w, s.logger, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("to %s before from %s", to, from), nil)
		return
	}

	info := RangeInfo{
		From:     from,
		To:       to,
		Holidays: cal.HolidaysBetween(from, to),
		HalfDays: []date.Date{},
	}
	if info.Holidays == nil {
		info.Holidays = []date.Date{}
	}
	for _, h := range cal.HalfDays() {
		if !h.Before(from) && !h.After(to) {
			info.HalfDays = append(info.HalfDays, h)
		}
	}
	respondOK(w, s.logger, info)
}
