package rule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/roach88/tradecal/internal/date"
)

// Decode failure categories. DecodeError wraps one of these so callers can
// match with errors.Is.
var (
	ErrMalformed      = errors.New("malformed rule")
	ErrUnknownVariant = errors.New("unknown rule variant")
	ErrMissingField   = errors.New("missing required field")
	ErrUnknownField   = errors.New("unknown field")
	ErrFieldType      = errors.New("wrong field type")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// DecodeError reports a rule that could not be decoded from the wire format.
type DecodeError struct {
	Index   int    // position in the rule list, -1 for a single rule
	Variant string // wire key, empty if the envelope itself is malformed
	Field   string // offending field, empty for envelope/scalar errors
	Err     error
}

func (e *DecodeError) Error() string {
	loc := "rule"
	if e.Index >= 0 {
		loc = fmt.Sprintf("rule[%d]", e.Index)
	}
	switch {
	case e.Variant != "" && e.Field != "":
		return fmt.Sprintf("%s %s.%s: %v", loc, e.Variant, e.Field, e.Err)
	case e.Variant != "":
		return fmt.Sprintf("%s %s: %v", loc, e.Variant, e.Err)
	default:
		return fmt.Sprintf("%s: %v", loc, e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Field payloads in declared order. Unset optionals encode as null.
type movableYearlyDayWire struct {
	Month     int        `json:"month"`
	Day       int        `json:"day"`
	First     *int       `json:"first"`
	Last      *int       `json:"last"`
	HalfCheck *HalfCheck `json:"half_check"`
}

type easterOffsetWire struct {
	Offset int  `json:"offset"`
	First  *int `json:"first"`
	Last   *int `json:"last"`
}

type monthWeekdayWire struct {
	Month     int          `json:"month"`
	Weekday   date.Weekday `json:"weekday"`
	Nth       NthWeek      `json:"nth"`
	First     *int         `json:"first"`
	Last      *int         `json:"last"`
	HalfCheck *HalfCheck   `json:"half_check"`
}

// encoder renders one rule as its wire payload (the value under the key).
type encoder struct {
	payload any
}

func (e *encoder) VisitWeekDay(r WeekDay) error {
	e.payload = r.Weekday
	return nil
}

func (e *encoder) VisitMovableYearlyDay(r MovableYearlyDay) error {
	e.payload = movableYearlyDayWire{
		Month:     r.Month,
		Day:       r.Day,
		First:     r.First,
		Last:      r.Last,
		HalfCheck: r.HalfCheck,
	}
	return nil
}

func (e *encoder) VisitSingularDay(r SingularDay) error {
	e.payload = r.Date
	return nil
}

func (e *encoder) VisitEasterOffset(r EasterOffset) error {
	e.payload = easterOffsetWire{Offset: r.Offset, First: r.First, Last: r.Last}
	return nil
}

func (e *encoder) VisitMonthWeekday(r MonthWeekday) error {
	e.payload = monthWeekdayWire{
		Month:     r.Month,
		Weekday:   r.Weekday,
		Nth:       r.Nth,
		First:     r.First,
		Last:      r.Last,
		HalfCheck: r.HalfCheck,
	}
	return nil
}

// MarshalRule encodes a rule as a single-key JSON object keyed by its variant.
func MarshalRule(r Rule) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("marshal rule: nil rule")
	}
	enc := &encoder{}
	if err := r.Accept(enc); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(enc.payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", r.Variant(), err)
	}

	key, err := json.Marshal(r.Variant())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalRule decodes a single-key wire object into a Rule.
func UnmarshalRule(data []byte) (Rule, error) {
	return unmarshalRule(-1, data)
}

func unmarshalRule(index int, data []byte) (Rule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, &DecodeError{Index: index, Err: fmt.Errorf("%w: expected a single-key object", ErrMalformed)}
	}

	keys, envelope, err := decodeObject(data)
	if err != nil {
		return nil, &DecodeError{Index: index, Err: err}
	}
	if len(keys) != 1 {
		return nil, &DecodeError{Index: index, Err: fmt.Errorf("%w: expected exactly one variant key, got %d", ErrMalformed, len(keys))}
	}

	variant := keys[0]
	payload := bytes.TrimSpace(envelope[variant])

	d := &fieldDecoder{index: index, variant: variant}

	switch variant {
	case KindWeekDay:
		s, err := d.scalarString(payload)
		if err != nil {
			return nil, err
		}
		wd, err := date.ParseWeekday(s)
		if err != nil {
			return nil, d.fail("", fmt.Errorf("%w: %v", ErrFieldType, err))
		}
		return WeekDay{Weekday: wd}, nil

	case KindSingularDay:
		s, err := d.scalarString(payload)
		if err != nil {
			return nil, err
		}
		dt, err := date.Parse(s)
		if err != nil {
			return nil, d.fail("", fmt.Errorf("%w: %v", ErrFieldType, err))
		}
		return SingularDay{Date: dt}, nil

	case KindMovableYearlyDay:
		if err := d.object(payload, "month", "day", "first", "last", "half_check"); err != nil {
			return nil, err
		}
		r := MovableYearlyDay{}
		var err error
		if r.Month, err = d.requiredInt("month"); err != nil {
			return nil, err
		}
		if r.Day, err = d.requiredInt("day"); err != nil {
			return nil, err
		}
		if r.First, err = d.optionalInt("first"); err != nil {
			return nil, err
		}
		if r.Last, err = d.optionalInt("last"); err != nil {
			return nil, err
		}
		if r.HalfCheck, err = d.optionalHalfCheck("half_check"); err != nil {
			return nil, err
		}
		return r, nil

	case KindEasterOffset:
		if err := d.object(payload, "offset", "first", "last"); err != nil {
			return nil, err
		}
		r := EasterOffset{}
		var err error
		if r.Offset, err = d.requiredInt("offset"); err != nil {
			return nil, err
		}
		if r.First, err = d.optionalInt("first"); err != nil {
			return nil, err
		}
		if r.Last, err = d.optionalInt("last"); err != nil {
			return nil, err
		}
		return r, nil

	case KindMonthWeekday:
		if err := d.object(payload, "month", "weekday", "nth", "first", "last", "half_check"); err != nil {
			return nil, err
		}
		r := MonthWeekday{}
		var err error
		if r.Month, err = d.requiredInt("month"); err != nil {
			return nil, err
		}
		if r.Weekday, err = d.requiredWeekday("weekday"); err != nil {
			return nil, err
		}
		if r.Nth, err = d.requiredNth("nth"); err != nil {
			return nil, err
		}
		if r.First, err = d.optionalInt("first"); err != nil {
			return nil, err
		}
		if r.Last, err = d.optionalInt("last"); err != nil {
			return nil, err
		}
		if r.HalfCheck, err = d.optionalHalfCheck("half_check"); err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, &DecodeError{Index: index, Variant: variant, Err: ErrUnknownVariant}
	}
}

// fieldDecoder decodes the named fields of one variant payload strictly:
// unknown fields are rejected, required fields must be present and non-null.
type fieldDecoder struct {
	index   int
	variant string
	fields  map[string]json.RawMessage
}

func (d *fieldDecoder) fail(field string, err error) error {
	return &DecodeError{Index: d.index, Variant: d.variant, Field: field, Err: err}
}

func (d *fieldDecoder) scalarString(payload json.RawMessage) (string, error) {
	if isNull(payload) {
		return "", d.fail("", fmt.Errorf("%w: value is null", ErrMissingField))
	}
	var s string
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", d.fail("", fmt.Errorf("%w: expected string: %v", ErrFieldType, err))
	}
	return s, nil
}

func (d *fieldDecoder) object(payload json.RawMessage, allowed ...string) error {
	if len(payload) == 0 || payload[0] != '{' {
		return d.fail("", fmt.Errorf("%w: expected object", ErrFieldType))
	}
	keys, fields, err := decodeObject(payload)
	if err != nil {
		return d.fail("", err)
	}
	d.fields = fields
	for _, name := range keys {
		if !slices.Contains(allowed, name) {
			return d.fail(name, ErrUnknownField)
		}
	}
	return nil
}

// raw returns the trimmed field value, or nil when absent or null.
func (d *fieldDecoder) raw(name string) json.RawMessage {
	v, ok := d.fields[name]
	if !ok {
		return nil
	}
	v = bytes.TrimSpace(v)
	if isNull(v) {
		return nil
	}
	return v
}

func (d *fieldDecoder) requiredInt(name string) (int, error) {
	v := d.raw(name)
	if v == nil {
		return 0, d.fail(name, ErrMissingField)
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, d.fail(name, fmt.Errorf("%w: expected integer: %v", ErrFieldType, err))
	}
	return n, nil
}

func (d *fieldDecoder) optionalInt(name string) (*int, error) {
	v := d.raw(name)
	if v == nil {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, d.fail(name, fmt.Errorf("%w: expected integer: %v", ErrFieldType, err))
	}
	return &n, nil
}

func (d *fieldDecoder) requiredString(name string) (string, error) {
	v := d.raw(name)
	if v == nil {
		return "", d.fail(name, ErrMissingField)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", d.fail(name, fmt.Errorf("%w: expected string: %v", ErrFieldType, err))
	}
	return s, nil
}

func (d *fieldDecoder) requiredWeekday(name string) (date.Weekday, error) {
	s, err := d.requiredString(name)
	if err != nil {
		return 0, err
	}
	wd, err := date.ParseWeekday(s)
	if err != nil {
		return 0, d.fail(name, fmt.Errorf("%w: %v", ErrFieldType, err))
	}
	return wd, nil
}

func (d *fieldDecoder) requiredNth(name string) (NthWeek, error) {
	s, err := d.requiredString(name)
	if err != nil {
		return 0, err
	}
	var n NthWeek
	if err := n.UnmarshalText([]byte(s)); err != nil {
		return 0, d.fail(name, fmt.Errorf("%w: %v", ErrFieldType, err))
	}
	return n, nil
}

func (d *fieldDecoder) optionalHalfCheck(name string) (*HalfCheck, error) {
	if d.raw(name) == nil {
		return nil, nil
	}
	s, err := d.requiredString(name)
	if err != nil {
		return nil, err
	}
	var h HalfCheck
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return nil, d.fail(name, fmt.Errorf("%w: %v", ErrFieldType, err))
	}
	return &h, nil
}

// decodeObject decodes a JSON object into its raw member values, returning
// the keys in document order. Repeated keys are an error rather than
// last-one-wins.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, nil, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	var keys []string
	fields := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected object key", ErrMalformed)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, seen := fields[key]; seen {
			return nil, nil, fmt.Errorf("%w %q", ErrDuplicateKey, key)
		}
		keys = append(keys, key)
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}
	return keys, fields, nil
}

func isNull(v []byte) bool {
	return bytes.Equal(v, []byte("null"))
}

// List is an ordered rule list with wire-format JSON encoding.
type List []Rule

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &DecodeError{Index: -1, Err: fmt.Errorf("%w: expected a list of rules: %v", ErrMalformed, err)}
	}

	rules := make(List, 0, len(raw))
	for i, item := range raw {
		r, err := unmarshalRule(i, item)
		if err != nil {
			return err
		}
		rules = append(rules, r)
	}
	*l = rules
	return nil
}

// DecodeList decodes a JSON array of wire rules.
func DecodeList(data []byte) ([]Rule, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return []Rule(l), nil
}

// EncodeList encodes rules as a compact JSON array.
func EncodeList(rules []Rule) ([]byte, error) {
	return json.Marshal(List(rules))
}

// EncodeListIndent encodes rules as an indented JSON array.
func EncodeListIndent(rules []Rule, indent string) ([]byte, error) {
	return json.MarshalIndent(List(rules), "", indent)
}
