package calendar

import (
	"errors"
	"fmt"

	"github.com/roach88/tradecal/internal/date"
)

// BuildErrorCode categorizes build failures.
type BuildErrorCode string

const (
	// ErrCodeInvalidRange indicates startYear > endYear.
	ErrCodeInvalidRange BuildErrorCode = "INVALID_RANGE"

	// ErrCodeInvalidDate indicates a rule produced a date that does not exist
	// (month 13, February 30, February 29 in a common year).
	ErrCodeInvalidDate BuildErrorCode = "INVALID_DATE"

	// ErrCodeInvalidRule indicates a rule field outside its enumeration
	// (weekday, nth week or half check).
	ErrCodeInvalidRule BuildErrorCode = "INVALID_RULE"

	// ErrCodeUnknownRule indicates a nil rule in the list.
	ErrCodeUnknownRule BuildErrorCode = "UNKNOWN_RULE"
)

// BuildError reports why Build could not produce a Calendar.
// RuleIndex is -1 for errors not tied to a rule.
type BuildError struct {
	Code      BuildErrorCode
	Message   string
	RuleIndex int
	Variant   string
	Year      int
	Err       error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.RuleIndex < 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Year != 0 {
		return fmt.Sprintf("%s: %s (rule=%d %s, year=%d)", e.Code, e.Message, e.RuleIndex, e.Variant, e.Year)
	}
	return fmt.Sprintf("%s: %s (rule=%d %s)", e.Code, e.Message, e.RuleIndex, e.Variant)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError returns true if err is (or wraps) a BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// IsInvalidDateError returns true if err is a BuildError caused by a
// date that does not exist.
func IsInvalidDateError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeInvalidDate
	}
	return false
}

// Direction is the traversal direction of a business-day walk.
type Direction string

const (
	Forward  Direction = "next"
	Backward Direction = "previous"
)

// TraversalError is returned when a business-day walk exceeds the
// calendar's traversal limit without finding a business day.
type TraversalError struct {
	From      date.Date
	Direction Direction
	Steps     int
	Limit     int
}

// Error implements the error interface.
func (e *TraversalError) Error() string {
	return fmt.Sprintf("no %s business day from %s within %d days (limit %d)",
		e.Direction, e.From, e.Steps, e.Limit)
}

// IsTraversalError returns true if err is (or wraps) a TraversalError.
func IsTraversalError(err error) bool {
	var te *TraversalError
	return errors.As(err, &te)
}
