// Package date provides the civil-date primitive used by every other
// tradecal package.
//
// A Date carries no time of day and no location. It is a plain comparable
// value, usable as a map key, with exact Gregorian arithmetic (leap years
// included) delegated to the time package at UTC midnight.
//
// Construction validates its input: New returns an *InvalidDateError for
// an out-of-range month or day, including February 29 in a non-leap year.
// Nothing in this package normalises an invalid date into a valid one.
package date
