// Package calendar derives exchange calendars from holiday rules.
//
// Build expands an ordered rule list over an inclusive year range into an
// immutable *Calendar holding the full holidays, the half days and the
// weekend weekdays. Queries on a Calendar are pure and safe for concurrent
// use.
//
// Fixed yearly dates falling on a weekend are moved to the adjacent weekday
// (Saturday to Friday, Sunday to Monday). A moved date that lands on the
// last day of its month or year is dropped, and a moved date never produces
// a half day.
//
// Business-day traversal is bounded by MaxTraversalDays; walking further
// returns a *TraversalError instead of looping.
package calendar
