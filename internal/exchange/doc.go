// Package exchange holds exchange rule sets and the default US exchange
// holiday table.
//
// A RuleSet owns an ordered rule list and the calendar last built from it.
// Populate rebuilds the calendar and swaps the snapshot only when the build
// succeeds. RuleSet is not safe for concurrent mutation; share the
// *calendar.Calendar returned by Snapshot instead.
package exchange
