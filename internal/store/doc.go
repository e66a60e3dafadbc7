// Package store provides SQLite-backed persistence for built calendars.
//
// A snapshot records a named rule list (canonical JSON plus its content
// hash), the year range it was built over, and the materialised holiday,
// half-day and weekend rows.
//
// Snapshots are never trusted as calendars directly. LoadSnapshot decodes
// the stored rules and rebuilds through calendar.Build, then checks the
// rebuilt sets against the stored rows.
//
// # Ordering
//
// The latest snapshot for a name is the one with the highest seq. Rows are
// read back with ORDER BY on the date text, which sorts chronologically for
// four-digit years.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
