// Package rule provides the declarative holiday-rule model for tradecal.
//
// This package contains the rule types, their wire encoding and their
// content identity. All other internal packages import rule; rule imports
// only internal/date. This keeps the rule model the foundational layer.
//
// Key design constraints:
//   - Rule is a sealed interface; the five variants are the only implementers
//   - Every consumer dispatches through Visitor, so adding a variant is a
//     compile error until every visitor handles it
//   - Optional fields are pointers; nil means "not set", never a sentinel
//   - No validation at construction time (month 13 is representable); the
//     calendar builder fails loudly when it cannot form a date
//   - Wire keys and field names are fixed and shared with ADDITIONAL_RULES
package rule
