// Package harness runs calendar scenarios written in YAML.
//
// A scenario names a rule list (the default US table, explicit rules in the
// JSON wire shape, or both), a build range, and per-date checks:
//
//	name: us_2021
//	description: Default table over 2021
//	first: 2021
//	last: 2021
//	default_rules: true
//	checks:
//	  - date: 2021-01-18
//	    holiday: true
//	    prev: 2021-01-15
//
// Scenarios may instead expect the build to fail with a given
// calendar.BuildErrorCode (expect_error).
//
// RunWithGolden additionally compares the built calendar against
// testdata/golden/<name>.golden. Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
