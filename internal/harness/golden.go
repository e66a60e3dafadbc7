package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario, fails t on any check failure, and compares
// the built calendar against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not be run.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	if result.Calendar == nil {
		return nil
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the result's calendar against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	if result.Calendar == nil {
		return fmt.Errorf("%s: no calendar to compare", name)
	}
	data, err := MarshalDump(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// MarshalDump renders the result's calendar dump as indented JSON with a
// trailing newline.
func MarshalDump(result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(Dump(result.Calendar), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal dump: %w", err)
	}
	return append(data, '\n'), nil
}
