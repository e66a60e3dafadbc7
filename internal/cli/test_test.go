package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const novemberScenario = `name: nov_2019
description: Singular closures around a weekend
first: 2019
last: 2019
rules:
  - SingularDay: 2019-11-20
  - SingularDay: 2019-11-25
  - WeekDay: Sat
  - WeekDay: Sun
checks:
  - date: 2019-11-22
    business_day: true
    next: 2019-11-26
  - date: 2019-11-25
    status: closed
    prev: 2019-11-22
`

const failingScenario = `name: wrong_expectation
description: Expects July 4th 2021 to be open
first: 2021
last: 2021
default_rules: true
checks:
  - date: 2021-07-05
    business_day: true
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir
}

func TestTest_UpdateThenMatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"nov.yaml": novemberScenario})

	out, err := execute(NewTestCommand(testOpts(t, "text")), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nov_2019 (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "nov_2019.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"2019-11-25"`)

	out, err = execute(NewTestCommand(testOpts(t, "text")), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nov_2019")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"nov.yaml": novemberScenario})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "nov_2019.golden", "{}\n")

	out, err := execute(NewTestCommand(testOpts(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ nov_2019")
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_FailedChecksJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"nov.yaml":  novemberScenario,
		"fail.yaml": failingScenario,
	})

	out, err := execute(NewTestCommand(testOpts(t, "json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	// LoadDir sorts by file name: fail.yaml before nov.yaml.
	failed := resp.Data.Scenarios[0]
	assert.Equal(t, "wrong_expectation", failed.Name)
	assert.False(t, failed.Pass)
	assert.Equal(t, []string{"2021-07-05: business_day = false, want true"}, failed.Errors)

	passed := resp.Data.Scenarios[1]
	assert.True(t, passed.Pass)
	assert.Equal(t, 2, passed.Checks)
	assert.Equal(t, "missing", passed.Golden)
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"nov.yaml":  novemberScenario,
		"fail.yaml": failingScenario,
	})

	out, err := execute(NewTestCommand(testOpts(t, "text")), dir, "--filter", "nov")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "wrong_expectation")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(testOpts(t, "text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_Errors(t *testing.T) {
	out, err := execute(NewTestCommand(testOpts(t, "text")), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")

	dir := scenarioDir(t, map[string]string{"bad.yaml": "name: x\nunknown_field: 1\n"})
	out, err = execute(NewTestCommand(testOpts(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}
