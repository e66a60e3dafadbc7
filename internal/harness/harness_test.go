package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios", "")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestLoadDir_Filter(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios", "2021")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "us_2021", scenarios[0].Name)
}

func TestRun_ReportsFailedChecks(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong
description: Expectations that do not hold
first: 2021
last: 2021
default_rules: true
checks:
  - date: 2021-01-18
    holiday: false
    prev: 2021-01-14
  - date: 2021-07-03
    status: open
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, 2, result.Checks)
	assert.Equal(t, []string{
		"2021-01-18: holiday = true, want false",
		"2021-01-18: prev = 2021-01-15, want 2021-01-14",
		"2021-07-03: status = weekend, want open",
	}, result.Errors)
}

func TestRun_ExpectErrorMismatch(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: no_error
description: The build succeeds
first: 2021
last: 2021
rules:
  - WeekDay: Sun
expect_error: INVALID_DATE
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Nil(t, result.Calendar)
	assert.Contains(t, result.Errors[0], "build succeeded")
}

func TestRun_BuildFailureIsReported(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: inverted
description: Inverted range
first: 2022
last: 2021
rules:
  - WeekDay: Sun
checks:
  - date: 2021-01-04
    business_day: true
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "INVALID_RANGE")
}

func TestRun_BadRules(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad
description: Unknown variant
first: 2021
last: 2021
rules:
  - Lunar: {month: 1}
checks:
  - date: 2021-01-04
    business_day: true
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, rule.ErrUnknownVariant)
}

func TestDecodeRules_UnquotedDates(t *testing.T) {
	s := &Scenario{Rules: []any{
		map[string]any{"SingularDay": "2020-02-03"},
	}}
	s2, err := ParseScenario([]byte(`
name: dates
description: Unquoted and quoted dates decode alike
first: 2020
last: 2020
rules:
  - SingularDay: 2020-02-03
checks:
  - date: 2020-02-03
    holiday: true
`))
	require.NoError(t, err)

	a, err := s.DecodeRules()
	require.NoError(t, err)
	b, err := s2.DecodeRules()
	require.NoError(t, err)
	assert.True(t, rule.EqualList(a, b))
	assert.Equal(t, rule.SingularDay{Date: date.MustNew(2020, 2, 3)}, b[0])
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\ncheck: []\n",
			want: "field check not found",
		},
		{
			name: "missing name",
			yaml: "description: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\n",
			want: "name is required",
		},
		{
			name: "missing range",
			yaml: "name: x\ndescription: y\ndefault_rules: true\nchecks: [{date: 2021-01-04}]\n",
			want: "first and last are required",
		},
		{
			name: "no rules",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\nchecks: [{date: 2021-01-04}]\n",
			want: "rules are required",
		},
		{
			name: "no checks",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\n",
			want: "checks list is required",
		},
		{
			name: "unknown status",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\nchecks: [{date: 2021-01-04, status: shut}]\n",
			want: `unknown status "shut"`,
		},
		{
			name: "bad date",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\nchecks: [{date: 2021-02-30}]\n",
			want: "failed to parse YAML",
		},
		{
			name: "unknown error code",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\nexpect_error: BOOM\n",
			want: `unknown code "BOOM"`,
		},
		{
			name: "checks with expect_error",
			yaml: "name: x\ndescription: y\nfirst: 2021\nlast: 2021\ndefault_rules: true\nexpect_error: INVALID_DATE\nchecks: [{date: 2021-01-04}]\n",
			want: "cannot be combined",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalDump_EmptyLists(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bare
description: Weekend only
first: 2021
last: 2021
rules:
  - WeekDay: Sun
checks:
  - date: 2021-01-03
    weekend: true
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	data, err := MarshalDump(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"first":2021,"last":2021,"weekend":["Sun"],"holidays":[],"half_days":[]}`, string(data))
}
