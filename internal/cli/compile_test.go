package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

func thanksgivingRules() []rule.Rule {
	return []rule.Rule{
		rule.WeekDay{Weekday: date.Saturday},
		rule.WeekDay{Weekday: date.Sunday},
		rule.MonthWeekday{Month: 11, Weekday: date.Thursday, Nth: rule.Fourth, HalfCheck: rule.Half(rule.After)},
	}
}

func TestCompile_Stdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "thanksgiving.cue", thanksgivingSpec)

	out, err := execute(NewCompileCommand(testOpts(t, "text")), dir)
	require.NoError(t, err)

	rules, err := rule.DecodeList([]byte(out))
	require.NoError(t, err)
	assert.True(t, rule.EqualList(thanksgivingRules(), rules))
}

func TestCompile_OutputFileJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "thanksgiving.cue", thanksgivingSpec)
	outPath := filepath.Join(t.TempDir(), "rules.json")

	out, err := execute(NewCompileCommand(testOpts(t, "json")), dir, "-o", outPath)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "THANKSGIVING", resp.Data.Calendar)
	assert.Equal(t, rule.MustHash(thanksgivingRules()), resp.Data.Hash)
	assert.Equal(t, outPath, resp.Data.Output)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	rules, err := rule.DecodeList(data)
	require.NoError(t, err)
	assert.True(t, rule.EqualList(thanksgivingRules(), rules))
}

func TestCompile_SelectCalendar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "thanksgiving.cue", thanksgivingSpec)
	writeFile(t, dir, "sunday.cue", `package calendars

calendar: "sunday only": rules: [{WeekDay: "Sun"}]
`)

	out, err := execute(NewCompileCommand(testOpts(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "choose one with --calendar")

	opts := testOpts(t, "text")
	opts.Calendar = "Sunday Only"
	out, err = execute(NewCompileCommand(opts), dir)
	require.NoError(t, err)
	rules, err := rule.DecodeList([]byte(out))
	require.NoError(t, err)
	assert.True(t, rule.EqualList([]rule.Rule{rule.WeekDay{Weekday: date.Sunday}}, rules))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		codes []string
	}{
		{"no cue files", map[string]string{"notes.txt": "hello"}, []string{ErrCodeNoFiles}},
		{"no calendars", map[string]string{"empty.cue": "package calendars\n\nx: 1\n"}, []string{ErrCodeGeneric}},
		{"cue syntax", map[string]string{"bad.cue": "package calendars\n\ncalendar: {\n"}, []string{ErrCodeLoadFailed, ErrCodeBuildFailed}},
		{"bad year", map[string]string{"year.cue": "package calendars\n\ncalendar: X: {first: \"2021\", rules: []}\n"}, []string{ErrCodeInvalidYear}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			out, err := execute(NewCompileCommand(testOpts(t, "json")), dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Contains(t, tt.codes, resp.Error.Code)
		})
	}
}

func TestCompile_DirectoryNotFound(t *testing.T) {
	out, err := execute(NewCompileCommand(testOpts(t, "text")), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, out, "specs directory not found")
}

func TestExport_RoundTrip(t *testing.T) {
	data, err := rule.EncodeList(thanksgivingRules())
	require.NoError(t, err)
	rulesPath := writeFile(t, t.TempDir(), "my_rules.json", string(data))

	specsDir := t.TempDir()
	outPath := filepath.Join(specsDir, "my_rules.cue")
	out, err := execute(NewExportCommand(testOpts(t, "text")), rulesPath, "-o", outPath, "--first", "2020")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Exported MY_RULES (3 rule(s))")

	loaded, errs := LoadSpecs(specsDir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, loaded.Calendars, 1)
	spec := loaded.Calendars[0]
	assert.Equal(t, "MY_RULES", spec.Name)
	require.NotNil(t, spec.First)
	assert.Equal(t, 2020, *spec.First)
	assert.Nil(t, spec.Last)
	assert.True(t, rule.EqualList(thanksgivingRules(), spec.Rules))
}

func TestExport_Stdout(t *testing.T) {
	rulesPath := writeFile(t, t.TempDir(), "weekend.json", `[{"WeekDay": "Sat"}]`)

	opts := testOpts(t, "text")
	opts.Calendar = "nyse"
	out, err := execute(NewExportCommand(opts), rulesPath, "--package", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "package")
	assert.Contains(t, out, "NYSE")
	assert.Contains(t, out, `WeekDay: "Sat"`)
}

func TestExport_BadFile(t *testing.T) {
	rulesPath := writeFile(t, t.TempDir(), "bad.json", `[{"WeekDay": "Funday"}]`)

	out, err := execute(NewExportCommand(testOpts(t, "text")), rulesPath)
	require.Error(t, err)
	assert.Contains(t, out, "Error [E004]")
}
