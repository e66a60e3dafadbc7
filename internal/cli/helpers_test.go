package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradecal/internal/config"
)

// testOpts returns root options with an empty environment and a discard
// logger, so tests do not depend on TRADECAL_* variables.
func testOpts(t *testing.T, format string) *RootOptions {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	return &RootOptions{
		Format: format,
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const allWeekRules = `[
  {"WeekDay": "Mon"}, {"WeekDay": "Tue"}, {"WeekDay": "Wed"}, {"WeekDay": "Thu"},
  {"WeekDay": "Fri"}, {"WeekDay": "Sat"}, {"WeekDay": "Sun"}
]`

const thanksgivingSpec = `package calendars

calendar: THANKSGIVING: {
	first: 2021
	last:  2021
	rules: [
		{WeekDay: "Sat"},
		{WeekDay: "Sun"},
		{MonthWeekday: {month: 11, weekday: "Thu", nth: "Fourth", half_check: "After"}},
	]
}
`
