package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/rule"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func quiet() calendar.BuildOption {
	return calendar.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// buildUS builds the default table over [first, last].
func buildUS(t *testing.T, first, last int) ([]rule.Rule, *calendar.Calendar) {
	t.Helper()
	rules := exchange.USRules()
	cal, err := calendar.Build(rules, first, last, quiet())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return rules, cal
}
