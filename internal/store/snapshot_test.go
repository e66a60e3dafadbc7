package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
	"github.com/roach88/tradecal/internal/testutil"
)

func TestSaveLoadSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2020, 2022)

	id, err := s.SaveSnapshot(ctx, "us_exchanges", rules, cal)
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	snap, err := s.LoadSnapshot(ctx, "US_EXCHANGES", quiet())
	require.NoError(t, err)

	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "US_EXCHANGES", snap.Name)
	assert.Equal(t, 2020, snap.FirstYear)
	assert.Equal(t, 2022, snap.LastYear)
	assert.Equal(t, rule.WireVersion, snap.WireVersion)
	assert.Equal(t, rule.EngineVersion, snap.EngineVersion)
	assert.WithinDuration(t, time.Now(), snap.CreatedAt, time.Minute)
	assert.True(t, rule.EqualList(rules, snap.Rules))
	assert.Equal(t, rule.MustHash(rules), snap.RulesHash)

	assert.Equal(t, cal.Holidays(), snap.Calendar.Holidays())
	assert.Equal(t, cal.HalfDays(), snap.Calendar.HalfDays())
	assert.True(t, snap.Calendar.IsHalfHoliday(date.MustNew(2021, time.November, 26)))
}

func TestLoadSnapshot_Latest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rules, cal := buildUS(t, 2020, 2020)
	_, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	rules, cal = buildUS(t, 2021, 2021)
	second, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	snap, err := s.LoadSnapshot(ctx, "US", quiet())
	require.NoError(t, err)
	assert.Equal(t, second, snap.ID)
	assert.Equal(t, 2021, snap.FirstYear)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadSnapshot(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadSnapshot_TamperedRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	id, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	_, err = s.db.Exec(`DELETE FROM snapshot_holidays WHERE snapshot_id = ? AND day = '2021-07-05'`, id)
	require.NoError(t, err)

	_, err = s.LoadSnapshot(ctx, "US", quiet())
	assert.ErrorIs(t, err, ErrSnapshotMismatch)
}

func TestLoadSnapshot_TamperedHalfDays(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	id, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	_, err = s.db.Exec(`INSERT INTO snapshot_half_days (snapshot_id, day) VALUES (?, '2021-03-01')`, id)
	require.NoError(t, err)

	_, err = s.LoadSnapshot(ctx, "US", quiet())
	assert.ErrorIs(t, err, ErrSnapshotMismatch)
}

func TestLoadSnapshot_TamperedRules(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	_, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE snapshots SET rules = '[{"WeekDay":"Sat"}]'`)
	require.NoError(t, err)

	_, err = s.LoadSnapshot(ctx, "US", quiet())
	assert.ErrorIs(t, err, ErrSnapshotMismatch)
}

func TestSaveSnapshot_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	_, err := s.SaveSnapshot(ctx, "  ", rules, cal)
	assert.Error(t, err)

	_, err = s.SaveSnapshot(ctx, "US", rules, calendar.Empty())
	assert.Error(t, err)

	_, err = s.SaveSnapshot(ctx, "US", rules, nil)
	assert.Error(t, err)

	_, err = s.SaveSnapshot(ctx, "US", []rule.Rule{rule.WeekDay{Weekday: date.Weekday(9)}}, cal)
	assert.Error(t, err)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestHolidaysBetween(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	_, err := s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	got, err := s.HolidaysBetween(ctx, "us",
		date.MustNew(2021, time.May, 1), date.MustNew(2021, time.September, 6))
	require.NoError(t, err)
	assert.Equal(t, []date.Date{
		date.MustNew(2021, time.May, 31),
		date.MustNew(2021, time.July, 5),
		date.MustNew(2021, time.September, 6),
	}, got)

	got, err = s.HolidaysBetween(ctx, "US",
		date.MustNew(2021, time.March, 1), date.MustNew(2021, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = s.HolidaysBetween(ctx, "LSE",
		date.MustNew(2021, time.March, 1), date.MustNew(2021, time.March, 31))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)

	for _, name := range []string{"b", "A", "b"} {
		_, err := s.SaveSnapshot(ctx, name, rules, cal)
		require.NoError(t, err)
	}

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestSaveSnapshot_UsesClock(t *testing.T) {
	clock := testutil.NewStepClock(testutil.Epoch, time.Hour)
	s, err := Open(filepath.Join(t.TempDir(), "clock.db"), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	rules, cal := buildUS(t, 2021, 2021)
	_, err = s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "US", rules, cal)
	require.NoError(t, err)

	snap, err := s.LoadSnapshot(ctx, "US", quiet())
	require.NoError(t, err)
	assert.True(t, testutil.Epoch.Add(time.Hour).Equal(snap.CreatedAt), "created_at = %s", snap.CreatedAt)
	assert.Equal(t, int64(2), clock.Calls())
}
