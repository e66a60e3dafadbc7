package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/registry"
	"github.com/roach88/tradecal/internal/rule"
)

var (
	// ErrNotFound is returned when no snapshot exists for a name.
	ErrNotFound = errors.New("snapshot not found")

	// ErrSnapshotMismatch is returned when stored rows disagree with the
	// calendar rebuilt from the stored rules.
	ErrSnapshotMismatch = errors.New("snapshot does not match its rules")
)

// Snapshot is a persisted calendar together with the rules it was built from.
type Snapshot struct {
	ID            string
	Name          string
	FirstYear     int
	LastYear      int
	Rules         []rule.Rule
	RulesHash     string
	WireVersion   string
	EngineVersion string
	CreatedAt     time.Time
	Calendar      *calendar.Calendar
}

// SaveSnapshot persists cal under name and returns the new snapshot ID
// (a UUIDv7). cal must have been built from rules; LoadSnapshot rejects the
// snapshot otherwise. All rows are written in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, name string, rules []rule.Rule, cal *calendar.Calendar) (string, error) {
	name = registry.Normalize(name)
	if name == "" {
		return "", fmt.Errorf("save snapshot: empty name")
	}
	if cal == nil || cal.IsEmpty() {
		return "", fmt.Errorf("save snapshot %s: calendar has no build range", name)
	}

	canonical, err := rule.MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}
	hash, err := rule.Hash(rules)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: generate id: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, name, first_year, last_year, rules, rules_hash, wire_version, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id.String(),
		name,
		cal.FirstYear(),
		cal.LastYear(),
		string(canonical),
		hash,
		rule.WireVersion,
		rule.EngineVersion,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}

	if err := insertDays(ctx, tx, "snapshot_holidays", id.String(), cal.Holidays()); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}
	if err := insertDays(ctx, tx, "snapshot_half_days", id.String(), cal.HalfDays()); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}
	for _, wd := range cal.Weekend() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_weekend (snapshot_id, weekday) VALUES (?, ?)`,
			id.String(), wd.String())
		if err != nil {
			return "", fmt.Errorf("save snapshot %s: weekend: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save snapshot %s: commit: %w", name, err)
	}
	return id.String(), nil
}

// table is one of the two fixed day tables, never user input.
func insertDays(ctx context.Context, tx *sql.Tx, table, id string, days []date.Date) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (snapshot_id, day) VALUES (?, ?)`, table))
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, id, d.String()); err != nil {
			return fmt.Errorf("%s: %s: %w", table, d, err)
		}
	}
	return nil
}

// LoadSnapshot returns the latest snapshot saved under name. The calendar is
// rebuilt from the stored rules with opts and checked against the stored
// rows; any difference yields ErrSnapshotMismatch.
func (s *Store) LoadSnapshot(ctx context.Context, name string, opts ...calendar.BuildOption) (*Snapshot, error) {
	name = registry.Normalize(name)

	var (
		snap      Snapshot
		rulesJSON string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, first_year, last_year, rules, rules_hash, wire_version, engine_version, created_at
		FROM snapshots
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(
		&snap.ID,
		&snap.Name,
		&snap.FirstYear,
		&snap.LastYear,
		&rulesJSON,
		&snap.RulesHash,
		&snap.WireVersion,
		&snap.EngineVersion,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load snapshot %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}

	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("load snapshot %s: created_at: %w", name, err)
	}

	if snap.Rules, err = rule.DecodeList([]byte(rulesJSON)); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	hash, err := rule.Hash(snap.Rules)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	if hash != snap.RulesHash {
		return nil, fmt.Errorf("load snapshot %s: %w: rules hash %s, stored %s",
			name, ErrSnapshotMismatch, hash, snap.RulesHash)
	}

	snap.Calendar, err = calendar.Build(snap.Rules, snap.FirstYear, snap.LastYear, opts...)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: rebuild: %w", name, err)
	}

	if err := s.verify(ctx, &snap); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return &snap, nil
}

// verify compares the stored rows of snap with its rebuilt calendar.
func (s *Store) verify(ctx context.Context, snap *Snapshot) error {
	holidays, err := s.readDays(ctx, "snapshot_holidays", snap.ID)
	if err != nil {
		return err
	}
	if !slices.Equal(holidays, snap.Calendar.Holidays()) {
		return fmt.Errorf("%w: holidays differ (%d stored, %d rebuilt)",
			ErrSnapshotMismatch, len(holidays), len(snap.Calendar.Holidays()))
	}

	halfDays, err := s.readDays(ctx, "snapshot_half_days", snap.ID)
	if err != nil {
		return err
	}
	if !slices.Equal(halfDays, snap.Calendar.HalfDays()) {
		return fmt.Errorf("%w: half days differ (%d stored, %d rebuilt)",
			ErrSnapshotMismatch, len(halfDays), len(snap.Calendar.HalfDays()))
	}

	weekend, err := s.readWeekend(ctx, snap.ID)
	if err != nil {
		return err
	}
	rebuilt := snap.Calendar.Weekend()
	slices.Sort(rebuilt)
	if !slices.Equal(weekend, rebuilt) {
		return fmt.Errorf("%w: weekend differs", ErrSnapshotMismatch)
	}
	return nil
}

func (s *Store) readDays(ctx context.Context, table, id string) ([]date.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT day FROM %s WHERE snapshot_id = ? ORDER BY day ASC`, table), id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	return scanDays(rows)
}

func (s *Store) readWeekend(ctx context.Context, id string) ([]date.Weekday, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT weekday FROM snapshot_weekend WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query weekend: %w", err)
	}
	defer rows.Close()

	var weekend []date.Weekday
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan weekend: %w", err)
		}
		wd, err := date.ParseWeekday(text)
		if err != nil {
			return nil, fmt.Errorf("scan weekend: %w", err)
		}
		weekend = append(weekend, wd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekend: %w", err)
	}
	slices.Sort(weekend)
	return weekend, nil
}

// HolidaysBetween returns the holidays of the latest snapshot for name in
// [from, to], read directly from the stored rows.
func (s *Store) HolidaysBetween(ctx context.Context, name string, from, to date.Date) ([]date.Date, error) {
	name = registry.Normalize(name)

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots WHERE name = ? ORDER BY seq DESC LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("holidays %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("holidays %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day FROM snapshot_holidays
		WHERE snapshot_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, id, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("holidays %s: %w", name, err)
	}
	defer rows.Close()

	days, err := scanDays(rows)
	if err != nil {
		return nil, fmt.Errorf("holidays %s: %w", name, err)
	}
	if days == nil {
		days = []date.Date{}
	}
	return days, nil
}

// Names returns the distinct snapshot names, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM snapshots ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}

func scanDays(rows *sql.Rows) ([]date.Date, error) {
	var days []date.Date
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		d, err := date.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return days, nil
}
