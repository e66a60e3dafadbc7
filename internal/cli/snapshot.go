package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/registry"
	"github.com/roach88/tradecal/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
	Name     string // overrides the resolved calendar name
	List     bool
}

// SnapshotResult describes a saved snapshot.
type SnapshotResult struct {
	ID       string `json:"id"`
	Calendar string `json:"calendar"`
	First    int    `json:"first"`
	Last     int    `json:"last"`
	Holidays int    `json:"holidays"`
	HalfDays int    `json:"half_days"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot [first-year [last-year]]",
		Short: "Persist a built calendar to the snapshot store",
		Long: `Build the selected calendar and save its rules and generated dates
to a SQLite snapshot store that serve can load at startup.

The range defaults to the spec or configured range. With --list, print the
calendar names stored in the database instead.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot database path (default $TRADECAL_DB or tradecal.db)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "calendar name to store under")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list stored calendar names")

	return cmd
}

func runSnapshot(ctx context.Context, opts *SnapshotOptions, args []string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DBPath
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database: %v", err)})
	}
	defer st.Close()
	f.VerboseLog("Opened snapshot store %s", dbPath)

	if opts.List {
		names, err := st.Names(ctx)
		if err != nil {
			return reportLoadError(f, &LoadError{Code: ErrCodeStore, Message: err.Error()})
		}
		return f.Success(map[string][]string{"calendars": names}, func(w io.Writer) {
			for _, n := range names {
				fmt.Fprintln(w, n)
			}
		})
	}

	src, err := opts.ResolveRules()
	if err != nil {
		return reportLoadError(f, err)
	}
	first, last := src.First, src.Last
	if len(args) > 0 {
		if first, last, err = parseYearRange(args); err != nil {
			return reportLoadError(f, err)
		}
	}
	cal, err := opts.Build(src, first, last)
	if err != nil {
		return reportLoadError(f, err)
	}

	name := src.Name
	if opts.Name != "" {
		name = registry.Normalize(opts.Name)
	}
	id, err := st.SaveSnapshot(ctx, name, src.Rules, cal)
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeStore, Message: err.Error()})
	}
	opts.Logger.Info("snapshot saved", "id", id, "calendar", name, "first", first, "last", last)

	result := SnapshotResult{
		ID:       id,
		Calendar: name,
		First:    first,
		Last:     last,
		Holidays: len(cal.Holidays()),
		HalfDays: len(cal.HalfDays()),
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Saved %s %d-%d as %s (%d holidays, %d half days)\n",
			name, first, last, id, result.Holidays, result.HalfDays)
	})
}
