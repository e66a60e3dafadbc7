package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/api"
	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/metrics"
	"github.com/roach88/tradecal/internal/registry"
	"github.com/roach88/tradecal/internal/store"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string // optional; snapshots are loaded into the registry
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendars over HTTP",
		Long: `Start the HTTP API. The default US exchange calendar is always served.
A calendar selected with --rules or --specs is served too, as is the
latest snapshot of every calendar in --db.

Stops gracefully on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $TRADECAL_ADDR or :8080)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot database to load")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	logger := opts.Logger

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	reg, err := buildServeRegistry(ctx, opts, m)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load calendars", err)
	}

	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	handler := api.New(reg,
		api.WithLogger(logger),
		api.WithMetrics(m),
		api.WithCORSOrigins(opts.Config.CORSOrigins...),
	).Handler()

	logger.Info("serving", "addr", ln.Addr().String(), "calendars", reg.Names())
	if err := serveUntilDone(ctx, ln, handler, logger); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}

// buildServeRegistry registers the default calendar, the flag-selected
// calendar and every stored snapshot. Later registrations replace earlier
// ones under the same name.
func buildServeRegistry(ctx context.Context, opts *ServeOptions, m *metrics.Metrics) (*registry.Registry, error) {
	reg := registry.New(registry.WithLogger(opts.Logger), registry.WithObserver(m))

	set, err := exchange.WithDefaultRules(true,
		exchange.WithAdditionalRules(opts.Config.AdditionalRules...),
		exchange.WithLogger(opts.Logger),
		exchange.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", exchange.DefaultCalendarName, err)
	}
	if err := reg.RegisterRules(exchange.DefaultCalendarName, set.Rules(), set.Snapshot()); err != nil {
		return nil, err
	}

	if opts.RulesFile != "" || opts.SpecsDir != "" {
		src, err := opts.ResolveRules()
		if err != nil {
			return nil, err
		}
		set, err := exchange.NewWithOptions(src.Rules,
			exchange.WithLogger(opts.Logger),
			exchange.WithMetrics(m),
		).PopulateRange(src.First, src.Last)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", src.Name, err)
		}
		if err := reg.RegisterRules(src.Name, set.Rules(), set.Snapshot()); err != nil {
			return nil, err
		}
	}

	if opts.Database == "" {
		return reg, nil
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	defer st.Close()

	names, err := st.Names(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		snap, err := st.LoadSnapshot(ctx, name, calendar.WithLogger(opts.Logger), calendar.WithObserver(m))
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", name, err)
		}
		if err := reg.RegisterRules(snap.Name, snap.Rules, snap.Calendar); err != nil {
			return nil, err
		}
		opts.Logger.Debug("snapshot loaded", "calendar", snap.Name, "id", snap.ID, "created_at", snap.CreatedAt)
	}
	return reg, nil
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down
// gracefully.
func serveUntilDone(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
