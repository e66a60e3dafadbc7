package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Rule sources, in priority order: RulesFile, SpecsDir, default table.
	RulesFile string
	SpecsDir  string
	Calendar  string

	// Populated by prepare.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tradecal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tradecal",
		Short: "tradecal - exchange trading calendars",
		Long: `Build exchange trading calendars from declarative holiday rules and
answer business-day questions against them.

Rules come from a JSON rule file (--rules), a CUE specs directory
(--specs, optionally --calendar), or the built-in US exchange table
plus TRADECAL_ADDITIONAL_RULES.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.RulesFile, "rules", "", "JSON rule list file")
	cmd.PersistentFlags().StringVar(&opts.SpecsDir, "specs", "", "CUE calendar specs directory")
	cmd.PersistentFlags().StringVar(&opts.Calendar, "calendar", "", "calendar name (selects a spec, names a rule file)")

	// Add subcommands
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewPrevCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// prepare validates global flags and loads config and logger. It is safe to
// call more than once; later calls keep what is already set.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		o.Config = cfg
	}

	if o.Logger == nil {
		level := o.Config.LogLevel
		if o.Verbose {
			level = slog.LevelDebug
		}
		handlerOpts := &slog.HandlerOptions{Level: level}
		// Logs always go to stderr; JSON mode keeps stdout a single envelope.
		if o.Format == "json" {
			o.Logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts))
		} else {
			o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts))
		}
	}
	return nil
}

// formatter returns an OutputFormatter bound to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
