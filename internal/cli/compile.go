package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tradecal/internal/compiler"
	"github.com/roach88/tradecal/internal/rule"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult describes one compiled calendar.
type CompilationResult struct {
	Calendar string          `json:"calendar"`
	Rules    json.RawMessage `json:"rules"`
	Hash     string          `json:"hash"`
	Output   string          `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile a CUE calendar spec to a JSON rule list",
		Long: `Compile a calendar from CUE specs to the JSON rule list wire format
accepted by --rules and TRADECAL_ADDITIONAL_RULES.

When the specs define more than one calendar, choose one with --calendar.
Without -o the rule list is written to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	loaded, loadErrs := LoadSpecs(specsDir, LoadModeCollectAll)
	if loaded == nil || len(loaded.Calendars) == 0 {
		return reportLoadError(f, loadErrs[0])
	}
	if len(loadErrs) > 0 {
		return outputLoadErrors(f, loadErrs)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)

	spec, err := selectCalendar(loaded.Calendars, opts.Calendar)
	if err != nil {
		return reportLoadError(f, err)
	}

	data, err := rule.EncodeListIndent(spec.Rules, "  ")
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("encode %s: %v", spec.Name, err)})
	}
	data = append(data, '\n')

	hash, err := rule.Hash(spec.Rules)
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("hash %s: %v", spec.Name, err)})
	}

	if opts.Output == "" {
		if f.Format == "json" {
			return f.Success(CompilationResult{Calendar: spec.Name, Rules: data, Hash: hash}, nil)
		}
		_, err := f.Writer.Write(data)
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("failed to write output: %v", err)})
	}
	f.VerboseLog("Wrote %d bytes to %s", len(data), opts.Output)

	result := CompilationResult{Calendar: spec.Name, Rules: data, Hash: hash, Output: opts.Output}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Compiled %s (%d rule(s)) to %s\n", spec.Name, len(spec.Rules), opts.Output)
	})
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output  string
	Package string
	First   int
	Last    int
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <rules.json>",
		Short: "Convert a JSON rule list to a CUE calendar spec",
		Long: `Render a JSON rule list as a CUE calendar spec that compile and
--specs accept. The calendar is named by --calendar, or after the file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Package, "package", "calendars", "CUE package name (empty for none)")
	cmd.Flags().IntVar(&opts.First, "first", 0, "first year of the build range (0 to omit)")
	cmd.Flags().IntVar(&opts.Last, "last", 0, "last year of the build range (0 to omit)")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	// Reuse the --rules naming so exported names match what show would use.
	fileOpts := *opts.RootOptions
	fileOpts.RulesFile = path
	fileOpts.SpecsDir = ""
	src, err := fileOpts.ResolveRules()
	if err != nil {
		return reportLoadError(f, err)
	}

	spec := &compiler.CalendarSpec{Name: src.Name, Rules: src.Rules}
	if opts.First != 0 {
		spec.First = &opts.First
	}
	if opts.Last != 0 {
		spec.Last = &opts.Last
	}

	body, err := compiler.ExportCUE(spec)
	if err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	if opts.Package != "" {
		body = append([]byte(fmt.Sprintf("package %s\n\n", opts.Package)), body...)
	}

	if opts.Output == "" {
		if f.Format == "json" {
			return f.Success(map[string]string{"calendar": spec.Name, "cue": string(body)}, nil)
		}
		_, err := f.Writer.Write(body)
		return err
	}

	if err := os.WriteFile(opts.Output, body, 0644); err != nil {
		return reportLoadError(f, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("failed to write output: %v", err)})
	}
	return f.Success(map[string]string{"calendar": spec.Name, "output": opts.Output}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Exported %s (%d rule(s)) to %s\n", spec.Name, len(spec.Rules), opts.Output)
	})
}
