package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tradecal/internal/calendar"
	"github.com/roach88/tradecal/internal/compiler"
	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/registry"
	"github.com/roach88/tradecal/internal/rule"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every calendar and collects all errors.
	LoadModeCollectAll
)

// LoadResult contains the calendars compiled from a specs directory.
type LoadResult struct {
	Calendars []*compiler.CalendarSpec
	CUEValue  cue.Value // the raw CUE value for additional processing
	FileCount int       // number of CUE files found
}

// LoadError represents an error that occurred while loading rules.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE or rule file load failed
	ErrCodeNotFound    = "E005" // Path or calendar not found
	ErrCodeBuildFailed = "E006" // CUE build or calendar build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeInvalidArg  = "E008" // Bad date or year argument
	ErrCodeTraversal   = "E009" // Business-day search exceeded its limit
	ErrCodeStore       = "E010" // Snapshot store error

	// Calendar spec errors
	ErrCodeInvalidYear = "E020" // first/last not an integer year
	ErrCodeInvalidRule = "E021" // rules[i] failed to decode
	ErrCodeMissingRule = "E022" // calendar has no rules field
)

// LoadSpecs loads CUE calendar specs from a directory and compiles every
// calendar under the top-level "calendar" field.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	calVal := value.LookupPath(cue.ParsePath("calendar"))
	if !calVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no calendars found in specs"}}
	}

	iter, err := calVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating calendars: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		spec, compileErr := compiler.CompileCalendar(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "calendar."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Calendars = append(result.Calendars, spec)
	}

	if len(result.Calendars) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no calendars found in specs"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s.%s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "first" || field == "last":
		return ErrCodeInvalidYear
	case field == "rules":
		return ErrCodeMissingRule
	case strings.HasPrefix(field, "rules["):
		return ErrCodeInvalidRule
	case field == "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// loadErrorOf extracts the LoadError from err, wrapping foreign errors as E001.
func loadErrorOf(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// RuleSource is a resolved rule list with the range it should be built over.
type RuleSource struct {
	Name   string
	Rules  []rule.Rule
	First  int
	Last   int
	Origin string // "default", a rule file path or a specs directory
}

// ReadRulesFile decodes a JSON rule list from path.
func ReadRulesFile(path string) ([]rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading rules file: %v", err)}
	}
	rules, err := rule.DecodeList(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return rules, nil
}

// ResolveRules picks the rule source selected by the global flags.
//
// --rules wins over --specs; with neither, the default exchange table plus
// any configured additional rules is used. The build range comes from the
// spec when it sets one and from config otherwise.
func (o *RootOptions) ResolveRules() (*RuleSource, error) {
	src := &RuleSource{
		First: o.Config.FirstYear,
		Last:  o.Config.LastYear,
	}

	switch {
	case o.RulesFile != "":
		rules, err := ReadRulesFile(o.RulesFile)
		if err != nil {
			return nil, err
		}
		src.Rules = rules
		src.Origin = o.RulesFile
		src.Name = registry.Normalize(o.Calendar)
		if src.Name == "" {
			base := filepath.Base(o.RulesFile)
			src.Name = registry.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
		}

	case o.SpecsDir != "":
		loaded, errs := LoadSpecs(o.SpecsDir, LoadModeFailFast)
		if len(errs) > 0 {
			return nil, loadErrorOf(errs[0])
		}
		spec, err := selectCalendar(loaded.Calendars, o.Calendar)
		if err != nil {
			return nil, err
		}
		src.Name = registry.Normalize(spec.Name)
		src.Rules = spec.Rules
		src.Origin = o.SpecsDir
		if spec.First != nil {
			src.First = *spec.First
		}
		if spec.Last != nil {
			src.Last = *spec.Last
		}

	default:
		src.Name = exchange.DefaultCalendarName
		src.Rules = append(exchange.USRules(), o.Config.AdditionalRules...)
		src.Origin = "default"
	}

	return src, nil
}

// selectCalendar returns the spec named name, or the only spec when name is
// empty.
func selectCalendar(specs []*compiler.CalendarSpec, name string) (*compiler.CalendarSpec, error) {
	if name == "" {
		if len(specs) == 1 {
			return specs[0], nil
		}
		names := make([]string, len(specs))
		for i, s := range specs {
			names[i] = s.Name
		}
		return nil, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("specs define %d calendars %v; choose one with --calendar", len(specs), names),
		}
	}

	want := registry.Normalize(name)
	for _, s := range specs {
		if registry.Normalize(s.Name) == want {
			return s, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("calendar %q not found in specs", name)}
}

// Build builds src over [first, last] through an exchange RuleSet.
func (o *RootOptions) Build(src *RuleSource, first, last int) (*calendar.Calendar, error) {
	set, err := exchange.NewWithOptions(src.Rules, exchange.WithLogger(o.Logger)).PopulateRange(first, last)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("build %s: %v", src.Name, err)}
	}
	return set.Snapshot(), nil
}

// resolveAndBuild resolves the rule source and builds it over its own range.
func (o *RootOptions) resolveAndBuild() (*RuleSource, *calendar.Calendar, error) {
	src, err := o.ResolveRules()
	if err != nil {
		return nil, nil, err
	}
	cal, err := o.Build(src, src.First, src.Last)
	if err != nil {
		return nil, nil, err
	}
	return src, cal, nil
}

// reportLoadError writes err through f and returns the matching exit error.
func reportLoadError(f *OutputFormatter, err error) error {
	loadErr := loadErrorOf(err)
	if outErr := f.Error(loadErr.Code, loadErr.Message, nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, loadErr.Code, err)
}
