package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default limits and toggles.
const (
	// DefaultMaxPasses bounds the fixed-point driver. Well-formed inputs
	// converge in a handful of passes; the bound exists so that a logic
	// defect surfaces as an error instead of a hang.
	DefaultMaxPasses = 100

	// DefaultFormat is the output format when stdout is not a terminal.
	DefaultFormat = "json"
)

// Options carries every analysis and output knob.
type Options struct {
	// UnknownGlobalSideEffects treats bare reads of unresolved globals
	// as effects. On by default: an unknown global may be a getter.
	UnknownGlobalSideEffects bool

	// MaxPasses bounds the number of analysis passes before the run is
	// aborted as non-converging.
	MaxPasses int

	// PureFunctions augments the builtin purity registry. Keys nest per
	// property segment; a true leaf marks the whole subtree pure.
	PureFunctions map[string]any

	// Format selects the report rendering: "human" or "json".
	Format string

	// Verbose enables progress logging, VeryVerbose per-pass detail.
	Verbose     bool
	VeryVerbose bool
	Silent      bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() *Options {
	return &Options{
		UnknownGlobalSideEffects: true,
		MaxPasses:                DefaultMaxPasses,
		Format:                   DefaultFormat,
	}
}

// VerboseLevel maps the flags to the logger's numeric level.
func (o *Options) VerboseLevel() int {
	switch {
	case o.VeryVerbose:
		return 2
	case o.Verbose:
		return 1
	}
	return 0
}

// Validate rejects option combinations the analysis cannot honor.
func (o *Options) Validate() error {
	if o.MaxPasses <= 0 {
		return fmt.Errorf("max passes must be positive, got %d", o.MaxPasses)
	}
	switch o.Format {
	case "human", "json":
	default:
		return fmt.Errorf("unknown output format %q", o.Format)
	}
	return nil
}

// ParsePureFunctions decodes a purity declaration document. The format
// is nested YAML maps with boolean leaves:
//
//	console:
//	  log: true
//	Math: true
func ParsePureFunctions(data []byte) (map[string]any, error) {
	decl := make(map[string]any)
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("parsing purity declarations: %w", err)
	}
	return decl, nil
}

// LoadPureFunctions reads purity declarations from a YAML file.
func LoadPureFunctions(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading purity declarations: %w", err)
	}
	return ParsePureFunctions(data)
}
