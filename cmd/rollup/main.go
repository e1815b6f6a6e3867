package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/mattn/go-isatty"

	"github.com/ericmutta/rollup/pkg/config"
	"github.com/ericmutta/rollup/pkg/logger"
	"github.com/ericmutta/rollup/pkg/output"
	"github.com/ericmutta/rollup/pkg/shake"
)

// manifest is the on-disk description of a module graph: sources plus
// the import/export metadata module resolution produced.
type manifest struct {
	Modules []manifestModule `json:"modules"`
}

type manifestModule struct {
	ID      string           `json:"id"`
	File    string           `json:"file,omitempty"`
	Source  string           `json:"source,omitempty"`
	Entry   bool             `json:"entry"`
	Imports []manifestImport `json:"imports,omitempty"`
	Exports []manifestExport `json:"exports,omitempty"`
}

type manifestImport struct {
	LocalName    string `json:"local_name"`
	Source       string `json:"source"`
	ImportedName string `json:"imported_name"`
	External     bool   `json:"external"`
	SideEffects  bool   `json:"side_effects"`
}

type manifestExport struct {
	Name      string `json:"name"`
	LocalName string `json:"local_name"`
}

func main() {
	var (
		manifestPath string
		entryPath    string
		purePath     string
		noGlobalFx   bool
		format       string
		maxPasses    int
		verbose      bool
		veryVerbose  bool
		silent       bool
	)

	// Define flags with both short and long names
	flag.StringVar(&manifestPath, "m", "", "Module graph manifest (JSON)")
	flag.StringVar(&manifestPath, "manifest", "", "Module graph manifest (JSON)")

	flag.StringVar(&entryPath, "e", "", "Single entry module (plain script, no imports)")
	flag.StringVar(&entryPath, "entry", "", "Single entry module (plain script, no imports)")

	flag.StringVar(&purePath, "p", "", "Extra pure call targets (YAML)")
	flag.StringVar(&purePath, "pure", "", "Extra pure call targets (YAML)")

	flag.BoolVar(&noGlobalFx, "nge", false, "Treat bare global reads as side-effect-free")
	flag.BoolVar(&noGlobalFx, "no-global-effects", false, "Treat bare global reads as side-effect-free")

	flag.StringVar(&format, "f", "", "Output format: human or json (default: human on a terminal)")
	flag.StringVar(&format, "format", "", "Output format: human or json (default: human on a terminal)")

	flag.IntVar(&maxPasses, "mp", config.DefaultMaxPasses, "Maximum analysis passes before aborting")
	flag.IntVar(&maxPasses, "max-passes", config.DefaultMaxPasses, "Maximum analysis passes before aborting")

	flag.BoolVar(&verbose, "v", false, "Verbose output")
	flag.BoolVar(&veryVerbose, "vv", false, "Very verbose output")
	flag.BoolVar(&silent, "s", false, "Silent mode (suppress errors)")
	flag.BoolVar(&silent, "silent", false, "Silent mode (suppress errors)")

	// Custom Usage function
	flag.Usage = func() {
		h := `rollup - module graph treeshaker

Usage:
  rollup [flags]

Flags:
  -m, --manifest string    Module graph manifest (JSON)
  -e, --entry string       Single entry module (plain script, no imports)
  -p, --pure string        Extra pure call targets (YAML)
  -nge, --no-global-effects  Treat bare global reads as side-effect-free
  -f, --format string      Output format: human or json (default: human on a terminal)
  -mp, --max-passes int    Maximum analysis passes before aborting (default 100)
  -v                       Verbose output
  -vv                      Very verbose output
  -s, --silent             Silent mode (suppress errors)

Examples:
  rollup -e main.js
  rollup -m graph.json -f json
  rollup -m graph.json --pure pure.yaml -vv
`
		fmt.Fprint(os.Stderr, h)
	}

	flag.Parse()

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if format == "" {
		if tty {
			format = "human"
		} else {
			format = config.DefaultFormat
		}
	}

	opts := config.DefaultOptions()
	opts.UnknownGlobalSideEffects = !noGlobalFx
	opts.MaxPasses = maxPasses
	opts.Format = format
	opts.Verbose = verbose
	opts.VeryVerbose = veryVerbose
	opts.Silent = silent

	log := logger.NewLogger(opts.VerboseLevel())

	if err := opts.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(2)
	}
	if (manifestPath == "") == (entryPath == "") {
		log.Error("exactly one of -m/--manifest and -e/--entry is required")
		flag.Usage()
		os.Exit(2)
	}

	if purePath != "" {
		pure, err := config.LoadPureFunctions(purePath)
		if err != nil {
			log.Error("%v", err)
			os.Exit(2)
		}
		opts.PureFunctions = pure
	}

	records, err := loadRecords(manifestPath, entryPath)
	if err != nil {
		log.Error("%v", err)
		os.Exit(2)
	}

	graph := shake.NewGraph(opts, log)
	for _, rec := range records {
		if _, err := graph.AddModule(rec); err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
	}
	if err := graph.Include(); err != nil {
		if !silent {
			log.Error("%v", err)
		}
		os.Exit(1)
	}

	fmt.Print(output.Format(graph.Report(), format, tty))
}

func loadRecords(manifestPath, entryPath string) ([]shake.ModuleRecord, error) {
	if entryPath != "" {
		prog, err := parseFile(entryPath, "")
		if err != nil {
			return nil, err
		}
		return []shake.ModuleRecord{{ID: entryPath, Program: prog, Entry: true}}, nil
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var mf manifest
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(mf.Modules) == 0 {
		return nil, fmt.Errorf("manifest %s declares no modules", manifestPath)
	}

	records := make([]shake.ModuleRecord, 0, len(mf.Modules))
	for _, mod := range mf.Modules {
		prog, err := parseFile(mod.File, mod.Source)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", mod.ID, err)
		}
		rec := shake.ModuleRecord{ID: mod.ID, Program: prog, Entry: mod.Entry}
		for _, imp := range mod.Imports {
			rec.Imports = append(rec.Imports, shake.ImportRecord{
				LocalName:    imp.LocalName,
				Source:       imp.Source,
				ImportedName: imp.ImportedName,
				External:     imp.External,
				SideEffects:  imp.SideEffects,
			})
		}
		for _, exp := range mod.Exports {
			rec.Exports = append(rec.Exports, shake.ExportRecord{
				ExportedName: exp.Name,
				LocalName:    exp.LocalName,
			})
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFile(path, inline string) (*ast.Program, error) {
	src := inline
	name := "<inline>"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		src = string(data)
		name = path
	}
	prog, err := parser.ParseFile(nil, name, src, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return prog, nil
}
