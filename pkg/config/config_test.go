package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.UnknownGlobalSideEffects {
		t.Error("unknown global side effects must default on")
	}
	if opts.MaxPasses != DefaultMaxPasses {
		t.Errorf("max passes = %d, want %d", opts.MaxPasses, DefaultMaxPasses)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"zero passes", func(o *Options) { o.MaxPasses = 0 }, true},
		{"negative passes", func(o *Options) { o.MaxPasses = -1 }, true},
		{"bad format", func(o *Options) { o.Format = "xml" }, true},
		{"human format", func(o *Options) { o.Format = "human" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(opts)
			if err := opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerboseLevel(t *testing.T) {
	opts := DefaultOptions()
	if opts.VerboseLevel() != 0 {
		t.Error("default verbosity not silent")
	}
	opts.Verbose = true
	if opts.VerboseLevel() != 1 {
		t.Error("verbose flag not level 1")
	}
	opts.VeryVerbose = true
	if opts.VerboseLevel() != 2 {
		t.Error("very verbose flag not level 2")
	}
}

func TestParsePureFunctions(t *testing.T) {
	doc := []byte(`
console:
  log: true
  error: false
Math: true
`)
	pure, err := ParsePureFunctions(doc)
	if err != nil {
		t.Fatalf("ParsePureFunctions: %v", err)
	}
	consoleDecl, ok := pure["console"].(map[string]any)
	if !ok {
		t.Fatalf("console decl = %T, want nested map", pure["console"])
	}
	if consoleDecl["log"] != true {
		t.Errorf("console.log = %v, want true", consoleDecl["log"])
	}
	if pure["Math"] != true {
		t.Errorf("Math = %v, want true", pure["Math"])
	}

	if _, err := ParsePureFunctions([]byte("{invalid: [yaml")); err == nil {
		t.Error("malformed document accepted")
	}
}

func TestLoadPureFunctions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pure.yaml")
	if err := os.WriteFile(path, []byte("JSON:\n  parse: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pure, err := LoadPureFunctions(path)
	if err != nil {
		t.Fatalf("LoadPureFunctions: %v", err)
	}
	if _, ok := pure["JSON"]; !ok {
		t.Error("loaded declarations missing JSON entry")
	}

	if _, err := LoadPureFunctions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
