package purity

import (
	"testing"

	"github.com/ericmutta/rollup/pkg/shake/values"
)

func TestBuild_NestedDeclarations(t *testing.T) {
	tree := Build(map[string]any{
		"console": map[string]any{
			"log": true,
		},
		"Math":  true,
		"bogus": 42, // malformed entries are ignored, not errors
	})

	tests := []struct {
		name string
		path values.ObjectPath
		want bool
	}{
		{"nested pure leaf", values.ObjectPath{"console", "log"}, true},
		{"intermediate node not pure", values.ObjectPath{"console"}, false},
		{"sibling not pure", values.ObjectPath{"console", "error"}, false},
		{"top-level pure", values.ObjectPath{"Math"}, true},
		{"children of a pure leaf are not implied", values.ObjectPath{"Math", "max"}, false},
		{"malformed entry ignored", values.ObjectPath{"bogus"}, false},
		{"unconfigured name", values.ObjectPath{"fetch"}, false},
		{"empty path never pure", values.EmptyPath, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.PureAt(tt.path); got != tt.want {
				t.Errorf("PureAt(%v) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMerge_OnlyAddsPurity(t *testing.T) {
	tree := Build(map[string]any{"a": true})
	tree.Merge(map[string]any{
		"a": false, // false never retracts
		"b": map[string]any{"c": true},
	})

	if !tree.PureAt(values.ObjectPath{"a"}) {
		t.Error("merging false retracted an earlier purity declaration")
	}
	if !tree.PureAt(values.ObjectPath{"b", "c"}) {
		t.Error("merged nested declaration not visible")
	}
}

func TestNilSafeLookups(t *testing.T) {
	var tree *Tree
	if tree.Child("x") != nil {
		t.Error("Child on nil tree must return nil")
	}
	if Build(nil).PureAt(values.ObjectPath{"x", "y"}) {
		t.Error("empty registry reported a pure path")
	}
}

func TestDefault_KnownBuiltins(t *testing.T) {
	tree := Default()
	for _, path := range []values.ObjectPath{
		{"Object", "keys"},
		{"Math", "floor"},
		{"JSON", "stringify"},
		{"parseInt"},
	} {
		if !tree.PureAt(path) {
			t.Errorf("builtin %v not marked pure", path)
		}
	}
	if tree.PureAt(values.ObjectPath{"console", "log"}) {
		t.Error("console.log must not be pure by default")
	}
}
