// Package purity holds the configuration-driven table of call targets
// known a priori to be side-effect-free. It only ever suppresses effect
// flags; dependency inclusion is decided elsewhere.
package purity

import "github.com/ericmutta/rollup/pkg/shake/values"

// Tree is one node of the registry, keyed by dotted access path.
// A node may be pure at its exact path and still have impure children,
// and vice versa.
type Tree struct {
	Pure     bool
	children map[string]*Tree
}

// New returns an empty, all-conservative registry.
func New() *Tree {
	return &Tree{children: make(map[string]*Tree)}
}

// Build converts a decoded configuration mapping into a registry.
// A `true` value marks the path pure, a nested mapping recurses.
// Malformed entries are treated as absent, never as errors.
func Build(raw map[string]any) *Tree {
	t := New()
	t.Merge(raw)
	return t
}

// Merge layers additional configuration over the registry. Later
// entries only ever add purity, matching the monotone registry model.
func (t *Tree) Merge(raw map[string]any) {
	for name, v := range raw {
		switch val := v.(type) {
		case bool:
			if val {
				t.child(name).Pure = true
			}
		case map[string]any:
			t.child(name).Merge(val)
		default:
			// unrecognized shape, fall back to conservative
		}
	}
}

func (t *Tree) child(name string) *Tree {
	c, ok := t.children[name]
	if !ok {
		c = New()
		t.children[name] = c
	}
	return c
}

// Child returns the subtree for one path segment, or nil. Safe to call
// on a nil receiver so lookups can walk blindly.
func (t *Tree) Child(name string) *Tree {
	if t == nil {
		return nil
	}
	return t.children[name]
}

// At walks the queried path segment by segment. Absence of any segment
// means "not configured pure".
func (t *Tree) At(path values.ObjectPath) *Tree {
	node := t
	for _, key := range path {
		node = node.Child(string(key))
		if node == nil {
			return nil
		}
	}
	return node
}

// PureAt reports whether the registry marks this exact path pure.
func (t *Tree) PureAt(path values.ObjectPath) bool {
	node := t.At(path)
	return node != nil && node.Pure
}

// Default is the built-in registry of standard pure call targets; user
// configuration is merged on top of it.
func Default() *Tree {
	return Build(map[string]any{
		"Object": map[string]any{
			"keys":    true,
			"values":  true,
			"entries": true,
		},
		"Math": map[string]any{
			"abs":    true,
			"ceil":   true,
			"floor":  true,
			"max":    true,
			"min":    true,
			"random": true,
			"round":  true,
			"sqrt":   true,
			"trunc":  true,
		},
		"JSON": map[string]any{
			"parse":     true,
			"stringify": true,
		},
		"String":             true,
		"Number":             true,
		"Boolean":            true,
		"isNaN":              true,
		"isFinite":           true,
		"parseInt":           true,
		"parseFloat":         true,
		"encodeURIComponent": true,
		"decodeURIComponent": true,
	})
}
