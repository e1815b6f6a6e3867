// Package scope builds the tree of lexical scopes and owns the
// variable store. Hoisting rules differ between function-scoped and
// block-scoped declarations; the binder in pkg/shake drives Declare
// with the right target scope through FunctionScope.
package scope

import (
	"github.com/ericmutta/rollup/pkg/shake/purity"
)

// Kind is the lexical kind of a scope.
type Kind int

const (
	// ModuleScope is the root scope of one module.
	ModuleScope Kind = iota
	// FunctionScope is the body scope of a function.
	FunctionScope
	// BlockScope is any nested block.
	BlockScope
)

// Scope is a node in the scope tree, owned by its parent.
type Scope struct {
	kind     Kind
	parent   *Scope
	vars     map[string]Variable
	registry *purity.Tree // root scope only
	globals  map[string]*GlobalVariable
}

// NewRootScope creates the module scope. Unresolved names materialize
// ambient globals here, consulting the purity registry.
func NewRootScope(registry *purity.Tree) *Scope {
	return &Scope{
		kind:     ModuleScope,
		vars:     make(map[string]Variable),
		registry: registry,
		globals:  make(map[string]*GlobalVariable),
	}
}

// NewScope creates a child scope of the given kind.
func NewScope(parent *Scope, kind Kind) *Scope {
	return &Scope{kind: kind, parent: parent, vars: make(map[string]Variable)}
}

// Kind returns the scope's lexical kind.
func (s *Scope) Kind() Kind { return s.kind }

// Parent returns the owning scope, nil for the module scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Root returns the module scope.
func (s *Scope) Root() *Scope {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// FunctionScope returns the nearest enclosing function-or-module
// scope, possibly s itself. Function-scoped declarations attach here
// even when declared inside nested blocks.
func (s *Scope) FunctionScope() *Scope {
	f := s
	for f.kind == BlockScope {
		f = f.parent
	}
	return f
}

// Declared returns the variable declared directly in this scope, if
// any.
func (s *Scope) Declared(name string) Variable {
	return s.vars[name]
}

// Set registers a variable in this scope. The binder owns naming
// conflicts; Set overwrites silently.
func (s *Scope) Set(name string, v Variable) {
	s.vars[name] = v
}

// Lookup walks outward from the point of use and returns the variable
// a name resolves to, or nil when no lexical declaration exists.
func (s *Scope) Lookup(name string) Variable {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v
		}
	}
	return nil
}

// FindVariable resolves a name like Lookup but creates an
// ambient/global placeholder at the root when no lexical declaration
// is found. Every genuine reference resolves to exactly one variable
// for the lifetime of the analysis.
func (s *Scope) FindVariable(name string) Variable {
	if v := s.Lookup(name); v != nil {
		return v
	}
	root := s.Root()
	if g, ok := root.globals[name]; ok {
		return g
	}
	g := NewGlobalVariable(name, root.registry.Child(name))
	root.globals[name] = g
	return g
}
