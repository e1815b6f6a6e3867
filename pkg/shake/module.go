package shake

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"

	"github.com/ericmutta/rollup/pkg/shake/scope"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// ImportRecord describes one resolved import binding of a module. The
// specifier-to-id resolution happened outside the core.
type ImportRecord struct {
	LocalName    string
	Source       string
	ImportedName string
	External     bool
	SideEffects  bool
}

// ExportRecord maps an exported name to the local binding backing it.
type ExportRecord struct {
	ExportedName string
	LocalName    string
}

// ModuleRecord is the external input contract: a finished goja AST
// plus resolved import/export metadata for one module.
type ModuleRecord struct {
	ID      string
	Program *ast.Program
	Imports []ImportRecord
	Exports []ExportRecord
	Entry   bool
}

// Module is the analysis-side view of one module: its scope tree,
// identifier bindings, node entities and inclusion state.
type Module struct {
	graph    *Graph
	id       string
	program  *ast.Program
	record   ModuleRecord
	topScope *scope.Scope

	bindings   map[*ast.Identifier]scope.Variable
	refs       map[*ast.Identifier]scope.Reference
	entities   map[ast.Expression]values.Expression
	importVars map[string]*scope.ImportVariable
	stmtVars   map[ast.Statement][]scope.Variable
	varStmts   map[scope.Variable][]ast.Statement

	includedStmts map[ast.Statement]bool
	included      bool

	// conservative is set when the binder met a construct it cannot
	// traverse; the whole module is then retained so that references
	// hidden inside it can never be dropped.
	conservative bool
}

// ID returns the module identity.
func (m *Module) ID() string { return m.id }

// Included reports whether any part of the module survives.
func (m *Module) Included() bool { return m.included }

func (m *Module) position(idx file.Idx) file.Position {
	return m.program.File.Position(int(idx))
}

// exportVariable resolves an exported name to the module-scope binding
// backing it.
func (m *Module) exportVariable(exportedName string) scope.Variable {
	for _, exp := range m.record.Exports {
		if exp.ExportedName == exportedName {
			return m.topScope.Lookup(exp.LocalName)
		}
	}
	return nil
}

// isPossibleTDZ answers the cached temporal-dead-zone verdict for one
// identifier occurrence.
func (m *Module) isPossibleTDZ(ident *ast.Identifier) bool {
	v, ok := m.bindings[ident]
	if !ok {
		return false
	}
	lv, ok := v.(*scope.LocalVariable)
	if !ok {
		return false
	}
	return lv.IsPossibleTDZ(m.refs[ident])
}

// markConservative records that part of the module is opaque to the
// binder. Sound fallback: keep everything.
func (m *Module) markConservative(why string) {
	if !m.conservative {
		m.conservative = true
		m.graph.log.VV("shake: module %s analyzed conservatively: %s", m.id, why)
	}
}

// reachStatement flips initReached for every binding the statement
// declares, in the order control flow reaches declaring constructs
// during inclusion marking.
func (m *Module) reachStatement(stmt ast.Statement, ctx values.Context) {
	for _, v := range m.stmtVars[stmt] {
		if lv, ok := v.(*scope.LocalVariable); ok {
			lv.MarkInitReached(ctx)
		}
	}
}

// declaresIncludedVariable reports whether a not-yet-included statement
// declares a binding some other included code depends on.
func (m *Module) declaresIncludedVariable(stmt ast.Statement) bool {
	for _, v := range m.stmtVars[stmt] {
		if v.Included() {
			return true
		}
	}
	return false
}
