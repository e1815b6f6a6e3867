// Package shake implements the dead-code analysis core: modules are
// bound into scope trees, linked through their import records and then
// included statement by statement until a fixed point is reached.
package shake

import (
	"fmt"

	"github.com/dop251/goja/ast"

	"github.com/ericmutta/rollup/pkg/config"
	"github.com/ericmutta/rollup/pkg/logger"
	"github.com/ericmutta/rollup/pkg/models"
	"github.com/ericmutta/rollup/pkg/shake/purity"
	"github.com/ericmutta/rollup/pkg/shake/scope"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// Graph owns the full set of modules under analysis and drives the
// multi-pass inclusion algorithm. It doubles as the values.Context
// handed to every entity query.
type Graph struct {
	opts     *config.Options
	log      *logger.Logger
	tracker  *values.Tracker
	registry *purity.Tree

	modules []*Module
	byID    map[string]*Module

	linked    bool
	needsPass bool
	passes    int
	issues    []error
}

// NewGraph creates an empty module graph. Nil options and logger fall
// back to defaults.
func NewGraph(opts *config.Options, log *logger.Logger) *Graph {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	if log == nil {
		log = logger.NewLogger(0)
	}
	registry := purity.Default()
	if opts.PureFunctions != nil {
		registry.Merge(opts.PureFunctions)
	}
	return &Graph{
		opts:     opts,
		log:      log,
		tracker:  values.NewTracker(),
		registry: registry,
		byID:     make(map[string]*Module),
	}
}

// AddModule binds one module record into the graph. All modules must be
// added before Include runs; adding afterwards is a caller defect.
func (g *Graph) AddModule(rec ModuleRecord) (*Module, error) {
	if rec.Program == nil {
		return nil, &InternalError{Reason: "module " + rec.ID + " has no program"}
	}
	if _, dup := g.byID[rec.ID]; dup {
		return nil, &InternalError{Reason: "module " + rec.ID + " added twice"}
	}
	if g.linked {
		return nil, &InternalError{Reason: "module " + rec.ID + " added after linking"}
	}
	m := &Module{
		graph:         g,
		id:            rec.ID,
		program:       rec.Program,
		record:        rec,
		topScope:      scope.NewRootScope(g.registry),
		bindings:      make(map[*ast.Identifier]scope.Variable),
		refs:          make(map[*ast.Identifier]scope.Reference),
		entities:      make(map[ast.Expression]values.Expression),
		importVars:    make(map[string]*scope.ImportVariable),
		stmtVars:      make(map[ast.Statement][]scope.Variable),
		varStmts:      make(map[scope.Variable][]ast.Statement),
		includedStmts: make(map[ast.Statement]bool),
	}
	if err := m.bind(); err != nil {
		return nil, err
	}
	g.modules = append(g.modules, m)
	g.byID[rec.ID] = m
	g.log.V("shake: bound module %s (%d top-level statements)", rec.ID, len(rec.Program.Body))
	return m, nil
}

// Module returns a previously added module by id.
func (g *Graph) Module(id string) *Module { return g.byID[id] }

// RequestTreeshakingPass implements values.Context.
func (g *Graph) RequestTreeshakingPass() { g.needsPass = true }

// PathTracker implements values.Context.
func (g *Graph) PathTracker() *values.Tracker { return g.tracker }

// UnknownGlobalSideEffects implements values.Context.
func (g *Graph) UnknownGlobalSideEffects() bool { return g.opts.UnknownGlobalSideEffects }

// ReportIssue implements values.Context. Issues are user errors;
// analysis continues so that one run reports as much as it can see, but
// the build fails afterwards.
func (g *Graph) ReportIssue(err error) { g.issues = append(g.issues, err) }

// Passes returns the number of completed analysis passes.
func (g *Graph) Passes() int { return g.passes }

// link resolves every internal import binding to the exporting
// module's variable. External imports stay unlinked and answer
// conservatively.
func (g *Graph) link() {
	for _, m := range g.modules {
		for _, iv := range m.importVars {
			if iv.External() {
				continue
			}
			dep := g.byID[iv.Source()]
			if dep == nil {
				g.log.V("shake: import %s in %s: source module %s not in graph, treating as opaque",
					iv.Name(), m.id, iv.Source())
				continue
			}
			target := dep.exportVariable(iv.ImportedName())
			if target == nil {
				g.ReportIssue(fmt.Errorf("module %s does not export %q (imported by %s)",
					dep.id, iv.ImportedName(), m.id))
				continue
			}
			iv.SetTarget(target)
		}
	}
}

// Include runs the analysis to its fixed point. Each pass walks every
// top-level statement in control-flow order, retaining the effectful
// ones and everything reachable from entry exports; a pass that changed
// nothing and was not re-requested ends the run.
func (g *Graph) Include() error {
	if !g.linked {
		g.link()
		g.linked = true
	}
	if len(g.issues) > 0 {
		return g.issues[0]
	}
	for {
		g.needsPass = false
		changed := false

		for _, m := range g.modules {
			if m.conservative {
				changed = g.includeConservative(m) || changed
				continue
			}
			for _, stmt := range m.program.Body {
				m.reachStatement(stmt, g)
				if m.includedStmts[stmt] {
					continue
				}
				if m.statementHasEffects(stmt, g) || m.declaresIncludedVariable(stmt) {
					m.includeStatement(stmt, g)
					changed = true
				}
			}
		}

		// the entry module's exports are the public surface and anchor
		// the reachability wave
		for _, m := range g.modules {
			if !m.record.Entry {
				continue
			}
			for _, exp := range m.record.Exports {
				v := m.topScope.Lookup(exp.LocalName)
				if v != nil && !v.Included() {
					v.Include(g)
					m.included = true
					changed = true
				}
			}
		}

		g.passes++
		g.log.VV("shake: pass %d complete (changed=%v, extra pass requested=%v)",
			g.passes, changed, g.needsPass)

		if len(g.issues) > 0 {
			return g.issues[0]
		}
		if !changed && !g.needsPass {
			g.log.V("shake: converged after %d passes", g.passes)
			return nil
		}
		if g.passes >= g.opts.MaxPasses {
			return fmt.Errorf("aborted after %d passes: %w", g.passes, ErrNoConvergence)
		}
	}
}

// includeConservative retains an opaque module wholesale, imports
// included, so nothing referenced from its unanalyzable parts can be
// dropped.
func (g *Graph) includeConservative(m *Module) bool {
	changed := false
	for _, stmt := range m.program.Body {
		m.reachStatement(stmt, g)
		if !m.includedStmts[stmt] {
			m.includeStatement(stmt, g)
			changed = true
		}
	}
	for _, iv := range m.importVars {
		if !iv.Included() {
			iv.Include(g)
			changed = true
		}
	}
	return changed
}

// Report builds the read-model of the finished analysis. It only reads
// inclusion state; calling it never changes an answer.
func (g *Graph) Report() models.Report {
	// exports referenced from some other module's used import
	outsideRefs := make(map[[2]string]bool)
	for _, m := range g.modules {
		for _, iv := range m.importVars {
			if iv.External() || !iv.Referenced() {
				continue
			}
			outsideRefs[[2]string{iv.Source(), iv.ImportedName()}] = true
		}
	}

	rep := models.Report{Passes: g.passes}
	for _, m := range g.modules {
		info := models.ModuleInfo{ID: m.id, Entry: m.record.Entry, Included: m.included}
		for _, imp := range m.record.Imports {
			iv := m.importVars[imp.LocalName]
			info.Imports = append(info.Imports, models.ImportInfo{
				LocalName:    imp.LocalName,
				Source:       imp.Source,
				ImportedName: imp.ImportedName,
				External:     imp.External,
				SideEffects:  imp.SideEffects,
				Resolved:     iv != nil && iv.Target() != nil,
			})
		}
		for _, exp := range m.record.Exports {
			v := m.topScope.Lookup(exp.LocalName)
			info.Exports = append(info.Exports, models.ExportInfo{
				Name:       exp.ExportedName,
				LocalName:  exp.LocalName,
				Referenced: m.record.Entry || outsideRefs[[2]string{m.id, exp.ExportedName}],
				Included:   v != nil && v.Included(),
			})
		}
		for _, stmt := range m.program.Body {
			if !m.includedStmts[stmt] {
				continue
			}
			info.Kept = append(info.Kept, models.StatementRange{
				StartLine: m.position(stmt.Idx0()).Line,
				EndLine:   m.position(stmt.Idx1()).Line,
			})
		}
		rep.Modules = append(rep.Modules, info)
	}
	return rep
}

// Snapshot returns the per-module slice of the read-model.
func (g *Graph) Snapshot() []models.ModuleInfo {
	return g.Report().Modules
}
