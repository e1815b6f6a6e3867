package scope

import (
	"github.com/ericmutta/rollup/pkg/shake/purity"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// VarKind is the declaration kind of a binding.
type VarKind int

const (
	// KindVar is a function-scoped mutable binding.
	KindVar VarKind = iota
	// KindLet is a block-scoped mutable binding.
	KindLet
	// KindConst is a block-scoped immutable binding.
	KindConst
	// KindClass is a class declaration binding.
	KindClass
	// KindFunction is a function declaration binding.
	KindFunction
	// KindParameter is a function parameter binding.
	KindParameter
)

func (k VarKind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindLet:
		return "let"
	case KindConst:
		return "const"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindParameter:
		return "parameter"
	}
	return "unknown"
}

// ParticipatesInTDZ reports whether reads of this kind can observe the
// binding before initialization. Parameters and function declarations
// are initialized on scope entry and carry no TDZ risk.
func (k VarKind) ParticipatesInTDZ() bool {
	switch k {
	case KindVar, KindLet, KindConst, KindClass:
		return true
	}
	return false
}

// Reference records one identifier occurrence that resolved to a
// variable, carrying the static facts the TDZ rule needs. Node is the
// identity of the accessing AST node and keys the per-node TDZ memo.
type Reference struct {
	Node      any
	Pos       int
	FuncScope *Scope
}

// Variable is the store side of the expression entity protocol: every
// binding answers the same capability set as value-producing nodes.
type Variable interface {
	values.Expression
	Name() string
	Kind() VarKind
	Included() bool
	AddReference(ref Reference)
	Referenced() bool
}

// LocalVariable is a binding declared by user code in some module.
type LocalVariable struct {
	name     string
	kind     VarKind
	moduleID string

	declPositions []int
	declFuncScope *Scope
	inits         []values.Expression

	initReached bool
	included    bool
	widened     bool

	deopts    values.PathDeopts
	tdzMemo   map[any]bool
	refs      []Reference
	onInclude func(ctx values.Context)
}

// NewLocalVariable creates an uninitialized binding of the given kind.
func NewLocalVariable(name string, kind VarKind, moduleID string) *LocalVariable {
	return &LocalVariable{
		name:     name,
		kind:     kind,
		moduleID: moduleID,
		tdzMemo:  make(map[any]bool),
	}
}

// Name returns the binding name.
func (v *LocalVariable) Name() string { return v.name }

// Kind returns the declaration kind.
func (v *LocalVariable) Kind() VarKind { return v.kind }

// ModuleID returns the owning module's identity.
func (v *LocalVariable) ModuleID() string { return v.moduleID }

// Included reports whether the declaration must survive into the
// output. Monotone.
func (v *LocalVariable) Included() bool { return v.included }

// AddReference registers an identifier occurrence resolving here,
// supporting later "is this export used" queries.
func (v *LocalVariable) AddReference(ref Reference) {
	v.refs = append(v.refs, ref)
}

// Referenced reports whether any identifier resolved to this binding.
func (v *LocalVariable) Referenced() bool { return len(v.refs) > 0 }

// OnInclude installs the hook that retains the declaring statements
// when the variable is first included.
func (v *LocalVariable) OnInclude(hook func(ctx values.Context)) {
	v.onInclude = hook
}

// AddDeclaration registers a declaration site. Several sites may
// target one variable (repeated var declarations).
func (v *LocalVariable) AddDeclaration(pos int, funcScope *Scope, init values.Expression) {
	v.declPositions = append(v.declPositions, pos)
	if v.declFuncScope == nil {
		v.declFuncScope = funcScope
	}
	v.AddInitializer(init)
}

// AddInitializer records an additional possible value: a reassignment,
// or a further declaration site reusing the binding. More than one
// initializer makes the consolidated view unknown.
func (v *LocalVariable) AddInitializer(init values.Expression) {
	if init != nil {
		v.inits = append(v.inits, init)
	}
}

// FirstDeclPosition returns the source position of the earliest
// declaration site, when one exists.
func (v *LocalVariable) FirstDeclPosition() (int, bool) {
	if len(v.declPositions) == 0 {
		return 0, false
	}
	return v.declPositions[0], true
}

// MarkInitReached flips the monotone reached flag the moment the
// declaring construct is reached in control flow during inclusion
// marking. The first transition schedules another pass because earlier
// answers may have assumed the initializer was unreachable.
func (v *LocalVariable) MarkInitReached(ctx values.Context) {
	if v.initReached {
		return
	}
	v.initReached = true
	ctx.RequestTreeshakingPass()
}

// InitReached reports whether control flow reached a declaration site.
func (v *LocalVariable) InitReached() bool { return v.initReached }

// MarkHoistedUse records that the binding is observed textually before
// its declaration. The initializer is deoptimized since its value may
// be seen from code positioned ahead of the declaration.
func (v *LocalVariable) MarkHoistedUse() {
	v.widenToUnknown()
}

func (v *LocalVariable) widenToUnknown() {
	if v.widened {
		return
	}
	v.widened = true
	for _, init := range v.inits {
		init.DeoptimizePath(values.EmptyPath)
	}
	v.deopts.Add(values.EmptyPath)
}

// currentInit is the consolidated view of the binding's value: precise
// while there is exactly one initializer and nothing widened it,
// otherwise unknown. A binding without initializers holds undefined.
func (v *LocalVariable) currentInit() values.Expression {
	if v.widened || len(v.inits) > 1 {
		return values.UnknownExpr
	}
	if len(v.inits) == 1 {
		return v.inits[0]
	}
	return values.NewPrimitive(values.Undefined)
}

// IsPossibleTDZ decides whether the given access can observe the
// binding inside its temporal dead zone. The verdict is computed once
// per accessing node and never recomputed: source positions are
// static, and reachedness only changes monotonically before the first
// query.
func (v *LocalVariable) IsPossibleTDZ(ref Reference) bool {
	if verdict, ok := v.tdzMemo[ref.Node]; ok {
		return verdict
	}
	verdict := false
	if v.kind.ParticipatesInTDZ() {
		switch {
		case len(v.declPositions) == 1 &&
			ref.Pos < v.declPositions[0] &&
			ref.FuncScope == v.declFuncScope:
			// access precedes the only declaration inside the same
			// function-or-module boundary
			verdict = true
		case !v.initReached:
			verdict = true
		}
	}
	v.tdzMemo[ref.Node] = verdict
	return verdict
}

func (v *LocalVariable) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	tracker := ctx.PathTracker()
	if !tracker.Enter(v, path, in.Kind) {
		return true
	}
	defer tracker.Leave(v, path, in.Kind)

	switch in.Kind {
	case values.InteractionAccessed:
		if len(path) == 0 {
			return false
		}
		return v.currentInit().HasEffectsOnInteractionAtPath(path, in, ctx)
	case values.InteractionAssigned:
		if len(path) == 0 {
			// reassigning a const throws at runtime
			return v.kind == KindConst
		}
		return v.currentInit().HasEffectsOnInteractionAtPath(path, in, ctx)
	default:
		return v.currentInit().HasEffectsOnInteractionAtPath(path, in, ctx)
	}
}

func (v *LocalVariable) DeoptimizePath(path values.ObjectPath) {
	if len(path) == 0 {
		v.widenToUnknown()
		return
	}
	if v.deopts.Covers(path) {
		return
	}
	v.deopts.Add(path)
	for _, init := range v.inits {
		init.DeoptimizePath(path)
	}
}

func (v *LocalVariable) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if !tracker.Enter(v, path, values.InteractionCalledThis) {
		return
	}
	defer tracker.Leave(v, path, values.InteractionCalledThis)
	v.currentInit().DeoptimizeThisOnInteractionAtPath(in, path, tracker)
}

func (v *LocalVariable) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if v.deopts.Covers(path) {
		return values.Unknown
	}
	if !tracker.Enter(v, path, values.InteractionAccessed) {
		return values.Unknown
	}
	defer tracker.Leave(v, path, values.InteractionAccessed)
	if origin != nil {
		v.deopts.Subscribe(origin)
	}
	return v.currentInit().GetLiteralValueAtPath(path, tracker, origin)
}

func (v *LocalVariable) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if !tracker.Enter(v, path, values.InteractionCalled) {
		return values.UnknownExpr, false
	}
	defer tracker.Leave(v, path, values.InteractionCalled)
	return v.currentInit().GetReturnExpressionWhenCalledAtPath(path, in, tracker, origin)
}

// Include retains the declaration. The first inclusion consolidates
// the collected initializers into one widened view; when consolidation
// loses precision it schedules one more analysis pass, since narrower
// assumptions may have hidden effects.
func (v *LocalVariable) Include(ctx values.Context) {
	if v.included {
		return
	}
	v.included = true
	if len(v.inits) > 1 && !v.widened {
		v.widenToUnknown()
		ctx.RequestTreeshakingPass()
	}
	if v.onInclude != nil {
		v.onInclude(ctx)
	}
}

func (v *LocalVariable) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	v.currentInit().IncludeCallArguments(ctx, args)
}

// GlobalVariable is an ambient binding materialized for a name with no
// lexical declaration. Its behavior is driven by configuration: the
// unknown-global side effect policy and the purity registry.
type GlobalVariable struct {
	name     string
	reg      *purity.Tree
	included bool
	refs     int
}

// NewGlobalVariable creates an ambient binding; reg is the registry
// subtree for the name and may be nil.
func NewGlobalVariable(name string, reg *purity.Tree) *GlobalVariable {
	return &GlobalVariable{name: name, reg: reg}
}

func (g *GlobalVariable) Name() string           { return g.name }
func (g *GlobalVariable) Kind() VarKind          { return KindVar }
func (g *GlobalVariable) Included() bool         { return g.included }
func (g *GlobalVariable) AddReference(Reference) { g.refs++ }
func (g *GlobalVariable) Referenced() bool       { return g.refs > 0 }

func (g *GlobalVariable) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	switch in.Kind {
	case values.InteractionAccessed:
		if !ctx.UnknownGlobalSideEffects() {
			return false
		}
		return !g.reg.PureAt(path)
	case values.InteractionAssigned:
		return true
	default:
		return !g.reg.PureAt(path)
	}
}

func (g *GlobalVariable) DeoptimizePath(values.ObjectPath) {}

func (g *GlobalVariable) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if in.ThisArg != nil {
		in.ThisArg.DeoptimizePath(values.EmptyPath)
	}
}

func (g *GlobalVariable) GetLiteralValueAtPath(values.ObjectPath, *values.Tracker, values.DeoptimizableEntity) any {
	return values.Unknown
}

func (g *GlobalVariable) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	// the registry decision stays with the effect query; this bool only
	// reports purity known from the value itself
	return values.UnknownExpr, false
}

func (g *GlobalVariable) Include(values.Context) { g.included = true }

// IncludeCallArguments includes every argument: the registry only ever
// suppresses effect flags, never dependency inclusion.
func (g *GlobalVariable) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// ParameterVariable is a function parameter: created without TDZ risk,
// value never statically known.
type ParameterVariable struct {
	name     string
	included bool
	refs     int
}

// NewParameterVariable creates a parameter binding.
func NewParameterVariable(name string) *ParameterVariable {
	return &ParameterVariable{name: name}
}

func (p *ParameterVariable) Name() string           { return p.name }
func (p *ParameterVariable) Kind() VarKind          { return KindParameter }
func (p *ParameterVariable) Included() bool         { return p.included }
func (p *ParameterVariable) AddReference(Reference) { p.refs++ }
func (p *ParameterVariable) Referenced() bool       { return p.refs > 0 }

func (p *ParameterVariable) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	switch in.Kind {
	case values.InteractionAccessed, values.InteractionAssigned:
		return len(path) > 0
	}
	return true
}

func (p *ParameterVariable) DeoptimizePath(values.ObjectPath) {}

func (p *ParameterVariable) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if in.ThisArg != nil {
		in.ThisArg.DeoptimizePath(values.EmptyPath)
	}
}

func (p *ParameterVariable) GetLiteralValueAtPath(values.ObjectPath, *values.Tracker, values.DeoptimizableEntity) any {
	return values.Unknown
}

func (p *ParameterVariable) GetReturnExpressionWhenCalledAtPath(values.ObjectPath, values.Interaction, *values.Tracker, values.DeoptimizableEntity) (values.Expression, bool) {
	return values.UnknownExpr, false
}

func (p *ParameterVariable) Include(values.Context) { p.included = true }

func (p *ParameterVariable) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// ImportVariable is a binding created by an import declaration. Its
// value is the exporting module's binding once the graph is linked;
// assigning through it is illegal by import semantics.
type ImportVariable struct {
	name         string
	moduleID     string
	source       string
	importedName string
	external     bool
	target       values.Expression
	included     bool
	refs         int
}

// NewImportVariable creates an unlinked import binding.
func NewImportVariable(name, moduleID, source, importedName string, external bool) *ImportVariable {
	return &ImportVariable{
		name:         name,
		moduleID:     moduleID,
		source:       source,
		importedName: importedName,
		external:     external,
	}
}

func (v *ImportVariable) Name() string           { return v.name }
func (v *ImportVariable) Kind() VarKind          { return KindConst }
func (v *ImportVariable) ModuleID() string       { return v.moduleID }
func (v *ImportVariable) Source() string         { return v.source }
func (v *ImportVariable) ImportedName() string   { return v.importedName }
func (v *ImportVariable) External() bool         { return v.external }
func (v *ImportVariable) Included() bool         { return v.included }
func (v *ImportVariable) AddReference(Reference) { v.refs++ }
func (v *ImportVariable) Referenced() bool       { return v.refs > 0 }

// SetTarget links the binding to the exporting module's variable.
func (v *ImportVariable) SetTarget(t values.Expression) { v.target = t }

// Target returns the linked variable, nil for external or unresolved
// imports.
func (v *ImportVariable) Target() values.Expression { return v.target }

func (v *ImportVariable) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	if in.Kind == values.InteractionAssigned && len(path) == 0 {
		// illegal reassignment; the binder reports the user error, the
		// effect answer keeps the statement retained
		return true
	}
	if v.target != nil {
		return v.target.HasEffectsOnInteractionAtPath(path, in, ctx)
	}
	if in.Kind == values.InteractionAccessed && len(path) == 0 {
		return false
	}
	return true
}

func (v *ImportVariable) DeoptimizePath(path values.ObjectPath) {
	if v.target != nil {
		v.target.DeoptimizePath(path)
	}
}

func (v *ImportVariable) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if v.target != nil {
		v.target.DeoptimizeThisOnInteractionAtPath(in, path, tracker)
	}
}

func (v *ImportVariable) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if v.target == nil {
		return values.Unknown
	}
	return v.target.GetLiteralValueAtPath(path, tracker, origin)
}

func (v *ImportVariable) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if v.target == nil {
		return values.UnknownExpr, false
	}
	return v.target.GetReturnExpressionWhenCalledAtPath(path, in, tracker, origin)
}

func (v *ImportVariable) Include(ctx values.Context) {
	if v.included {
		return
	}
	v.included = true
	if v.target != nil {
		v.target.Include(ctx)
	}
}

func (v *ImportVariable) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	if v.target != nil {
		v.target.IncludeCallArguments(ctx, args)
		return
	}
	for _, arg := range args {
		arg.Include(ctx)
	}
}
