package values

// unknownValue is the sentinel returned by literal queries that cannot
// be answered precisely.
type unknownValue struct{}

func (unknownValue) String() string { return "[unknown value]" }

// Unknown is the conservative answer of GetLiteralValueAtPath.
var Unknown = unknownValue{}

// IsUnknown reports whether a literal query degraded to the
// conservative answer.
func IsUnknown(v any) bool {
	_, ok := v.(unknownValue)
	return ok
}

// undefinedValue represents the JS `undefined` primitive, distinct
// from "not statically known".
type undefinedValue struct{}

func (undefinedValue) String() string { return "undefined" }

// Undefined is the statically known `undefined` value, e.g. the return
// value of a function body without a return statement.
var Undefined = undefinedValue{}

// Interaction is a tagged request against an entity at a path. It
// carries enough to decide effects and to propagate deoptimization to
// call arguments and the this-binding.
type Interaction struct {
	Kind    InteractionKind
	ThisArg Expression
	Args    []Expression
}

// Access is a plain read interaction.
var Access = Interaction{Kind: InteractionAccessed}

// Assign builds a write interaction carrying the assigned value.
func Assign(value Expression) Interaction {
	return Interaction{Kind: InteractionAssigned, Args: []Expression{value}}
}

// Call builds a call interaction.
func Call(thisArg Expression, args ...Expression) Interaction {
	return Interaction{Kind: InteractionCalled, ThisArg: thisArg, Args: args}
}

// DeoptimizableEntity registers interest in being notified when a
// dependency it previously queried becomes less precise, so that it can
// drop its own cached answer and request another analysis pass.
type DeoptimizableEntity interface {
	DeoptimizeCache()
}

// Context is the seam between entities and the fixed-point driver. It
// is passed by reference through every effect and inclusion query; no
// ambient global state is involved.
type Context interface {
	// RequestTreeshakingPass flags that a previously computed answer may
	// have changed and the driver must run one more pass.
	RequestTreeshakingPass()
	// PathTracker is the shared recursion guard.
	PathTracker() *Tracker
	// UnknownGlobalSideEffects reports whether bare reads of unresolved
	// globals count as effects.
	UnknownGlobalSideEffects() bool
	// ReportIssue records a user-code error such as an illegal import
	// reassignment. Analysis keeps running; the build fails afterwards.
	ReportIssue(err error)
}

// Expression is the uniform capability set implemented by every
// value-producing AST node entity and by every variable binding.
// Implementations must fail safe: when in doubt, effects are assumed
// and literal values are unknown.
type Expression interface {
	// HasEffectsOnInteractionAtPath answers whether performing the
	// interaction at path against this entity's value can be observed
	// externally. Pure query.
	HasEffectsOnInteractionAtPath(path ObjectPath, in Interaction, ctx Context) bool
	// DeoptimizePath marks the value reachable at path as no longer
	// statically narrow. Idempotent and monotone; never retracted.
	DeoptimizePath(path ObjectPath)
	// DeoptimizeThisOnInteractionAtPath propagates deoptimization to the
	// implicit this-binding of a call or method interaction.
	DeoptimizeThisOnInteractionAtPath(in Interaction, path ObjectPath, tracker *Tracker)
	// GetLiteralValueAtPath returns the statically known primitive at
	// path, or Unknown. Pure query; must be recursion-guarded.
	GetLiteralValueAtPath(path ObjectPath, tracker *Tracker, origin DeoptimizableEntity) any
	// GetReturnExpressionWhenCalledAtPath resolves what a call through
	// path returns and whether that call is known side-effect-free
	// independent of the purity registry.
	GetReturnExpressionWhenCalledAtPath(path ObjectPath, in Interaction, tracker *Tracker, origin DeoptimizableEntity) (Expression, bool)
	// Include marks this entity as needed in the output, transitively
	// retaining whatever it depends on.
	Include(ctx Context)
	// IncludeCallArguments decides which call arguments must be
	// force-included when this entity is called.
	IncludeCallArguments(ctx Context, args []Expression)
}

// UnknownExpression answers every query with the conservative default:
// all interactions have effects, nothing is statically known, calls
// force-include every argument. New node kinds fail safe by mapping to
// it.
type UnknownExpression struct{}

// UnknownExpr is the shared conservative entity.
var UnknownExpr = &UnknownExpression{}

func (*UnknownExpression) HasEffectsOnInteractionAtPath(ObjectPath, Interaction, Context) bool {
	return true
}

func (*UnknownExpression) DeoptimizePath(ObjectPath) {}

func (*UnknownExpression) DeoptimizeThisOnInteractionAtPath(in Interaction, path ObjectPath, tracker *Tracker) {
	if in.ThisArg != nil {
		in.ThisArg.DeoptimizePath(EmptyPath)
	}
}

func (*UnknownExpression) GetLiteralValueAtPath(ObjectPath, *Tracker, DeoptimizableEntity) any {
	return Unknown
}

func (u *UnknownExpression) GetReturnExpressionWhenCalledAtPath(ObjectPath, Interaction, *Tracker, DeoptimizableEntity) (Expression, bool) {
	return u, false
}

func (*UnknownExpression) Include(Context) {}

func (*UnknownExpression) IncludeCallArguments(ctx Context, args []Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// PathDeopts records the monotonically growing set of deoptimized
// paths on one entity, plus the entities listening for precision loss.
type PathDeopts struct {
	paths     []ObjectPath
	listeners []DeoptimizableEntity
}

// Covers reports whether path, a prefix of it, has been deoptimized.
func (d *PathDeopts) Covers(path ObjectPath) bool {
	for _, p := range d.paths {
		if path.StartsWith(p) {
			return true
		}
	}
	return false
}

// Add records a deoptimized path and notifies listeners. Returns false
// when the path was already covered, making repeated deoptimization a
// no-op.
func (d *PathDeopts) Add(path ObjectPath) bool {
	if d.Covers(path) {
		return false
	}
	d.paths = append(d.paths, path)
	for _, l := range d.listeners {
		l.DeoptimizeCache()
	}
	return true
}

// Subscribe registers an entity whose cached answers depend on the
// paths tracked here.
func (d *PathDeopts) Subscribe(e DeoptimizableEntity) {
	for _, l := range d.listeners {
		if l == e {
			return
		}
	}
	d.listeners = append(d.listeners, e)
}
