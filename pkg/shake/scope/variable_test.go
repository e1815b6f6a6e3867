package scope

import (
	"testing"

	"github.com/ericmutta/rollup/pkg/shake/purity"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

type stubContext struct {
	tracker   *values.Tracker
	passCount int
	globalFx  bool
	issues    []error
}

func newStubContext() *stubContext {
	return &stubContext{tracker: values.NewTracker(), globalFx: true}
}

func (c *stubContext) RequestTreeshakingPass()        { c.passCount++ }
func (c *stubContext) PathTracker() *values.Tracker   { return c.tracker }
func (c *stubContext) UnknownGlobalSideEffects() bool { return c.globalFx }
func (c *stubContext) ReportIssue(err error)          { c.issues = append(c.issues, err) }

func declaredAt(t *testing.T, kind VarKind, pos int, init values.Expression) (*LocalVariable, *Scope) {
	t.Helper()
	root := NewRootScope(purity.New())
	v := NewLocalVariable("x", kind, "mod.js")
	v.AddDeclaration(pos, root, init)
	return v, root
}

func TestIsPossibleTDZ_AccessBeforeDeclarationSameScope(t *testing.T) {
	v, root := declaredAt(t, KindConst, 100, values.NewPrimitive(1))
	ctx := newStubContext()
	v.MarkInitReached(ctx)

	early := Reference{Node: new(int), Pos: 10, FuncScope: root}
	late := Reference{Node: new(int), Pos: 200, FuncScope: root}

	if !v.IsPossibleTDZ(early) {
		t.Error("access before declaration in the same scope must be a TDZ risk")
	}
	if v.IsPossibleTDZ(late) {
		t.Error("access after declaration flagged as TDZ")
	}
}

func TestIsPossibleTDZ_OtherFunctionScopeDependsOnReached(t *testing.T) {
	v, root := declaredAt(t, KindLet, 100, values.NewPrimitive(1))
	fn := NewScope(root, FunctionScope)
	ctx := newStubContext()

	// textually before the declaration but inside another function: only
	// risky while the declaration has not been reached
	ref := Reference{Node: new(int), Pos: 10, FuncScope: fn}
	if !v.IsPossibleTDZ(ref) {
		t.Error("unreached binding must be a TDZ risk from another function")
	}

	v.MarkInitReached(ctx)
	after := Reference{Node: new(int), Pos: 20, FuncScope: fn}
	if v.IsPossibleTDZ(after) {
		t.Error("reached binding flagged as TDZ from another function")
	}

	// the first verdict was memoized per node and stays
	if !v.IsPossibleTDZ(ref) {
		t.Error("memoized verdict changed after the fact")
	}
}

func TestIsPossibleTDZ_VarHasNoDeadZone(t *testing.T) {
	v, root := declaredAt(t, KindParameter, 100, nil)
	ref := Reference{Node: new(int), Pos: 10, FuncScope: root}
	if v.IsPossibleTDZ(ref) {
		t.Error("parameter binding reported a TDZ risk")
	}
}

func TestMarkInitReached_RequestsOneExtraPass(t *testing.T) {
	v, _ := declaredAt(t, KindLet, 0, values.NewPrimitive(1))
	ctx := newStubContext()
	v.MarkInitReached(ctx)
	v.MarkInitReached(ctx)
	if ctx.passCount != 1 {
		t.Errorf("reached transition requested %d passes, want exactly 1", ctx.passCount)
	}
}

func TestLocalVariable_LiteralThroughSingleInitializer(t *testing.T) {
	v, _ := declaredAt(t, KindConst, 0, values.NewPrimitive("str"))
	ctx := newStubContext()
	if got := v.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); got != "str" {
		t.Errorf("literal = %v, want str", got)
	}
}

func TestLocalVariable_SecondInitializerWidens(t *testing.T) {
	v, _ := declaredAt(t, KindVar, 0, values.NewPrimitive(1))
	v.AddInitializer(values.NewPrimitive(2))
	ctx := newStubContext()

	if got := v.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); !values.IsUnknown(got) {
		t.Errorf("literal with two initializers = %v, want Unknown", got)
	}

	// consolidation on first inclusion schedules another pass
	v.Include(ctx)
	if ctx.passCount != 1 {
		t.Errorf("widening inclusion requested %d passes, want 1", ctx.passCount)
	}
	v.Include(ctx)
	if ctx.passCount != 1 {
		t.Error("repeated inclusion is not idempotent")
	}
}

func TestLocalVariable_UninitializedHoldsUndefined(t *testing.T) {
	v, _ := declaredAt(t, KindLet, 0, nil)
	ctx := newStubContext()
	if got := v.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); got != any(values.Undefined) {
		t.Errorf("literal = %v, want undefined", got)
	}
}

func TestLocalVariable_ConstReassignmentHasEffects(t *testing.T) {
	ctx := newStubContext()
	c, _ := declaredAt(t, KindConst, 0, values.NewPrimitive(1))
	if !c.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Assign(values.NewPrimitive(2)), ctx) {
		t.Error("const reassignment throws and must report effects")
	}
	l, _ := declaredAt(t, KindLet, 0, values.NewPrimitive(1))
	if l.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Assign(values.NewPrimitive(2)), ctx) {
		t.Error("let reassignment of an unobserved binding reported effects")
	}
}

func TestLocalVariable_DeoptimizePathMonotone(t *testing.T) {
	ctx := newStubContext()
	v, _ := declaredAt(t, KindConst, 0, values.NewPrimitive(1))
	if got := v.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); got != 1 {
		t.Fatalf("precondition: literal = %v", got)
	}
	v.DeoptimizePath(values.EmptyPath)
	if got := v.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); !values.IsUnknown(got) {
		t.Errorf("literal after deoptimization = %v, want Unknown", got)
	}
	// repeating never un-widens and never panics
	v.DeoptimizePath(values.EmptyPath)
	v.DeoptimizePath(values.ObjectPath{"a"})
}

func TestGlobalVariable_PolicyAndPurity(t *testing.T) {
	reg := purity.Build(map[string]any{
		"console": map[string]any{"log": true},
	})
	g := NewGlobalVariable("console", reg.Child("console"))

	ctx := newStubContext()
	if !g.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Access, ctx) {
		t.Error("bare global read must be an effect under the default policy")
	}
	ctx.globalFx = false
	if g.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Access, ctx) {
		t.Error("bare global read reported effects with the policy disabled")
	}

	ctx.globalFx = true
	if g.HasEffectsOnInteractionAtPath(values.ObjectPath{"log"}, values.Call(nil), ctx) {
		t.Error("call at a registered pure path reported effects")
	}
	if !g.HasEffectsOnInteractionAtPath(values.ObjectPath{"error"}, values.Call(nil), ctx) {
		t.Error("call at an unregistered path reported no effects")
	}
	if !g.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Assign(values.NewPrimitive(1)), ctx) {
		t.Error("global assignment must always be an effect")
	}
}

func TestGlobalVariable_ReturnPurityIgnoresRegistry(t *testing.T) {
	reg := purity.Build(map[string]any{"compute": true})
	g := NewGlobalVariable("compute", reg.Child("compute"))
	ctx := newStubContext()

	// registry knowledge belongs to the effect query alone; the value of
	// an ambient call is never known pure
	_, pure := g.GetReturnExpressionWhenCalledAtPath(values.EmptyPath, values.Call(nil), ctx.tracker, nil)
	if pure {
		t.Error("registered purity leaked into the return-expression answer")
	}
	if g.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Call(nil), ctx) {
		t.Error("call at the registered path must still report no effects")
	}
}

func TestImportVariable_DelegatesToTarget(t *testing.T) {
	ctx := newStubContext()
	iv := NewImportVariable("x", "main.js", "lib.js", "x", false)

	// unlinked: plain reads are fine, everything else is opaque
	if iv.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Access, ctx) {
		t.Error("unlinked import read reported effects")
	}
	if !iv.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Call(nil), ctx) {
		t.Error("unlinked import call reported no effects")
	}

	target := NewLocalVariable("x", KindConst, "lib.js")
	target.AddDeclaration(0, nil, values.NewPrimitive(7))
	iv.SetTarget(target)

	if got := iv.GetLiteralValueAtPath(values.EmptyPath, ctx.tracker, nil); got != 7 {
		t.Errorf("literal through linked import = %v, want 7", got)
	}

	iv.Include(ctx)
	if !target.Included() {
		t.Error("including the import did not include the exporting binding")
	}
}

func TestImportVariable_AssignmentAlwaysEffectful(t *testing.T) {
	ctx := newStubContext()
	iv := NewImportVariable("x", "main.js", "lib.js", "x", false)
	target := NewLocalVariable("x", KindLet, "lib.js")
	target.AddDeclaration(0, nil, values.NewPrimitive(1))
	iv.SetTarget(target)

	if !iv.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Assign(values.NewPrimitive(2)), ctx) {
		t.Error("import reassignment must report effects regardless of target kind")
	}
}
