package values

import "testing"

type testContext struct {
	tracker       *Tracker
	passRequested bool
	globalFx      bool
	issues        []error
}

func newTestContext() *testContext {
	return &testContext{tracker: NewTracker(), globalFx: true}
}

func (c *testContext) RequestTreeshakingPass()        { c.passRequested = true }
func (c *testContext) PathTracker() *Tracker          { return c.tracker }
func (c *testContext) UnknownGlobalSideEffects() bool { return c.globalFx }
func (c *testContext) ReportIssue(err error)          { c.issues = append(c.issues, err) }

func TestUnknownExpression_Conservative(t *testing.T) {
	ctx := newTestContext()

	if !UnknownExpr.HasEffectsOnInteractionAtPath(EmptyPath, Access, ctx) {
		t.Error("unknown value must report effects on access")
	}
	if !UnknownExpr.HasEffectsOnInteractionAtPath(ObjectPath{"a"}, Call(nil), ctx) {
		t.Error("unknown value must report effects on call")
	}
	if v := UnknownExpr.GetLiteralValueAtPath(EmptyPath, ctx.tracker, nil); !IsUnknown(v) {
		t.Errorf("literal of unknown value = %v, want Unknown", v)
	}
	ret, pure := UnknownExpr.GetReturnExpressionWhenCalledAtPath(EmptyPath, Call(nil), ctx.tracker, nil)
	if ret != Expression(UnknownExpr) || pure {
		t.Errorf("call through unknown = (%v, %v), want (UnknownExpr, false)", ret, pure)
	}
}

func TestUnknownExpression_IncludesAllCallArguments(t *testing.T) {
	ctx := newTestContext()
	args := []Expression{NewPrimitive(1), NewPrimitive("x")}
	UnknownExpr.IncludeCallArguments(ctx, args)
	for i, arg := range args {
		if !arg.(*Primitive).Included() {
			t.Errorf("argument %d not included", i)
		}
	}
}

func TestPrimitive_LiteralAndEffects(t *testing.T) {
	ctx := newTestContext()
	p := NewPrimitive("hello")

	if p.HasEffectsOnInteractionAtPath(EmptyPath, Access, ctx) {
		t.Error("reading a primitive has no effects")
	}
	if !p.HasEffectsOnInteractionAtPath(EmptyPath, Call(nil), ctx) {
		t.Error("calling a primitive throws and must report effects")
	}
	if v := p.GetLiteralValueAtPath(EmptyPath, ctx.tracker, nil); v != "hello" {
		t.Errorf("literal = %v, want hello", v)
	}
	if v := p.GetLiteralValueAtPath(ObjectPath{"length"}, ctx.tracker, nil); !IsUnknown(v) {
		t.Errorf("literal at sub-path = %v, want Unknown", v)
	}
}

func TestUndefinedIsNotUnknown(t *testing.T) {
	if IsUnknown(Undefined) {
		t.Error("Undefined is a statically known value, not Unknown")
	}
}
