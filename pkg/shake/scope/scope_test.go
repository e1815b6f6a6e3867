package scope

import (
	"testing"

	"github.com/ericmutta/rollup/pkg/shake/purity"
)

func TestFunctionScope_SkipsBlocks(t *testing.T) {
	root := NewRootScope(purity.New())
	fn := NewScope(root, FunctionScope)
	block := NewScope(fn, BlockScope)
	inner := NewScope(block, BlockScope)

	if got := inner.FunctionScope(); got != fn {
		t.Error("nested block did not resolve to the enclosing function scope")
	}
	if got := root.FunctionScope(); got != root {
		t.Error("module scope is its own function scope")
	}
}

func TestLookup_WalksOutward(t *testing.T) {
	root := NewRootScope(purity.New())
	child := NewScope(root, BlockScope)

	outer := NewLocalVariable("x", KindLet, "m")
	root.Set("x", outer)

	if got := child.Lookup("x"); got != Variable(outer) {
		t.Error("inner scope did not see outer binding")
	}

	shadow := NewLocalVariable("x", KindLet, "m")
	child.Set("x", shadow)
	if got := child.Lookup("x"); got != Variable(shadow) {
		t.Error("shadowing binding not preferred")
	}
	if got := root.Lookup("x"); got != Variable(outer) {
		t.Error("outer scope affected by shadowing")
	}
}

func TestFindVariable_MaterializesGlobalsOnce(t *testing.T) {
	reg := purity.Build(map[string]any{"Math": true})
	root := NewRootScope(reg)
	child := NewScope(root, FunctionScope)

	g1 := child.FindVariable("Math")
	g2 := root.FindVariable("Math")
	if g1 != g2 {
		t.Error("same name materialized two distinct globals")
	}
	if _, ok := g1.(*GlobalVariable); !ok {
		t.Errorf("unresolved name materialized %T, want *GlobalVariable", g1)
	}

	if declared := root.Declared("Math"); declared != nil {
		t.Error("ambient global leaked into declared variables")
	}
}
