package scope

import (
	"errors"
	"testing"

	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/token"
)

func mustRef(t *testing.T, s Scope, name string) Ref {
	t.Helper()
	ref, err := s.Reference(name, token.Token{})
	if err != nil {
		t.Fatalf("Reference(%q): %v", name, err)
	}
	return ref
}

func TestBindIsPersistent(t *testing.T) {
	root := NewArena().Root()
	a := root.Bind("x")
	b := root.Bind("y")

	if _, err := b.Reference("x", token.Token{}); err == nil {
		t.Error("sibling scope should not see x")
	}
	if ref := mustRef(t, a, "x"); ref.Target != "x" {
		t.Errorf("target = %q, want x", ref.Target)
	}
}

func TestBindDeduplicatesWithinFunction(t *testing.T) {
	s := NewArena().Root()
	first := s.Bind("x")
	second := first.Bind("x")
	third := second.Bind("x")

	if got := []string{first.Decl().Name, second.Decl().Name, third.Decl().Name}; got[0] != "x" || got[1] != "x1" || got[2] != "x2" {
		t.Errorf("targets = %v, want [x x1 x2]", got)
	}
	if ref := mustRef(t, third, "x"); ref.Target != "x2" {
		t.Errorf("innermost binding should win, got %q", ref.Target)
	}
}

func TestShadowingAcrossFunctionsStaysDistinct(t *testing.T) {
	outer := NewArena().Root().Bind("x")
	inner := outer.NewFunction().Bind("y")

	// the outer x is referenced inside the inner function before it is shadowed
	before := mustRef(t, inner, "x")
	shadowed := inner.Bind("x")
	after := mustRef(t, shadowed, "x")

	if before.Target == after.Target {
		t.Errorf("shadowing binding reused target %q", after.Target)
	}
}

func TestBindMangles(t *testing.T) {
	s := NewArena().Root().Bind("class").Bind("a'")
	if got := mustRef(t, s, "class").Target; got != "_$class" {
		t.Errorf("class -> %q", got)
	}
	if got := mustRef(t, s, "a'").Target; got != "a$z" {
		t.Errorf("a' -> %q", got)
	}
}

func TestUnboundSymbol(t *testing.T) {
	s := NewArena().Root()
	_, err := s.Reference("nope", token.New("nope", 2, 5))
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) {
		t.Fatalf("expected a diagnostic, got %v", err)
	}
	if de.Code != diagnostics.ErrL001 || de.Message != "Symbol nope not declared" || de.Token.Line != 2 {
		t.Errorf("unexpected diagnostic %+v", de)
	}
}

func TestBuiltinsAreBound(t *testing.T) {
	s := NewArena().Root()
	for _, name := range Builtins {
		mustRef(t, s, name)
	}
	if got := mustRef(t, s, "throw").Target; got != "_$throw" {
		t.Errorf("throw -> %q", got)
	}
}

func TestFreeVariables(t *testing.T) {
	root := NewArena().Root().Bind("a").Bind("b")
	fn := root.NewFunction()
	body := fn.Bind("p")

	mustRef(t, body, "p")
	mustRef(t, body, "b")
	mustRef(t, body, "a")
	mustRef(t, body, "b")

	free := fn.Boundary().FreeVariables()
	if len(free) != 2 || free[0].Source != "b" || free[1].Source != "a" {
		t.Fatalf("free variables = %+v, want [b a]", free)
	}
	if !free[0].Boundary.Same(root.Boundary()) {
		t.Error("free variable should be owned by the outer boundary")
	}
}

func TestFreeVariablesOfNestedFunctions(t *testing.T) {
	root := NewArena().Root().Bind("g")
	outer := root.NewFunction().Bind("x")
	inner := outer.NewFunction().Bind("y")

	mustRef(t, inner, "x")
	mustRef(t, inner, "g")

	innerFree := inner.Boundary().FreeVariables()
	outerFree := outer.Boundary().FreeVariables()
	if len(innerFree) != 2 {
		t.Errorf("inner free = %+v, want x and g", innerFree)
	}
	if len(outerFree) != 1 || outerFree[0].Source != "g" {
		t.Errorf("outer free = %+v, want only g", outerFree)
	}
}

func TestTemporariesAreUnique(t *testing.T) {
	a := NewArena()
	s := a.Root()
	t1 := s.Bind("").Decl().Name
	t2 := a.Temp().Name
	if t1 == t2 || t1[:3] != "_$v" {
		t.Errorf("temporaries %q and %q", t1, t2)
	}
}

func TestUnused(t *testing.T) {
	start := NewArena().Root()
	s := start.BindAt("used", token.New("used", 1, 1)).
		BindAt("unused", token.New("unused", 2, 1)).
		BindAt("_ignored", token.New("_ignored", 3, 1))
	mustRef(t, s, "used")

	got := s.Unused(start)
	if len(got) != 1 || got[0].Name != "unused" || got[0].Token.Line != 2 {
		t.Errorf("Unused = %+v", got)
	}
}

func TestLooping(t *testing.T) {
	fn := NewArena().Root().NewFunction()
	b := fn.Boundary()
	if b.Looping() {
		t.Fatal("fresh boundary should not loop")
	}
	x := fn.Bind("x")
	b.MarkLooping(x.Decl())
	inner := x.Bind("y")
	if !inner.Boundary().Looping() {
		t.Error("scopes inside the boundary should see the mark")
	}
	if !b.LoopParam("x") || b.LoopParam("y") {
		t.Error("only the loop parameters are reassigned")
	}
}
