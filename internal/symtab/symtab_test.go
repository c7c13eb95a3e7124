package symtab

import (
	"testing"

	"mjvmc/internal/types"
)

func TestAddSymbolGlobalIsNotLocal(t *testing.T) {
	tab := New()
	sym, ok := tab.AddSymbol("x", types.IntType())
	if !ok {
		t.Fatal("expected AddSymbol to succeed")
	}
	if sym.IsLocal {
		t.Error("a symbol added in the global scope should not be local")
	}
	if sym.LocalIndex != -1 {
		t.Errorf("global symbol should have LocalIndex -1, got %d", sym.LocalIndex)
	}
}

func TestAddSymbolLocalSlotsAreDense(t *testing.T) {
	tab := New()
	tab.EnterScope()
	a, _ := tab.AddSymbol("a", types.IntType())
	b, _ := tab.AddSymbol("b", types.FloatType())
	if a.LocalIndex != 0 || b.LocalIndex != 1 {
		t.Errorf("expected dense slots 0, 1; got %d, %d", a.LocalIndex, b.LocalIndex)
	}
	if tab.LocalCount() != 2 {
		t.Errorf("expected LocalCount 2, got %d", tab.LocalCount())
	}
}

func TestRedeclarationInSameScopeFails(t *testing.T) {
	tab := New()
	tab.EnterScope()
	if _, ok := tab.AddSymbol("x", types.IntType()); !ok {
		t.Fatal("first declaration should succeed")
	}
	if _, ok := tab.AddSymbol("x", types.IntType()); ok {
		t.Error("redeclaring x in the same scope should fail")
	}
}

func TestShadowingOuterScopeIsAllowed(t *testing.T) {
	tab := New()
	tab.AddSymbol("x", types.IntType())
	tab.EnterScope()
	inner, ok := tab.AddSymbol("x", types.FloatType())
	if !ok {
		t.Fatal("shadowing an outer-scope symbol should be allowed")
	}
	if found := tab.Lookup("x"); found != inner {
		t.Error("lookup should find the innermost shadowing declaration")
	}
}

func TestVariableAndFunctionNamespacesAreIndependent(t *testing.T) {
	tab := New()
	tab.AddSymbol("foo", types.IntType())
	if _, ok := tab.AddSymbol("foo", types.NewFunction(types.VoidType(), nil)); !ok {
		t.Error("a function and a variable with the same name should live in independent namespaces")
	}
}

func TestLookupWalksParentScopes(t *testing.T) {
	tab := New()
	tab.AddSymbol("g", types.IntType())
	tab.EnterScope()
	tab.EnterScope()
	if tab.Lookup("g") == nil {
		t.Error("lookup should walk up through nested scopes to find a global")
	}
}

func TestExitScopeReturnsToParent(t *testing.T) {
	tab := New()
	tab.EnterScope()
	tab.AddSymbol("local", types.IntType())
	tab.ExitScope()
	if tab.Lookup("local") != nil {
		t.Error("a local symbol should not be visible after its scope exits")
	}
	if !tab.IsGlobal() {
		t.Error("exiting the only nested scope should return to global")
	}
}

func TestExitScopeAtGlobalIsNoop(t *testing.T) {
	tab := New()
	tab.ExitScope()
	if !tab.IsGlobal() {
		t.Error("exiting the global scope should be a no-op")
	}
}

func TestAddSymbolAtIndexForParameters(t *testing.T) {
	tab := New()
	tab.EnterScope()
	p0, _ := tab.AddSymbolAtIndex("a", types.IntType(), 0)
	p1, _ := tab.AddSymbolAtIndex("b", types.FloatType(), 1)
	if p0.LocalIndex != 0 || p1.LocalIndex != 1 {
		t.Fatalf("expected explicit indices 0, 1; got %d, %d", p0.LocalIndex, p1.LocalIndex)
	}
	next, _ := tab.AddSymbol("c", types.IntType())
	if next.LocalIndex != 2 {
		t.Errorf("next auto-assigned local should continue after the explicit indices, got %d", next.LocalIndex)
	}
}

func TestStructNamespaceSeparateFromVars(t *testing.T) {
	tab := New()
	st := types.NewStruct("Point", nil)
	if !tab.AddStruct("Point", st) {
		t.Fatal("expected AddStruct to succeed")
	}
	if tab.AddStruct("Point", st) {
		t.Error("redefining a struct in the same scope should fail")
	}
	tab.AddSymbol("Point", types.IntType())
	if tab.LookupStruct("Point") != st {
		t.Error("a variable named Point should not shadow the struct namespace")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sym := &Symbol{Name: "x", Type: types.IntType(), LocalIndex: 3}
	cp := sym.Clone()
	cp.LocalIndex = 9
	if sym.LocalIndex == 9 {
		t.Error("mutating a clone should not affect the original symbol")
	}
}
