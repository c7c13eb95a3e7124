package ir

import (
	"testing"

	"mjvmc/internal/lexer"
	"mjvmc/internal/parser"
	"mjvmc/internal/typecheck"
	"mjvmc/internal/types"
)

// compile runs source through the full front end and returns the
// lowered module, failing the test on any parse/type error.
func compile(t *testing.T, src string) *Module {
	t.Helper()
	sc := lexer.NewScanner(src)
	toks := sc.ScanTokens()
	p := parser.NewParser(toks, "test.c")
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	c := typecheck.NewChecker("test.c")
	diags := c.Check(prog)
	if diags.HasErrors() {
		t.Fatalf("type errors: %v", diags.Errors())
	}
	return New().Generate(prog, c.HasMain())
}

func kinds(code *List) []Kind {
	var ks []Kind
	for in := code.Head; in != nil; in = in.Next() {
		ks = append(ks, in.Kind)
	}
	return ks
}

func containsKind(code *List, want Kind) bool {
	for in := code.Head; in != nil; in = in.Next() {
		if in.Kind == want {
			return true
		}
	}
	return false
}

func findFunc(mod *Module, name string) *Func {
	for _, f := range mod.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestFallbackReturnAlwaysAppended(t *testing.T) {
	mod := compile(t, "int f() { int x = 1; }")
	fn := findFunc(mod, "f")
	ks := kinds(fn.Code)
	if ks[len(ks)-1] != Return {
		t.Fatalf("expected the body to end with a fallback Return, got %v", ks)
	}
}

func TestExplicitReturnStillGetsFallback(t *testing.T) {
	mod := compile(t, "int f() { return 1; }")
	fn := findFunc(mod, "f")
	count := 0
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == Return {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 Return instructions (explicit + fallback), got %d", count)
	}
}

func TestVoidFunctionGetsReturnVoidFallback(t *testing.T) {
	mod := compile(t, "void f() { }")
	fn := findFunc(mod, "f")
	ks := kinds(fn.Code)
	if ks[len(ks)-1] != ReturnVoid {
		t.Fatalf("expected a ReturnVoid fallback, got %v", ks)
	}
}

func TestArrayDeclAlwaysAllocates(t *testing.T) {
	mod := compile(t, "int f() { int a[5]; return 0; }")
	fn := findFunc(mod, "f")
	if !containsKind(fn.Code, AllocArray) {
		t.Fatal("expected an AllocArray instruction for an uninitialized array declaration")
	}
}

func TestGlobalArrayAllocatesInInitCode(t *testing.T) {
	mod := compile(t, "int g[3];")
	if !containsKind(mod.InitCode, AllocArray) {
		t.Fatal("expected the global array to allocate in InitCode")
	}
}

func TestStringLiteralArrayPopulatesCharByChar(t *testing.T) {
	mod := compile(t, `char msg[] = "hi";`)
	count := 0
	for in := mod.InitCode.Head; in != nil; in = in.Next() {
		if in.Kind == ArrayStore {
			count++
		}
	}
	// 2 characters + 1 NUL terminator
	if count != 3 {
		t.Fatalf("expected 3 ArrayStore instructions ('h', 'i', NUL), got %d", count)
	}
}

func TestReturnCarriesFloatTypeHint(t *testing.T) {
	mod := compile(t, "float f() { return 1.5; }")
	fn := findFunc(mod, "f")
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == Return {
			if in.Sym == nil || in.Sym.Type == nil || in.Sym.Type.Kind != types.Float {
				t.Fatalf("expected a float type hint on Return, got %#v", in.Sym)
			}
		}
	}
}

func TestShortCircuitAndEmitsTwoZeroChecks(t *testing.T) {
	mod := compile(t, "int f() { int a; int b; return a && b; }")
	fn := findFunc(mod, "f")
	jz := 0
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == JumpIfZero {
			jz++
		}
	}
	if jz != 2 {
		t.Fatalf("expected 2 JumpIfZero checks for a short-circuit &&, got %d", jz)
	}
}

func TestMemberAccessLowersToArrayLoadWithIndex(t *testing.T) {
	mod := compile(t, `
		struct Point { int x; int y; };
		int f(struct Point p) { return p.y; }
	`)
	fn := findFunc(mod, "f")
	var pushedIndex int64 = -1
	var sawArrayLoad bool
	var prevKind Kind
	var prevInt int64
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == ArrayLoad && prevKind == PushInt {
			sawArrayLoad = true
			pushedIndex = prevInt
		}
		if in.Kind == PushInt {
			prevInt = in.Int
		}
		prevKind = in.Kind
	}
	if !sawArrayLoad {
		t.Fatal("expected member access to lower to a PushInt(index) followed by ArrayLoad")
	}
	if pushedIndex != 1 {
		t.Fatalf("expected member 'y' (index 1) to be pushed right before the load, got %d", pushedIndex)
	}
}

func TestCompoundArrayAssignUsesDupShuffle(t *testing.T) {
	mod := compile(t, "int f() { int a[5]; a[0] += 3; return 0; }")
	fn := findFunc(mod, "f")
	if !containsKind(fn.Code, Dup2) || !containsKind(fn.Code, DupX2) {
		t.Fatal("expected compound array assignment to use the Dup2/DupX2 stack-shuffle idiom")
	}
}

func TestSimpleArrayAssignUsesDupX2Only(t *testing.T) {
	mod := compile(t, "int f() { int a[5]; a[0] = 3; return 0; }")
	fn := findFunc(mod, "f")
	if containsKind(fn.Code, Dup2) {
		t.Fatal("a simple (non-compound) array assignment should not need to preload the prior element")
	}
	if !containsKind(fn.Code, DupX2) {
		t.Fatal("expected a simple array assignment to still leave the stored value via DupX2")
	}
}

func TestParametersLowerToLocalLoads(t *testing.T) {
	mod := compile(t, "int f(int a) { return a; }")
	fn := findFunc(mod, "f")
	found := false
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == LoadLocal && in.Int == 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the parameter to load from local slot 0")
	}
}

func TestGlobalVariableLowersToGlobalOps(t *testing.T) {
	mod := compile(t, "int g = 1; int f() { g = 2; return g; }")
	fn := findFunc(mod, "f")
	if !containsKind(fn.Code, StoreGlobal) || !containsKind(fn.Code, LoadGlobal) {
		t.Fatal("expected a global variable to lower to LoadGlobal/StoreGlobal, not local slots")
	}
}

func TestBreakAndContinueLowerToJumpsToLoopLabels(t *testing.T) {
	mod := compile(t, "int f() { while (1) { break; continue; } return 0; }")
	fn := findFunc(mod, "f")
	jumps := 0
	for in := fn.Code.Head; in != nil; in = in.Next() {
		if in.Kind == Jump {
			jumps++
		}
	}
	// loop-back jump + break jump + continue jump, at minimum
	if jumps < 3 {
		t.Fatalf("expected at least 3 Jump instructions for a loop with break and continue, got %d", jumps)
	}
}

func TestLabelsAreUniqueAcrossFunctions(t *testing.T) {
	mod := compile(t, `
		int f() { if (1) { return 1; } return 0; }
		int g() { if (1) { return 1; } return 0; }
	`)
	seen := map[string]bool{}
	for _, fn := range mod.Functions {
		for in := fn.Code.Head; in != nil; in = in.Next() {
			if in.Kind == Label {
				if seen[in.Str] {
					t.Fatalf("label %q reused across functions; spec requires unique labels", in.Str)
				}
				seen[in.Str] = true
			}
		}
	}
}
