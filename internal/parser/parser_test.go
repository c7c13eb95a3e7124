package parser

import (
	"fmt"
	"testing"

	"mjvmc/internal/lexer"
)

// parseString mirrors the teacher's parser_test.go helper: scan then
// parse, recovering a parser panic into the Errors slice.
func parseString(input string) (prog *Program, errs []error) {
	scanner := lexer.NewScanner(input)
	tokens := scanner.ScanTokens()
	p := NewParser(tokens, "test.c")
	prog = p.Parse()
	errs = p.Errors
	return
}

func assertParseSuccess(t *testing.T, input, description string) *Program {
	t.Helper()
	prog, errs := parseString(input)
	if len(errs) > 0 {
		t.Fatalf("%s: parsing %q failed: %v", description, input, errs)
	}
	return prog
}

func assertParseError(t *testing.T, input, description string) {
	t.Helper()
	_, errs := parseString(input)
	if len(errs) == 0 {
		t.Fatalf("%s: expected parsing %q to fail but it succeeded", description, input)
	}
}

func TestTopLevelDeclarations(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		shouldPass bool
	}{
		{"global scalar", "int x;", true},
		{"global with initializer", "int x = 5;", true},
		{"global array with size", "int arr[10];", true},
		{"global array with initializer", `char msg[] = "hi";`, true},
		{"const requires initializer", "const int x;", true}, // parser allows it; checker rejects it
		{"struct decl", "struct Point { int x; int y; };", true},
		{"function decl", "int add(int a, int b) { return a + b; }", true},
		{"void function", "void greet() { putstring(\"hi\"); }", true},
		{"missing semicolon", "int x", false},
		{"missing type", "x = 5;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldPass {
				assertParseSuccess(t, tt.input, tt.name)
			} else {
				assertParseError(t, tt.input, tt.name)
			}
		})
	}
}

func TestFunctionBodyStatements(t *testing.T) {
	tests := []string{
		"int f() { if (1) return 1; else return 0; }",
		"int f() { while (1) { break; } return 0; }",
		"int f() { do { continue; } while (0); return 0; }",
		"int f() { for (int i = 0; i < 10; i = i + 1) { } return 0; }",
		"int f() { int x = 1; x += 2; return x; }",
		"int f() { int a[5]; a[0] = 1; return a[0]; }",
	}
	for _, src := range tests {
		assertParseSuccess(t, src, src)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	prog := assertParseSuccess(t, "int f() { return 1 + 2 * 3; }", "precedence")
	fn := prog.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	bin, ok := ret.Value.(*BinaryExpr)
	if !ok || bin.Op != OpAdd {
		t.Fatalf("expected top-level Add, got %#v", ret.Value)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != OpMul {
		t.Fatalf("expected right-hand Mul for '2 * 3', got %#v", bin.Right)
	}
}

func TestTernaryIsRightAssociative(t *testing.T) {
	prog := assertParseSuccess(t, "int f() { return 1 ? 2 : 3 ? 4 : 5; }", "ternary")
	fn := prog.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	outer, ok := ret.Value.(*TernaryExpr)
	if !ok {
		t.Fatalf("expected TernaryExpr, got %#v", ret.Value)
	}
	if _, ok := outer.Else.(*TernaryExpr); !ok {
		t.Fatalf("expected nested ternary in the else branch, got %#v", outer.Else)
	}
}

func TestCastDisambiguation(t *testing.T) {
	prog := assertParseSuccess(t, "int f() { return (int)3.5; }", "cast")
	fn := prog.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	u, ok := ret.Value.(*UnaryExpr)
	if !ok || u.Op != UnaryCast {
		t.Fatalf("expected a cast unary expr, got %#v", ret.Value)
	}
}

func TestMemberAccess(t *testing.T) {
	prog := assertParseSuccess(t, "int f(struct Point p) { return p.x; }", "member access")
	fn := prog.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	if _, ok := ret.Value.(*MemberAccessExpr); !ok {
		t.Fatalf("expected MemberAccessExpr, got %#v", ret.Value)
	}
}

func TestCompoundAssignOperators(t *testing.T) {
	tests := map[string]AssignOp{
		"x += 1;": AssignAdd,
		"x -= 1;": AssignSub,
		"x *= 1;": AssignMul,
		"x /= 1;": AssignDiv,
		"x %= 1;": AssignMod,
		"x &= 1;": AssignBitAnd,
		"x |= 1;": AssignBitOr,
		"x ^= 1;": AssignBitXor,
	}
	for stmt, want := range tests {
		src := fmt.Sprintf("int f() { int x; %s return 0; }", stmt)
		prog := assertParseSuccess(t, src, stmt)
		fn := prog.Decls[0].(*FuncDecl)
		assign, ok := fn.Body.Stmts[1].(*AssignExpr)
		if !ok || assign.Op != want {
			t.Fatalf("%s: expected AssignOp %d, got %#v", stmt, want, fn.Body.Stmts[1])
		}
	}
}
