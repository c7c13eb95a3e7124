package emitter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mjvmc/internal/ir"
	"mjvmc/internal/lexer"
	"mjvmc/internal/parser"
	"mjvmc/internal/typecheck"
)

// compileToJasmin runs src through the full pipeline and returns the
// emitted Jasmin text, failing the test on any front-end error.
func compileToJasmin(t *testing.T, src string) string {
	t.Helper()
	sc := lexer.NewScanner(src)
	toks := sc.ScanTokens()
	p := parser.NewParser(toks, "test.c")
	prog := p.Parse()
	require.Empty(t, p.Errors, "unexpected parse errors for %q", src)

	c := typecheck.NewChecker("test.c")
	diags := c.Check(prog)
	require.False(t, diags.HasErrors(), "unexpected type errors for %q: %v", src, diags.Errors())

	mod := ir.New().Generate(prog, c.HasMain())

	var buf bytes.Buffer
	require.NoError(t, New(nil).Emit(mod, "Test", &buf))
	return buf.String()
}

func TestClassHeaderAndFields(t *testing.T) {
	out := compileToJasmin(t, "int g;")
	require.Contains(t, out, ".class public Test\n")
	require.Contains(t, out, ".super java/lang/Object\n")
	require.Contains(t, out, ".field public static g I\n")
}

func TestInitMethodAlwaysPresent(t *testing.T) {
	out := compileToJasmin(t, "int f() { return 0; }")
	require.Contains(t, out, ".method <init> : ()V")
	require.Contains(t, out, "invokespecial java/lang/Object/<init>()V")
}

func TestClinitOnlyEmittedWhenInitCodeNonEmpty(t *testing.T) {
	withArray := compileToJasmin(t, "int g[3];")
	require.Contains(t, withArray, "<clinit>")

	withoutArray := compileToJasmin(t, "int g;")
	require.NotContains(t, withoutArray, "<clinit>")
}

func TestIntMainTrampolinePassesResultToExit(t *testing.T) {
	out := compileToJasmin(t, "int main() { return 0; }")
	require.Contains(t, out, "invokestatic Method Test main ()I\n")
	require.Contains(t, out, "invokestatic Method Test main ()I\n    invokestatic Method java/lang/System exit (I)V\n")
}

func TestVoidMainTrampolineSkipsPop(t *testing.T) {
	out := compileToJasmin(t, "void main() { }")
	require.Contains(t, out, "invokestatic Method Test main ()V\n")
	require.NotContains(t, out, "main ()V\n    pop\n")
}

func TestNoMainMeansNoTrampoline(t *testing.T) {
	out := compileToJasmin(t, "int f() { return 0; }")
	require.NotContains(t, out, "public static main : ([Ljava/lang/String;)V")
}

func TestFunctionDescriptor(t *testing.T) {
	out := compileToJasmin(t, "int add(int a, float b) { return a; }")
	require.Contains(t, out, ".method public static add : (IF)I\n")
}

func TestVoidFunctionDescriptorAndReturn(t *testing.T) {
	out := compileToJasmin(t, "void f() { }")
	require.Contains(t, out, ".method public static f : ()V\n")
	require.Contains(t, out, "    return\n")
}

func TestPushIntLadderBoundaries(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"-1", "iconst_m1"},
		{"0", "iconst_0"},
		{"5", "iconst_5"},
		{"6", "bipush 6"},
		{"127", "bipush 127"},
		{"128", "sipush 128"},
		{"32767", "sipush 32767"},
		{"32768", "ldc 32768"},
	}
	for _, c := range cases {
		out := compileToJasmin(t, "int f() { return "+c.expr+"; }")
		require.Contains(t, out, c.want, "for literal %s", c.expr)
	}
}

func TestComparisonEmitsFiveLineIdiom(t *testing.T) {
	out := compileToJasmin(t, "int f() { int a; int b; return a < b; }")
	require.Contains(t, out, "if_icmplt Lcmp")
	require.Contains(t, out, "iconst_0\n")
	require.Contains(t, out, "goto Lcmpend")
	require.Contains(t, out, "iconst_1\n")
}

func TestFloatComparisonUsesFcmpg(t *testing.T) {
	out := compileToJasmin(t, "int f() { float a; float b; return a < b; }")
	require.Contains(t, out, "fcmpg")
	require.Contains(t, out, "iflt Lcmp")
}

func TestIntArithmeticOpcodes(t *testing.T) {
	out := compileToJasmin(t, "int f() { int a; int b; return a + b; }")
	require.Contains(t, out, "    iadd\n")
}

func TestFloatArithmeticOpcodes(t *testing.T) {
	out := compileToJasmin(t, "float f() { float a; float b; return a + b; }")
	require.Contains(t, out, "    fadd\n")
}

func TestCharArrayOpcodeLetter(t *testing.T) {
	out := compileToJasmin(t, "int f() { char a[5]; return a[0]; }")
	require.Contains(t, out, "    caload\n")
	require.Contains(t, out, "newarray char")
}

func TestFloatArrayOpcodeLetter(t *testing.T) {
	out := compileToJasmin(t, "int f() { float a[5]; a[0] = 1.0; return 0; }")
	require.Contains(t, out, "    fastore\n")
	require.Contains(t, out, "newarray float")
}

func TestIntArrayOpcodeLetter(t *testing.T) {
	out := compileToJasmin(t, "int f() { int a[5]; return a[0]; }")
	require.Contains(t, out, "    iaload\n")
	require.Contains(t, out, "newarray int")
}

func TestStdlibCallLowersToLib440Invocation(t *testing.T) {
	out := compileToJasmin(t, "int f() { putint(1); return 0; }")
	require.Contains(t, out, "invokestatic Method lib440 putint (I)V\n")
}

func TestUserCallQualifiesWithClassName(t *testing.T) {
	out := compileToJasmin(t, "int g() { return 1; } int f() { return g(); }")
	require.Contains(t, out, "invokestatic Method Test g ()I\n")
}

func TestLocalSlotZeroThreeUseShortForm(t *testing.T) {
	out := compileToJasmin(t, "int f(int a) { return a; }")
	require.Contains(t, out, "    iload_0\n")
}

func TestStringLiteralGoesThroughJava2C(t *testing.T) {
	out := compileToJasmin(t, `void f() { putstring("hi"); }`)
	require.Contains(t, out, "invokestatic Method lib440 java2c")
}

func TestLocalsLimitIsAtLeastOne(t *testing.T) {
	out := compileToJasmin(t, "void f() { }")
	lines := strings.Split(out, "\n")
	found := false
	for i, l := range lines {
		if strings.Contains(l, ".method public static f : ()V") {
			require.Contains(t, lines[i+1], ".code stack")
			require.Contains(t, lines[i+1], "locals 1")
			found = true
		}
	}
	require.True(t, found, "expected to find f's method block")
}

func TestClassNameFromPath(t *testing.T) {
	require.Equal(t, "Hello", ClassNameFromPath("out/Hello.j"))
	require.Equal(t, "prog", ClassNameFromPath("prog.j"))
}
