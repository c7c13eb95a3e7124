// Package stdlib preinstalls the seven fixed lib440 runtime signatures
// into the global scope before user code is checked (spec §4.6,
// grounded on original_source/src/symtab.c:init_stdlib).
package stdlib

import (
	"mjvmc/internal/symtab"
	"mjvmc/internal/types"
)

// ClassName is the Jasmin class that hosts the fixed runtime.
const ClassName = "lib440"

// Java2C is the helper used to convert a Java String constant (from a
// string-literal ldc) into the compiler's char-array string
// representation (spec §4.5, §4.6).
const Java2C = "java2c"

// Names lists the seven stdlib entry points, in the order spec §4.6
// documents them.
var Names = []string{
	"getchar", "putchar", "getint", "putint", "getfloat", "putfloat", "putstring",
}

// Install adds the stdlib functions to t's current (must be global)
// scope. Call once, before checking any user declarations.
func Install(t *symtab.Table) {
	def := func(name string, ret *types.Type, params ...*types.Type) {
		sym, ok := t.AddSymbol(name, types.NewFunction(ret, params))
		if ok {
			sym.FromStdlib = true
		}
	}

	def("getchar", types.IntType())
	def("putchar", types.IntType(), types.IntType())
	def("getint", types.IntType())
	def("putint", types.VoidType(), types.IntType())
	def("getfloat", types.FloatType())
	def("putfloat", types.VoidType(), types.FloatType())
	def("putstring", types.VoidType(), types.NewCharArray(0))
}

// stdlibSet backs IsStdlib: a name-based membership test kept
// alongside the symbol's FromStdlib flag, mirroring
// original_source/src/symtab.c's is_stdlib_function. The emitter's
// call lowering decides by the FromStdlib flag, not by this set (see
// SPEC_FULL.md §4).
var stdlibSet = func() map[string]bool {
	m := make(map[string]bool, len(Names))
	for _, n := range Names {
		m[n] = true
	}
	return m
}()

// IsStdlib reports whether name is one of the seven fixed lib440
// entry points.
func IsStdlib(name string) bool {
	return stdlibSet[name]
}

// Descriptor returns the exact Jasmin method descriptor used when
// calling name from lib440 (spec §4.5's invokestatic shims).
func Descriptor(name string) string {
	switch name {
	case "getchar":
		return "()I"
	case "putchar":
		return "(I)I"
	case "getint":
		return "()I"
	case "putint":
		return "(I)V"
	case "getfloat":
		return "()F"
	case "putfloat":
		return "(F)V"
	case "putstring":
		return "([C)V"
	default:
		return ""
	}
}
