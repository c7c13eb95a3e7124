// Package types is the algebraic value-type model shared by the
// checker, the IR generator and the emitter (spec §3.1 / §4.1).
package types

import "strings"

// Kind discriminates the closed set of value types the source
// language supports.
type Kind int

const (
	Int Kind = iota
	Char
	Float
	Void
	Array
	Function
	Struct
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Char:
		return "char"
	case Float:
		return "float"
	case Void:
		return "void"
	case Array:
		return "array"
	case Function:
		return "function"
	case Struct:
		return "struct"
	default:
		return "?"
	}
}

// Member is one (name, type) pair of a struct definition, in
// declaration order.
type Member struct {
	Name string
	Type *Type
}

// Type is a tagged union over Kind. Only the fields relevant to the
// current Kind are meaningful; the rest are zero.
type Type struct {
	Kind    Kind
	IsConst bool

	// Array
	Elem *Type
	Size int // 0 means "not yet resolved", see ResolveArraySize.

	// Function
	Ret    *Type
	Params []*Type

	// Struct
	Name    string
	Members []Member
}

// Canonical, shared singletons for the non-const primitives. Mutating
// callers must produce a fresh *Type (see WithConst).
var (
	intType   = &Type{Kind: Int}
	charType  = &Type{Kind: Char}
	floatType = &Type{Kind: Float}
	voidType  = &Type{Kind: Void}
)

func IntType() *Type   { return intType }
func CharType() *Type  { return charType }
func FloatType() *Type { return floatType }
func VoidType() *Type  { return voidType }

// WithConst returns a fresh copy of t with IsConst set. Primitive
// singletons are never mutated in place.
func WithConst(t *Type, isConst bool) *Type {
	if t == nil {
		return nil
	}
	cp := *t
	cp.IsConst = isConst
	return &cp
}

// NewArray builds an array-of-elem type. size == 0 means unresolved
// (spec §3.1: default 10 with no initializer/size syntax, or
// len(string literal)+1).
func NewArray(elem *Type, size int) *Type {
	return &Type{Kind: Array, Elem: elem, Size: size}
}

// NewCharArray is the type of a string literal: array of const char.
func NewCharArray(size int) *Type {
	return NewArray(WithConst(CharType(), true), size)
}

// NewFunction builds a function type from a return type and ordered
// parameter types.
func NewFunction(ret *Type, params []*Type) *Type {
	return &Type{Kind: Function, Ret: ret, Params: params}
}

// NewStruct builds a nominal struct type. Two struct types compare
// equal iff their Name matches (see Equal).
func NewStruct(name string, members []Member) *Type {
	return &Type{Kind: Struct, Name: name, Members: members}
}

// ResolveArraySize fills in an unresolved (Size == 0) array size,
// defaulting to 10 absent any other signal. Call this once the
// checker has examined the declaration's initializer.
func ResolveArraySize(t *Type, stringLiteralLen int, hasExplicitSize bool, explicitSize int) {
	if t == nil || t.Kind != Array {
		return
	}
	switch {
	case hasExplicitSize:
		t.Size = explicitSize
	case stringLiteralLen >= 0:
		t.Size = stringLiteralLen + 1
	case t.Size == 0:
		t.Size = 10
	}
}

// Equal is structural equality, except struct types which compare by
// name only (spec §3.1: "nominal"). Const qualifiers are ignored on
// array elements during comparison, per spec.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int, Char, Float, Void:
		return true
	case Array:
		return Equal(elemIgnoringConst(a.Elem), elemIgnoringConst(b.Elem))
	case Function:
		if !Equal(a.Ret, b.Ret) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct:
		return a.Name == b.Name
	}
	return false
}

func elemIgnoringConst(t *Type) *Type {
	if t == nil {
		return nil
	}
	return WithConst(t, false)
}

// widenRank orders the Char ⊑ Int ⊑ Float chain. Anything else is
// unranked (-1).
func widenRank(k Kind) int {
	switch k {
	case Char:
		return 0
	case Int:
		return 1
	case Float:
		return 2
	default:
		return -1
	}
}

// Widens reports whether a value of type from may be used where a
// value of type to is expected: equal types always widen; otherwise
// from must sit at or below to on the Char ⊑ Int ⊑ Float chain.
// Not commutative: Widens(Int, Char) is false even though
// Widens(Char, Int) is true.
func Widens(from, to *Type) bool {
	if Equal(from, to) {
		return true
	}
	rf, rt := widenRank(from.Kind), widenRank(to.Kind)
	if rf < 0 || rt < 0 {
		return false
	}
	return rf <= rt
}

// IsNumeric reports Int or Float.
func IsNumeric(t *Type) bool {
	return t != nil && (t.Kind == Int || t.Kind == Float)
}

// IsIntegral reports Int or Char — the operand class required by
// modulo, bitwise and shift operators (spec §4.3).
func IsIntegral(t *Type) bool {
	return t != nil && (t.Kind == Int || t.Kind == Char)
}

// IsScalar reports any type usable in a truthiness test (&&, ||, !):
// int, char or float. The checker types comparison and logical
// results as Int, not Char.
func IsScalar(t *Type) bool {
	return t != nil && (t.Kind == Int || t.Kind == Char || t.Kind == Float)
}

// Print returns the JVM descriptor spelling used by the emitter (spec
// §4.1, §6.3); diagnostics use Describe.
func Print(t *Type) string {
	if t == nil {
		return "<error>"
	}
	switch t.Kind {
	case Int:
		return "I"
	case Char:
		return "C"
	case Float:
		return "F"
	case Void:
		return "V"
	case Array:
		return "[" + Print(t.Elem)
	case Struct:
		return "Ljava/lang/Object;"
	case Function:
		var b strings.Builder
		b.WriteByte('(')
		for _, p := range t.Params {
			b.WriteString(Print(p))
		}
		b.WriteByte(')')
		b.WriteString(Print(t.Ret))
		return b.String()
	default:
		return "?"
	}
}

// Describe returns a human-readable spelling for diagnostics (distinct
// from Print, which returns JVM descriptors).
func Describe(t *Type) string {
	if t == nil {
		return "<error>"
	}
	switch t.Kind {
	case Array:
		prefix := ""
		if t.Elem != nil && t.Elem.IsConst {
			prefix = "const "
		}
		return prefix + Describe(t.Elem) + "[]"
	case Struct:
		return "struct " + t.Name
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = Describe(p)
		}
		return Describe(t.Ret) + "(" + strings.Join(parts, ", ") + ")"
	default:
		prefix := ""
		if t.IsConst {
			prefix = "const "
		}
		return prefix + t.Kind.String()
	}
}
