// Package parser builds the abstract syntax tree (spec §3.4) and the
// recursive-descent parser that produces it. AST node shape follows
// the teacher's internal/parser/ast.go (a small interface plus one
// concrete struct per node kind) retargeted from sentra's
// expression-first grammar to this C-subset's statement-first one.
package parser

import (
	"mjvmc/internal/symtab"
	"mjvmc/internal/types"
)

// BinOp enumerates the binary arithmetic/bitwise/compare operators
// (spec §3.4).
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
)

// AssignOp enumerates simple assignment and its compound variants.
type AssignOp int

const (
	AssignSimple AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignShl
	AssignShr
)

// IsArithmeticCompound reports whether op is +=/-=, the two compound
// forms spec §4.3 allows on an array lvalue for pointer arithmetic.
func (op AssignOp) IsArithmeticCompound() bool {
	return op == AssignAdd || op == AssignSub
}

// RequiresIntegral reports whether op's rule is "both sides integral"
// (spec §4.3: %= &= |= ^= <<= >>=).
func (op AssignOp) RequiresIntegral() bool {
	switch op {
	case AssignMod, AssignBitAnd, AssignBitOr, AssignBitXor, AssignShl, AssignShr:
		return true
	default:
		return false
	}
}

// UnaryOp enumerates the unary operator forms (spec §3.4). Addr/Deref
// are parsed for grammar completeness but the type model (spec §3.1)
// has no pointer type, so the checker rejects them — see
// typecheck.Checker's handling and DESIGN.md.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryNeg
	UnaryPreInc
	UnaryPostInc
	UnaryPreDec
	UnaryPostDec
	UnaryAddr
	UnaryDeref
	UnaryNot
	UnaryBitNot
	UnaryCast
)

// Node is the common interface every AST node satisfies. Concrete
// types embed Base, which carries the fields spec §3.4 says every
// node has: inferred type, bound symbol, source position, and the
// parser's raw sibling-list pointer.
type Node interface {
	Pos() (file string, line int)
	GetType() *types.Type
	SetType(*types.Type)
	GetSymbol() *symtab.Symbol
	SetSymbol(*symtab.Symbol)
	GetNext() Node
	SetNext(Node)
}

// Base implements Node's bookkeeping fields; every concrete node type
// embeds it.
type Base struct {
	File   string
	Line   int
	Type   *types.Type
	Symbol *symtab.Symbol
	Next   Node
}

func (b *Base) Pos() (string, int)         { return b.File, b.Line }
func (b *Base) GetType() *types.Type       { return b.Type }
func (b *Base) SetType(t *types.Type)      { b.Type = t }
func (b *Base) GetSymbol() *symtab.Symbol  { return b.Symbol }
func (b *Base) SetSymbol(s *symtab.Symbol) { b.Symbol = s }
func (b *Base) GetNext() Node              { return b.Next }
func (b *Base) SetNext(n Node)             { b.Next = n }

// ---- Literals ----

type IntLit struct {
	Base
	Value int64
}

type FloatLit struct {
	Base
	Value float64
}

type CharLit struct {
	Base
	Value byte
}

type StringLit struct {
	Base
	Value string
}

type BoolLit struct {
	Base
	Value bool
}

// Ident is an identifier use; after binding, Symbol points at its
// declaration.
type Ident struct {
	Base
	Name string
}

// BinaryExpr: left Op right.
type BinaryExpr struct {
	Base
	Op    BinOp
	Left  Node
	Right Node
}

// LogicalExpr: left && right / left || right (short-circuit, spec §4.4).
type LogicalExpr struct {
	Base
	Or    bool // false => &&, true => ||
	Left  Node
	Right Node
}

// AssignExpr: lhs Op= rhs.
type AssignExpr struct {
	Base
	Op  AssignOp
	LHS Node
	RHS Node
}

// TernaryExpr: cond ? then : else.
type TernaryExpr struct {
	Base
	Cond Node
	Then Node
	Else Node
}

// UnaryExpr covers +/-, ++/-- (pre/post), &, *, !, ~ and cast(T).
type UnaryExpr struct {
	Base
	Op       UnaryOp
	Operand  Node
	CastType *types.Type // only meaningful when Op == UnaryCast
}

// DeclNode is a variable declaration, optionally with an initializer
// and/or an explicit array size.
type DeclNode struct {
	Base
	Name      string
	DeclType  *types.Type
	Init      Node
	IsArray   bool
	HasSize   bool
	ArraySize int
}

// Param is a function parameter — syntactically a restricted decl (no
// initializer). Also reused for struct member declarations.
type Param struct {
	Base
	Name     string
	DeclType *types.Type
}

// FuncDecl is a function definition.
type FuncDecl struct {
	Base
	Name       string
	ReturnType *types.Type
	Params     []*Param
	Body       *BlockStmt

	// LocalCount is filled in by the type checker once the body has
	// been walked: the number of local variable slots the function's
	// scope assigned (spec §4.2's "dense, starting at 0"). The IR
	// generator and emitter use it to size the locals count of the
	// .code directive.
	LocalCount int
}

// CallExpr: Callee(Args...).
type CallExpr struct {
	Base
	Callee string
	Args   []Node
}

// BlockStmt is a braced statement sequence.
type BlockStmt struct {
	Base
	Stmts []Node
}

// ArrayAccessExpr: Array[Index].
type ArrayAccessExpr struct {
	Base
	Array Node
	Index Node
}

// MemberAccessExpr: Object.Member.
type MemberAccessExpr struct {
	Base
	Object Node
	Member string
}

// StructDecl defines a struct type.
type StructDecl struct {
	Base
	Name    string
	Members []*Param
}

// IfStmt: if (Cond) Then [else Else].
type IfStmt struct {
	Base
	Cond Node
	Then Node
	Else Node
}

// WhileStmt: while (Cond) Body.
type WhileStmt struct {
	Base
	Cond Node
	Body Node
}

// DoWhileStmt: do Body while (Cond);
type DoWhileStmt struct {
	Base
	Body Node
	Cond Node
}

// ForStmt: for (Init; Cond; Post) Body. Any of Init/Cond/Post may be nil.
type ForStmt struct {
	Base
	Init Node
	Cond Node
	Post Node
	Body Node
}

// ReturnStmt: return [Value];
type ReturnStmt struct {
	Base
	Value Node
}

// BreakStmt / ContinueStmt carry no payload beyond position.
type BreakStmt struct{ Base }
type ContinueStmt struct{ Base }

// Program is the top-level compilation unit: an ordered sequence of
// global declarations, struct definitions and function definitions,
// in source order.
type Program struct {
	Base
	Decls []Node
}
