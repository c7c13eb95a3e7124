// Package ir is the linear stack-machine instruction list the type
// checker's annotated AST lowers to, one list per function (spec
// §3.5). Grounded on original_source/src/ir.c/ir.h's IRInstruction/
// IRList shape; the teacher's internal/bytecode/chunk.go supplied the
// idea of a parallel best-effort source-position slot per instruction,
// adapted here to a linked list (this project's IR uses named labels
// rather than patched byte offsets, since jumps must be able to refer
// to a label that has not been emitted yet).
package ir

import "mjvmc/internal/symtab"

// Kind is the IR opcode tag (spec §3.5).
type Kind int

const (
	Nop Kind = iota
	Label
	Jump
	JumpIfZero
	LoadGlobal
	StoreGlobal
	LoadLocal
	StoreLocal
	PushInt
	PushFloat
	PushString
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	BitAnd
	BitOr
	BitXor
	BitNot
	Shl
	Shr
	Eq
	Neq
	Lt
	Gt
	Le
	Ge
	Call
	Return
	ReturnVoid
	Pop
	Dup
	Dup2
	DupX2
	CastI2F
	CastF2I
	CastI2D
	CastD2I
	CastF2D
	CastD2F
	ArrayLoad
	ArrayStore
	AllocArray
)

// Instr is one IR instruction. Only the payload fields relevant to
// Kind are meaningful (spec §3.5: "optional string payload ...
// optional integer payload ... optional float payload ... optional
// symbol reference").
type Instr struct {
	Kind Kind
	Str  string // label name / variable name / function name / string literal
	Int  int64  // literal value / local slot index / arg count
	Flt  float64
	Sym  *symtab.Symbol // recovers the element/operand type for the emitter

	// Line is a slot for a source line for diagnostics; the generator
	// leaves it zero.
	Line int

	next *Instr
}

// List is a singly-linked instruction sequence, built strictly by
// appending (spec §3.5: "a singly-linked sequence").
type List struct {
	Head *Instr
	Tail *Instr
}

func (l *List) push(in *Instr) *Instr {
	if l.Head == nil {
		l.Head = in
		l.Tail = in
	} else {
		l.Tail.next = in
		l.Tail = in
	}
	return in
}

// Next exposes the linked traversal for readers (the emitter, tests).
func (in *Instr) Next() *Instr {
	if in == nil {
		return nil
	}
	return in.next
}

// Emit appends a bare instruction of the given kind.
func (l *List) Emit(k Kind) *Instr { return l.push(&Instr{Kind: k}) }

// EmitLabel appends a Label instruction naming a jump target.
func (l *List) EmitLabel(name string) *Instr { return l.push(&Instr{Kind: Label, Str: name}) }

// EmitJump appends an unconditional Jump to name.
func (l *List) EmitJump(name string) *Instr { return l.push(&Instr{Kind: Jump, Str: name}) }

// EmitJumpIfZero appends a JumpIfZero to name.
func (l *List) EmitJumpIfZero(name string) *Instr {
	return l.push(&Instr{Kind: JumpIfZero, Str: name})
}

// EmitInt appends a PushInt.
func (l *List) EmitInt(v int64) *Instr { return l.push(&Instr{Kind: PushInt, Int: v}) }

// EmitFloat appends a PushFloat.
func (l *List) EmitFloat(v float64) *Instr { return l.push(&Instr{Kind: PushFloat, Flt: v}) }

// EmitString appends a PushString.
func (l *List) EmitString(s string) *Instr { return l.push(&Instr{Kind: PushString, Str: s}) }

// EmitVarLoad appends a global/local load (EmitVarStore, the matching
// store), selecting the kind from sym.IsLocal (spec §4.4: "selects LoadLocal i / LoadGlobal name
// depending on the symbol's is_local").
func (l *List) EmitVarLoad(sym *symtab.Symbol) *Instr {
	if sym.IsLocal {
		return l.push(&Instr{Kind: LoadLocal, Int: int64(sym.LocalIndex), Str: sym.Name, Sym: sym})
	}
	return l.push(&Instr{Kind: LoadGlobal, Str: sym.Name, Sym: sym})
}

func (l *List) EmitVarStore(sym *symtab.Symbol) *Instr {
	if sym.IsLocal {
		return l.push(&Instr{Kind: StoreLocal, Int: int64(sym.LocalIndex), Str: sym.Name, Sym: sym})
	}
	return l.push(&Instr{Kind: StoreGlobal, Str: sym.Name, Sym: sym})
}

// EmitBinop appends a typed arithmetic/bitwise/compare op, carrying
// a type-hint symbol (the type the operands were promoted to) that the
// emitter consults to choose int-vs-float opcodes (spec §4.4's "dummy symbol" note; resolved as
// a real mechanism, not a placeholder — see SPEC_FULL.md §5).
func (l *List) EmitBinop(k Kind, typeHint *symtab.Symbol) *Instr {
	return l.push(&Instr{Kind: k, Sym: typeHint})
}

// EmitCall appends a Call carrying the callee symbol and argument
// count.
func (l *List) EmitCall(callee *symtab.Symbol, argc int) *Instr {
	return l.push(&Instr{Kind: Call, Sym: callee, Str: callee.Name, Int: int64(argc)})
}

// EmitArrayOp appends ArrayLoad/ArrayStore/AllocArray carrying a
// symbol whose Type the emitter reads as the element type to pick the
// element opcode.
func (l *List) EmitArrayOp(k Kind, arraySym *symtab.Symbol) *Instr {
	return l.push(&Instr{Kind: k, Sym: arraySym})
}
