package ir

// Generator lowers a checked AST (spec §3.4, annotated by
// internal/typecheck) into the linear stack IR of ir.go, one List per
// function plus one for global array initialization (spec §4.4).
// Grounded on original_source/src/irgen.c's per-node-kind lowering and
// on the teacher's internal/bytecode compiler pass for the "one
// exported Generate entry point, private per-kind helpers" shape.

import (
	"fmt"

	"mjvmc/internal/parser"
	"mjvmc/internal/symtab"
	"mjvmc/internal/types"
)

// Func is one function's lowered body.
type Func struct {
	Name       string
	Sym        *symtab.Symbol
	Params     []*parser.Param
	ReturnType *types.Type
	LocalCount int
	Code       *List
}

// Global is a global variable declaration, carried through for the
// emitter's field/clinit pass.
type Global struct {
	Name string
	Sym  *symtab.Symbol
	Decl *parser.DeclNode
}

// Module is the complete lowered compilation unit.
type Module struct {
	Globals   []*Global
	Structs   []*parser.StructDecl
	Functions []*Func
	InitCode  *List // global initializers (array allocations and scalar initial values), run from <clinit>
	HasMain   bool
}

// Generator holds the state threaded across one lowering pass: the
// monotonic label counter, since spec §3.5 requires label names to be
// unique across the whole compilation unit, not per function, and the
// stack of enclosing loops' break/continue labels.
type Generator struct {
	labelCounter int
	loopStack    []loopLabels
}

func New() *Generator { return &Generator{} }

type loopLabels struct {
	breakLabel, continueLabel string
}

func (g *Generator) newLabel(prefix string) string {
	g.labelCounter++
	return fmt.Sprintf("%s%d", prefix, g.labelCounter)
}

func (g *Generator) pushLoop(brk, cont string) {
	g.loopStack = append(g.loopStack, loopLabels{brk, cont})
}

func (g *Generator) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func (g *Generator) currentLoop() loopLabels {
	return g.loopStack[len(g.loopStack)-1]
}

// Generate lowers prog into a Module. hasMain mirrors
// typecheck.Checker.HasMain, threaded through to decide the driver's
// main-trampoline emission (spec §6).
func (g *Generator) Generate(prog *parser.Program, hasMain bool) *Module {
	mod := &Module{HasMain: hasMain, InitCode: &List{}}
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *parser.DeclNode:
			mod.Globals = append(mod.Globals, &Global{Name: n.Name, Sym: n.GetSymbol(), Decl: n})
			g.genDeclBody(mod.InitCode, n)
		case *parser.StructDecl:
			mod.Structs = append(mod.Structs, n)
		case *parser.FuncDecl:
			mod.Functions = append(mod.Functions, g.genFunc(n))
		}
	}
	return mod
}

func (g *Generator) genFunc(fn *parser.FuncDecl) *Func {
	code := &List{}
	if fn.Body != nil {
		for _, s := range fn.Body.Stmts {
			g.genStmt(code, s)
		}
	}
	g.emitFallbackReturn(code, fn.ReturnType)
	return &Func{
		Name:       fn.Name,
		Sym:        fn.GetSymbol(),
		Params:     fn.Params,
		ReturnType: fn.ReturnType,
		LocalCount: fn.LocalCount,
		Code:       code,
	}
}

// emitFallbackReturn always appends a terminating return, regardless
// of whether the last statement already returned: the JVM requires
// every code path to end in a return, and detecting unconditional
// coverage would need full control-flow analysis this checker
// deliberately skips (see SPEC_FULL.md §5, the missing-return open
// question). The extra instruction is dead code when the body already
// returns on every path; Jasmin's target class version carries no
// StackMapTable, so unreachable trailing bytecode verifies fine.
func (g *Generator) emitFallbackReturn(list *List, ret *types.Type) {
	if ret == nil || ret.Kind == types.Void {
		list.Emit(ReturnVoid)
		return
	}
	if ret.Kind == types.Float {
		list.EmitFloat(0)
	} else {
		list.EmitInt(0)
	}
	list.push(&Instr{Kind: Return, Sym: g.typeHint(ret)})
}

func (g *Generator) typeHint(t *types.Type) *symtab.Symbol {
	return &symtab.Symbol{Type: t}
}

// ---- statements ----

func (g *Generator) genStmt(list *List, n parser.Node) {
	switch s := n.(type) {
	case *parser.DeclNode:
		g.genDeclBody(list, s)
	case *parser.BlockStmt:
		for _, st := range s.Stmts {
			g.genStmt(list, st)
		}
	case *parser.IfStmt:
		g.genIf(list, s)
	case *parser.WhileStmt:
		g.genWhile(list, s)
	case *parser.DoWhileStmt:
		g.genDoWhile(list, s)
	case *parser.ForStmt:
		g.genFor(list, s)
	case *parser.ReturnStmt:
		g.genReturn(list, s)
	case *parser.BreakStmt:
		// Outside any loop the statement is dropped (the checker
		// already reports it).
		if len(g.loopStack) > 0 {
			list.EmitJump(g.currentLoop().breakLabel)
		}
	case *parser.ContinueStmt:
		if len(g.loopStack) > 0 {
			list.EmitJump(g.currentLoop().continueLabel)
		}
	default:
		g.genExprStmt(list, n)
	}
}

// genExprStmt lowers an expression used as a statement, discarding its
// value — except a call to a void function, which never pushed one.
func (g *Generator) genExprStmt(list *List, n parser.Node) {
	g.genExpr(list, n)
	if call, ok := n.(*parser.CallExpr); ok {
		if call.GetType() == nil || call.GetType().Kind == types.Void {
			return
		}
	}
	list.Emit(Pop)
}

// genDeclBody lowers a variable declaration: scalars only emit code
// when there is an initializer, but arrays always allocate storage
// (spec §3.1 models an array as owned storage, not a nullable
// reference, so every array declaration needs a newarray before first
// use regardless of whether it has an initializer). Used both for
// local declarations (called from genStmt) and for global
// declarations, whose code runs from <clinit> (called from Generate).
func (g *Generator) genDeclBody(list *List, d *parser.DeclNode) {
	sym := d.GetSymbol()
	if sym == nil {
		return
	}
	if !d.IsArray {
		if d.Init != nil {
			g.genExpr(list, d.Init)
			list.EmitVarStore(sym)
		}
		return
	}
	size := int64(0)
	var elem *types.Type
	if sym.Type != nil {
		size = int64(sym.Type.Size)
		elem = sym.Type.Elem
	}
	list.push(&Instr{Kind: AllocArray, Int: size, Sym: g.typeHint(elem)})
	list.EmitVarStore(sym)
	if sl, ok := d.Init.(*parser.StringLit); ok {
		g.genCharArrayInit(list, sym, sl.Value)
	}
}

// genCharArrayInit lowers a string-literal array initializer character
// by character, terminating with a NUL the way a C string would (spec
// §3.1's string-literal array sizing note).
func (g *Generator) genCharArrayInit(list *List, sym *symtab.Symbol, s string) {
	elemHint := g.typeHint(types.CharType())
	for i := 0; i < len(s); i++ {
		list.EmitVarLoad(sym)
		list.EmitInt(int64(i))
		list.EmitInt(int64(s[i]))
		list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
	}
	list.EmitVarLoad(sym)
	list.EmitInt(int64(len(s)))
	list.EmitInt(0)
	list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
}

func (g *Generator) genIf(list *List, s *parser.IfStmt) {
	elseLabel := g.newLabel("Lelse")
	g.genExpr(list, s.Cond)
	list.EmitJumpIfZero(elseLabel)
	g.genStmt(list, s.Then)
	if s.Else != nil {
		endLabel := g.newLabel("Lend")
		list.EmitJump(endLabel)
		list.EmitLabel(elseLabel)
		g.genStmt(list, s.Else)
		list.EmitLabel(endLabel)
	} else {
		list.EmitLabel(elseLabel)
	}
}

func (g *Generator) genWhile(list *List, s *parser.WhileStmt) {
	start := g.newLabel("Lloop")
	end := g.newLabel("Lend")
	list.EmitLabel(start)
	g.genExpr(list, s.Cond)
	list.EmitJumpIfZero(end)
	g.pushLoop(end, start)
	g.genStmt(list, s.Body)
	g.popLoop()
	list.EmitJump(start)
	list.EmitLabel(end)
}

func (g *Generator) genDoWhile(list *List, s *parser.DoWhileStmt) {
	start := g.newLabel("Lloop")
	condLabel := g.newLabel("Lcond")
	end := g.newLabel("Lend")
	list.EmitLabel(start)
	g.pushLoop(end, condLabel)
	g.genStmt(list, s.Body)
	g.popLoop()
	list.EmitLabel(condLabel)
	g.genExpr(list, s.Cond)
	list.EmitJumpIfZero(end)
	list.EmitJump(start)
	list.EmitLabel(end)
}

func (g *Generator) genFor(list *List, s *parser.ForStmt) {
	if s.Init != nil {
		g.genStmt(list, s.Init)
	}
	start := g.newLabel("Lloop")
	postLabel := g.newLabel("Lpost")
	end := g.newLabel("Lend")
	list.EmitLabel(start)
	if s.Cond != nil {
		g.genExpr(list, s.Cond)
		list.EmitJumpIfZero(end)
	}
	g.pushLoop(end, postLabel)
	g.genStmt(list, s.Body)
	g.popLoop()
	list.EmitLabel(postLabel)
	if s.Post != nil {
		g.genExprStmt(list, s.Post)
	}
	list.EmitJump(start)
	list.EmitLabel(end)
}

func (g *Generator) genReturn(list *List, s *parser.ReturnStmt) {
	if s.Value == nil {
		list.Emit(ReturnVoid)
		return
	}
	g.genExpr(list, s.Value)
	list.push(&Instr{Kind: Return, Sym: g.typeHint(s.Value.GetType())})
}

// ---- expressions ----

func (g *Generator) genExpr(list *List, n parser.Node) {
	switch e := n.(type) {
	case *parser.IntLit:
		list.EmitInt(e.Value)
	case *parser.FloatLit:
		list.EmitFloat(e.Value)
	case *parser.CharLit:
		list.EmitInt(int64(e.Value))
	case *parser.BoolLit:
		if e.Value {
			list.EmitInt(1)
		} else {
			list.EmitInt(0)
		}
	case *parser.StringLit:
		list.EmitString(e.Value)
	case *parser.Ident:
		list.EmitVarLoad(e.GetSymbol())
	case *parser.BinaryExpr:
		g.genBinary(list, e)
	case *parser.LogicalExpr:
		g.genLogical(list, e)
	case *parser.AssignExpr:
		g.genAssign(list, e)
	case *parser.TernaryExpr:
		g.genTernary(list, e)
	case *parser.UnaryExpr:
		g.genUnary(list, e)
	case *parser.CallExpr:
		g.genCall(list, e)
	case *parser.ArrayAccessExpr:
		g.genArrayLoad(list, e)
	case *parser.MemberAccessExpr:
		g.genMemberLoad(list, e)
	}
}

var binOpKind = map[parser.BinOp]Kind{
	parser.OpAdd: Add, parser.OpSub: Sub, parser.OpMul: Mul, parser.OpDiv: Div, parser.OpMod: Mod,
	parser.OpBitAnd: BitAnd, parser.OpBitOr: BitOr, parser.OpBitXor: BitXor,
	parser.OpShl: Shl, parser.OpShr: Shr,
	parser.OpEq: Eq, parser.OpNeq: Neq, parser.OpLt: Lt, parser.OpGt: Gt, parser.OpLe: Le, parser.OpGe: Ge,
}

// operandHint recovers the type the operands were promoted to for
// this operation — the emitter needs this to pick the int-vs-float
// opcode family, not the (always-int) comparison result type (spec
// §4.4's "dummy symbol" resolved per SPEC_FULL.md §5).
func operandHint(a, b parser.Node) *types.Type {
	at, bt := a.GetType(), b.GetType()
	if at == nil {
		return bt
	}
	if bt == nil {
		return at
	}
	if types.Widens(at, bt) {
		return bt
	}
	return at
}

func (g *Generator) genBinary(list *List, e *parser.BinaryExpr) {
	g.genExpr(list, e.Left)
	g.genExpr(list, e.Right)
	list.EmitBinop(binOpKind[e.Op], g.typeHint(operandHint(e.Left, e.Right)))
}

func (g *Generator) genLogical(list *List, e *parser.LogicalExpr) {
	end := g.newLabel("Lend")
	if !e.Or {
		falseLabel := g.newLabel("Lfalse")
		g.genExpr(list, e.Left)
		list.EmitJumpIfZero(falseLabel)
		g.genExpr(list, e.Right)
		list.EmitJumpIfZero(falseLabel)
		list.EmitInt(1)
		list.EmitJump(end)
		list.EmitLabel(falseLabel)
		list.EmitInt(0)
		list.EmitLabel(end)
		return
	}
	checkRight := g.newLabel("Lcheck")
	falseLabel := g.newLabel("Lfalse")
	g.genExpr(list, e.Left)
	list.EmitJumpIfZero(checkRight)
	list.EmitInt(1)
	list.EmitJump(end)
	list.EmitLabel(checkRight)
	g.genExpr(list, e.Right)
	list.EmitJumpIfZero(falseLabel)
	list.EmitInt(1)
	list.EmitJump(end)
	list.EmitLabel(falseLabel)
	list.EmitInt(0)
	list.EmitLabel(end)
}

func memberIndex(st *types.Type, name string) int64 {
	if st == nil {
		return -1
	}
	for i, m := range st.Members {
		if m.Name == name {
			return int64(i)
		}
	}
	return -1
}

var compoundKind = map[parser.AssignOp]Kind{
	parser.AssignAdd: Add, parser.AssignSub: Sub, parser.AssignMul: Mul, parser.AssignDiv: Div,
	parser.AssignMod: Mod, parser.AssignBitAnd: BitAnd, parser.AssignBitOr: BitOr,
	parser.AssignBitXor: BitXor, parser.AssignShl: Shl, parser.AssignShr: Shr,
}

func (g *Generator) genAssign(list *List, e *parser.AssignExpr) {
	switch lhs := e.LHS.(type) {
	case *parser.Ident:
		g.genIdentAssign(list, lhs, e)
	case *parser.ArrayAccessExpr:
		g.genArrayAssign(list, lhs, e)
	case *parser.MemberAccessExpr:
		g.genMemberAssign(list, lhs, e)
	}
}

func (g *Generator) genIdentAssign(list *List, lhs *parser.Ident, e *parser.AssignExpr) {
	sym := lhs.GetSymbol()
	if sym == nil {
		return
	}
	if e.Op == parser.AssignSimple {
		g.genExpr(list, e.RHS)
		list.Emit(Dup)
		list.EmitVarStore(sym)
		return
	}
	list.EmitVarLoad(sym)
	g.genExpr(list, e.RHS)
	list.EmitBinop(compoundKind[e.Op], g.typeHint(sym.Type))
	list.Emit(Dup)
	list.EmitVarStore(sym)
}

// genArrayAssign lowers a[i] (op)= rhs. Simple assignment leaves the
// stored value as the expression's result via dup_x2 so it sits below
// the arrayref/index pair the store consumes (arrayref, index, value
// -> Tastore). Compound forms load the prior element first (dup2
// preserves arrayref/index for the eventual store).
func (g *Generator) genArrayAssign(list *List, lhs *parser.ArrayAccessExpr, e *parser.AssignExpr) {
	elemHint := g.typeHint(lhs.GetType())
	if e.Op == parser.AssignSimple {
		g.genExpr(list, lhs.Array)
		g.genExpr(list, lhs.Index)
		g.genExpr(list, e.RHS)
		list.Emit(DupX2)
		list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
		return
	}
	g.genExpr(list, lhs.Array)
	g.genExpr(list, lhs.Index)
	list.Emit(Dup2)
	list.push(&Instr{Kind: ArrayLoad, Sym: elemHint})
	g.genExpr(list, e.RHS)
	list.EmitBinop(compoundKind[e.Op], elemHint)
	list.Emit(DupX2)
	list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
}

// genMemberAssign mirrors genArrayAssign, with the struct's member
// index in place of a computed array index (struct values are lowered
// to a flat slot array indexed by member position).
func (g *Generator) genMemberAssign(list *List, lhs *parser.MemberAccessExpr, e *parser.AssignExpr) {
	idx := memberIndex(lhs.Object.GetType(), lhs.Member)
	elemHint := g.typeHint(lhs.GetType())
	if e.Op == parser.AssignSimple {
		g.genExpr(list, lhs.Object)
		list.EmitInt(idx)
		g.genExpr(list, e.RHS)
		list.Emit(DupX2)
		list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
		return
	}
	g.genExpr(list, lhs.Object)
	list.EmitInt(idx)
	list.Emit(Dup2)
	list.push(&Instr{Kind: ArrayLoad, Sym: elemHint})
	g.genExpr(list, e.RHS)
	list.EmitBinop(compoundKind[e.Op], elemHint)
	list.Emit(DupX2)
	list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
}

func (g *Generator) genTernary(list *List, e *parser.TernaryExpr) {
	elseLabel := g.newLabel("Lelse")
	end := g.newLabel("Lend")
	g.genExpr(list, e.Cond)
	list.EmitJumpIfZero(elseLabel)
	g.genExpr(list, e.Then)
	list.EmitJump(end)
	list.EmitLabel(elseLabel)
	g.genExpr(list, e.Else)
	list.EmitLabel(end)
}

func (g *Generator) genUnary(list *List, e *parser.UnaryExpr) {
	switch e.Op {
	case parser.UnaryCast:
		g.genExpr(list, e.Operand)
		g.genCast(list, e.Operand.GetType(), e.CastType)
	case parser.UnaryPlus:
		g.genExpr(list, e.Operand)
	case parser.UnaryNeg:
		g.genExpr(list, e.Operand)
		list.EmitBinop(Neg, g.typeHint(e.Operand.GetType()))
	case parser.UnaryNot:
		g.genExpr(list, e.Operand)
		truthy := g.newLabel("Ltrue")
		end := g.newLabel("Lend")
		list.EmitJumpIfZero(truthy)
		list.EmitInt(0)
		list.EmitJump(end)
		list.EmitLabel(truthy)
		list.EmitInt(1)
		list.EmitLabel(end)
	case parser.UnaryBitNot:
		g.genExpr(list, e.Operand)
		list.Emit(BitNot)
	case parser.UnaryPreInc, parser.UnaryPreDec, parser.UnaryPostInc, parser.UnaryPostDec:
		g.genIncDec(list, e)
	}
}

func (g *Generator) genCast(list *List, from, to *types.Type) {
	if from == nil || to == nil {
		return
	}
	switch {
	case from.Kind == types.Float && to.Kind != types.Float:
		list.Emit(CastF2I)
	case from.Kind != types.Float && to.Kind == types.Float:
		list.Emit(CastI2F)
	}
}

func (g *Generator) emitOne(list *List, t *types.Type) {
	if t != nil && t.Kind == types.Float {
		list.EmitFloat(1)
	} else {
		list.EmitInt(1)
	}
}

func incDecKind(op parser.UnaryOp) Kind {
	if op == parser.UnaryPreInc || op == parser.UnaryPostInc {
		return Add
	}
	return Sub
}

func isPost(op parser.UnaryOp) bool {
	return op == parser.UnaryPostInc || op == parser.UnaryPostDec
}

func (g *Generator) genIncDec(list *List, e *parser.UnaryExpr) {
	k := incDecKind(e.Op)
	switch lhs := e.Operand.(type) {
	case *parser.Ident:
		sym := lhs.GetSymbol()
		if sym == nil {
			return
		}
		hint := g.typeHint(sym.Type)
		if isPost(e.Op) {
			list.EmitVarLoad(sym)
			list.Emit(Dup)
			g.emitOne(list, sym.Type)
			list.EmitBinop(k, hint)
			list.EmitVarStore(sym)
			return
		}
		list.EmitVarLoad(sym)
		g.emitOne(list, sym.Type)
		list.EmitBinop(k, hint)
		list.Emit(Dup)
		list.EmitVarStore(sym)
	case *parser.ArrayAccessExpr:
		elemHint := g.typeHint(lhs.GetType())
		g.genExpr(list, lhs.Array)
		g.genExpr(list, lhs.Index)
		list.Emit(Dup2)
		list.push(&Instr{Kind: ArrayLoad, Sym: elemHint})
		if isPost(e.Op) {
			// stack: ref, idx, old
			list.Emit(DupX2) // old, ref, idx, old  (result value parked below ref/idx)
			g.emitOne(list, lhs.GetType())
			list.EmitBinop(k, elemHint)
			list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
			return
		}
		g.emitOne(list, lhs.GetType())
		list.EmitBinop(k, elemHint)
		list.Emit(DupX2)
		list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
	case *parser.MemberAccessExpr:
		idx := memberIndex(lhs.Object.GetType(), lhs.Member)
		elemHint := g.typeHint(lhs.GetType())
		g.genExpr(list, lhs.Object)
		list.EmitInt(idx)
		list.Emit(Dup2)
		list.push(&Instr{Kind: ArrayLoad, Sym: elemHint})
		if isPost(e.Op) {
			list.Emit(DupX2)
			g.emitOne(list, lhs.GetType())
			list.EmitBinop(k, elemHint)
			list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
			return
		}
		g.emitOne(list, lhs.GetType())
		list.EmitBinop(k, elemHint)
		list.Emit(DupX2)
		list.push(&Instr{Kind: ArrayStore, Sym: elemHint})
	}
}

func (g *Generator) genCall(list *List, e *parser.CallExpr) {
	sym := e.GetSymbol()
	if sym == nil {
		return
	}
	for _, a := range e.Args {
		g.genExpr(list, a)
	}
	list.EmitCall(sym, len(e.Args))
}

func (g *Generator) genArrayLoad(list *List, e *parser.ArrayAccessExpr) {
	g.genExpr(list, e.Array)
	g.genExpr(list, e.Index)
	list.push(&Instr{Kind: ArrayLoad, Sym: g.typeHint(e.GetType())})
}

func (g *Generator) genMemberLoad(list *List, e *parser.MemberAccessExpr) {
	g.genExpr(list, e.Object)
	idx := memberIndex(e.Object.GetType(), e.Member)
	list.EmitInt(idx)
	list.push(&Instr{Kind: ArrayLoad, Sym: g.typeHint(e.GetType())})
}
