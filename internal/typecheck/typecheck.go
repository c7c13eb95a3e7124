// Package typecheck is the single recursive pass over the AST that
// annotates every expression with a type, binds every identifier to a
// symbol, assigns local slots, and enforces the language's semantic
// rules (spec §4.3). Grounded on original_source/src/typecheck.c's
// node-kind switch, restructured as a Go type-switch over parser.Node
// instead of a tagged-union dispatch, and on the teacher's
// internal/checker-style "one exported Check entry point, errors
// accumulate instead of aborting" pattern.
package typecheck

import (
	"mjvmc/internal/errors"
	"mjvmc/internal/parser"
	"mjvmc/internal/stdlib"
	"mjvmc/internal/symtab"
	"mjvmc/internal/types"
)

// Checker holds the state threaded through one compilation unit's
// check pass.
type Checker struct {
	Table     *symtab.Table
	Errs      errors.List
	file      string
	loopDepth int
	funcRet   *types.Type // nil while not inside a function body
	hasMain   bool
}

// NewChecker builds a Checker with the standard library preinstalled
// (spec §4.6).
func NewChecker(file string) *Checker {
	t := symtab.New()
	stdlib.Install(t)
	return &Checker{Table: t, file: file}
}

// HasMain reports whether a zero-argument int or void function named
// main was declared (spec §4.6 / §6's main trampoline condition).
func (c *Checker) HasMain() bool { return c.hasMain }

func (c *Checker) errorf(line int, format string, args ...interface{}) {
	c.Errs.Add(errors.NewTypeError(c.file, line, format, args...))
}

// Check runs the pass over prog and returns the accumulated
// diagnostics (empty, non-nil-having List if clean).
func (c *Checker) Check(prog *parser.Program) *errors.List {
	c.registerStructs(prog)
	c.registerFuncSignatures(prog)

	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *parser.DeclNode:
			c.checkGlobalDecl(n)
		case *parser.StructDecl:
			c.checkStructMembers(n)
		case *parser.FuncDecl:
			// signatures already registered; fall through to body below
		}
	}
	for _, d := range prog.Decls {
		if fn, ok := d.(*parser.FuncDecl); ok {
			c.checkFuncDecl(fn)
		}
	}
	return &c.Errs
}

// ---- pre-pass: structs and function signatures ----

// registerStructs makes every struct name resolvable before any
// member or function signature that references it is checked,
// mirroring the original's two-pass symtab population for mutually
// referencing declarations (spec §4.2).
func (c *Checker) registerStructs(prog *parser.Program) {
	for _, d := range prog.Decls {
		sd, ok := d.(*parser.StructDecl)
		if !ok {
			continue
		}
		st := types.NewStruct(sd.Name, nil)
		if !c.Table.AddStruct(sd.Name, st) {
			c.errorf(sd.Line, "struct %q redeclared", sd.Name)
			continue
		}
		sd.SetType(st)
	}
}

func (c *Checker) checkStructMembers(sd *parser.StructDecl) {
	st := sd.GetType()
	if st == nil {
		return
	}
	members := make([]types.Member, 0, len(sd.Members))
	for _, m := range sd.Members {
		mt := c.resolveDeclType(m.DeclType, m.Line)
		m.SetType(mt)
		members = append(members, types.Member{Name: m.Name, Type: mt})
	}
	st.Members = members
}

func (c *Checker) registerFuncSignatures(prog *parser.Program) {
	for _, d := range prog.Decls {
		fn, ok := d.(*parser.FuncDecl)
		if !ok {
			continue
		}
		params := make([]*types.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = c.resolveDeclType(p.DeclType, p.Line)
		}
		ft := types.NewFunction(c.resolveDeclType(fn.ReturnType, fn.Line), params)
		sym, ok := c.Table.AddSymbol(fn.Name, ft)
		if !ok {
			c.errorf(fn.Line, "function %q redeclared", fn.Name)
			continue
		}
		fn.SetSymbol(sym)
		fn.SetType(ft)
		if fn.Name == "main" && len(fn.Params) == 0 &&
			(ft.Ret.Kind == types.Int || ft.Ret.Kind == types.Void) {
			c.hasMain = true
		}
	}
}

// resolveDeclType resolves a struct-typed declaration's named type
// against the struct namespace; everything else passes through
// unchanged. Array element resolution is handled by the caller since
// only DeclNode carries size information.
func (c *Checker) resolveDeclType(t *types.Type, line int) *types.Type {
	if t == nil {
		return types.VoidType()
	}
	if t.Kind == types.Struct && len(t.Members) == 0 {
		if def := c.Table.LookupStruct(t.Name); def != nil {
			return def
		}
		c.errorf(line, "undefined struct %q", t.Name)
	}
	return t
}

// ---- global declarations ----

func (c *Checker) checkGlobalDecl(d *parser.DeclNode) {
	c.checkDeclCommon(d)
}

func (c *Checker) checkDeclCommon(d *parser.DeclNode) {
	declType := c.resolveDeclType(d.DeclType, d.Line)
	if !d.IsArray && declType != nil && declType.Kind == types.Void {
		c.errorf(d.Line, "variable %q cannot have type void", d.Name)
	}

	var initType *types.Type
	strLitLen := -1
	if d.Init != nil {
		initType = c.checkExpr(d.Init)
		if sl, ok := d.Init.(*parser.StringLit); ok {
			strLitLen = len(sl.Value)
		}
	}

	finalType := declType
	if d.IsArray {
		elem := declType
		arr := types.NewArray(elem, 0)
		types.ResolveArraySize(arr, strLitLen, d.HasSize, d.ArraySize)
		finalType = arr
	} else if d.DeclType != nil {
		finalType = types.WithConst(declType, d.DeclType.IsConst)
	}

	if d.Init != nil && initType != nil && finalType != nil {
		if !d.IsArray && !types.Widens(initType, finalType) {
			c.errorf(d.Line, "cannot initialize %s with %s", types.Describe(finalType), types.Describe(initType))
		}
	}
	if finalType != nil && finalType.IsConst && d.Init == nil {
		c.errorf(d.Line, "const %q requires an initializer", d.Name)
	}

	sym, ok := c.Table.AddSymbol(d.Name, finalType)
	if !ok {
		c.errorf(d.Line, "%q redeclared in this scope", d.Name)
		return
	}
	d.SetSymbol(sym)
	d.SetType(finalType)
}

// ---- functions ----

func (c *Checker) checkFuncDecl(fn *parser.FuncDecl) {
	c.Table.EnterScope()
	c.funcRet = fn.ReturnType
	if c.funcRet == nil {
		c.funcRet = types.VoidType()
	}

	for i, p := range fn.Params {
		pt := c.resolveDeclType(p.DeclType, p.Line)
		if pt != nil && pt.Kind == types.Void {
			c.errorf(p.Line, "parameter %q cannot have type void", p.Name)
		}
		sym, ok := c.Table.AddSymbolAtIndex(p.Name, pt, i)
		if !ok {
			c.errorf(p.Line, "parameter %q redeclared", p.Name)
			continue
		}
		p.SetSymbol(sym)
		p.SetType(pt)
	}

	if fn.Body != nil {
		c.checkBlockNoScope(fn.Body)
	}
	fn.LocalCount = c.Table.LocalCount()

	c.funcRet = nil
	c.Table.ExitScope()
}

// checkBlockNoScope checks a block's statements without pushing a new
// scope — used for a function body, which shares the parameter scope
// (spec §4.2: "a function's top-level block does not nest a further
// scope beneath its parameter scope").
func (c *Checker) checkBlockNoScope(b *parser.BlockStmt) {
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
}

func (c *Checker) checkBlock(b *parser.BlockStmt) {
	c.Table.EnterScope()
	c.checkBlockNoScope(b)
	c.Table.ExitScope()
}

// ---- statements ----

func (c *Checker) checkStmt(n parser.Node) {
	switch s := n.(type) {
	case *parser.DeclNode:
		c.checkDeclCommon(s)
	case *parser.StructDecl:
		// A struct definition inside a function body is parsed but
		// not checked or registered here.
	case *parser.BlockStmt:
		c.checkBlock(s)
	case *parser.IfStmt:
		c.checkIf(s)
	case *parser.WhileStmt:
		c.checkWhile(s)
	case *parser.DoWhileStmt:
		c.checkDoWhile(s)
	case *parser.ForStmt:
		c.checkFor(s)
	case *parser.ReturnStmt:
		c.checkReturn(s)
	case *parser.BreakStmt:
		if c.loopDepth == 0 {
			_, line := s.Pos()
			c.errorf(line, "break outside of loop")
		}
	case *parser.ContinueStmt:
		if c.loopDepth == 0 {
			_, line := s.Pos()
			c.errorf(line, "continue outside of loop")
		}
	default:
		// expression statement
		c.checkExpr(n)
	}
}

func (c *Checker) checkIf(s *parser.IfStmt) {
	ct := c.checkExpr(s.Cond)
	c.requireScalar(ct, s.Line, "if condition")
	c.checkStmt(s.Then)
	if s.Else != nil {
		c.checkStmt(s.Else)
	}
}

func (c *Checker) checkWhile(s *parser.WhileStmt) {
	ct := c.checkExpr(s.Cond)
	c.requireScalar(ct, s.Line, "while condition")
	c.loopDepth++
	c.checkStmt(s.Body)
	c.loopDepth--
}

func (c *Checker) checkDoWhile(s *parser.DoWhileStmt) {
	c.loopDepth++
	c.checkStmt(s.Body)
	c.loopDepth--
	ct := c.checkExpr(s.Cond)
	c.requireScalar(ct, s.Line, "do-while condition")
}

func (c *Checker) checkFor(s *parser.ForStmt) {
	c.Table.EnterScope()
	if s.Init != nil {
		c.checkStmt(s.Init)
	}
	if s.Cond != nil {
		ct := c.checkExpr(s.Cond)
		c.requireScalar(ct, s.Line, "for condition")
	}
	if s.Post != nil {
		c.checkExpr(s.Post)
	}
	c.loopDepth++
	c.checkStmt(s.Body)
	c.loopDepth--
	c.Table.ExitScope()
}

func (c *Checker) checkReturn(s *parser.ReturnStmt) {
	ret := c.funcRet
	if ret == nil {
		ret = types.VoidType()
	}
	if s.Value == nil {
		if ret.Kind != types.Void {
			c.errorf(s.Line, "missing return value in function returning %s", types.Describe(ret))
		}
		return
	}
	if ret.Kind == types.Void {
		c.errorf(s.Line, "void function returns a value")
		return
	}
	vt := c.checkExpr(s.Value)
	if vt != nil && !types.Widens(vt, ret) {
		c.errorf(s.Line, "cannot return %s from a function returning %s", types.Describe(vt), types.Describe(ret))
	}
}

func (c *Checker) requireScalar(t *types.Type, line int, context string) {
	if t != nil && !types.IsScalar(t) {
		c.errorf(line, "%s must be a scalar expression, got %s", context, types.Describe(t))
	}
}

// ---- expressions ----

func (c *Checker) checkExpr(n parser.Node) *types.Type {
	if n == nil {
		return nil
	}
	var t *types.Type
	switch e := n.(type) {
	case *parser.IntLit:
		t = types.IntType()
	case *parser.FloatLit:
		t = types.FloatType()
	case *parser.CharLit:
		t = types.CharType()
	case *parser.BoolLit:
		t = types.IntType()
	case *parser.StringLit:
		t = types.NewCharArray(len(e.Value) + 1)
	case *parser.Ident:
		t = c.checkIdent(e)
	case *parser.BinaryExpr:
		t = c.checkBinary(e)
	case *parser.LogicalExpr:
		t = c.checkLogical(e)
	case *parser.AssignExpr:
		t = c.checkAssign(e)
	case *parser.TernaryExpr:
		t = c.checkTernary(e)
	case *parser.UnaryExpr:
		t = c.checkUnary(e)
	case *parser.CallExpr:
		t = c.checkCall(e)
	case *parser.ArrayAccessExpr:
		t = c.checkArrayAccess(e)
	case *parser.MemberAccessExpr:
		t = c.checkMemberAccess(e)
	default:
		return nil
	}
	n.SetType(t)
	return t
}

func (c *Checker) checkIdent(e *parser.Ident) *types.Type {
	sym := c.Table.Lookup(e.Name)
	if sym == nil {
		c.errorf(e.Line, "undefined identifier %q", e.Name)
		return nil
	}
	e.SetSymbol(sym)
	return sym.Type
}

func widerOf(a, b *types.Type) *types.Type {
	if types.Widens(a, b) {
		return b
	}
	return a
}

func (c *Checker) checkBinary(e *parser.BinaryExpr) *types.Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	if lt == nil || rt == nil {
		return nil
	}
	switch e.Op {
	case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv:
		if !types.IsNumeric(lt) || !types.IsNumeric(rt) {
			c.errorf(e.Line, "arithmetic operator requires numeric operands, got %s and %s", types.Describe(lt), types.Describe(rt))
			return nil
		}
		return widerOf(lt, rt)
	case parser.OpMod, parser.OpBitAnd, parser.OpBitOr, parser.OpBitXor, parser.OpShl, parser.OpShr:
		if !types.IsIntegral(lt) || !types.IsIntegral(rt) {
			c.errorf(e.Line, "operator requires integral operands, got %s and %s", types.Describe(lt), types.Describe(rt))
			return nil
		}
		return types.IntType()
	case parser.OpEq, parser.OpNeq, parser.OpLt, parser.OpGt, parser.OpLe, parser.OpGe:
		if !types.IsScalar(lt) || !types.IsScalar(rt) {
			c.errorf(e.Line, "comparison requires scalar operands, got %s and %s", types.Describe(lt), types.Describe(rt))
			return nil
		}
		return types.IntType()
	}
	return nil
}

func (c *Checker) checkLogical(e *parser.LogicalExpr) *types.Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	c.requireScalar(lt, e.Line, "logical operand")
	c.requireScalar(rt, e.Line, "logical operand")
	return types.IntType()
}

// isLvalue reports whether n syntactically denotes an assignable
// location (spec §4.3's lvalue set).
func isLvalue(n parser.Node) bool {
	switch n.(type) {
	case *parser.Ident, *parser.ArrayAccessExpr, *parser.MemberAccessExpr:
		return true
	default:
		return false
	}
}

func (c *Checker) checkAssign(e *parser.AssignExpr) *types.Type {
	if !isLvalue(e.LHS) {
		c.errorf(e.Line, "left side of assignment is not assignable")
	}
	lt := c.checkExpr(e.LHS)
	rt := c.checkExpr(e.RHS)
	if lt == nil {
		return nil
	}
	if lt.IsConst {
		c.errorf(e.Line, "cannot assign to const value")
	}

	if e.Op == parser.AssignSimple {
		if rt != nil && !types.Widens(rt, lt) {
			c.errorf(e.Line, "cannot assign %s to %s", types.Describe(rt), types.Describe(lt))
		}
		return lt
	}

	if lt.Kind == types.Array && e.Op.IsArithmeticCompound() {
		if rt != nil && !types.IsIntegral(rt) {
			c.errorf(e.Line, "array offset adjustment requires an integral operand")
		}
		return lt
	}
	if e.Op.RequiresIntegral() {
		if !types.IsIntegral(lt) || (rt != nil && !types.IsIntegral(rt)) {
			c.errorf(e.Line, "compound assignment requires integral operands")
		}
		return lt
	}
	// +=, -=, *=, /= on a scalar lvalue
	if !types.IsNumeric(lt) || (rt != nil && !types.IsNumeric(rt)) {
		c.errorf(e.Line, "compound assignment requires numeric operands")
	}
	return lt
}

func (c *Checker) checkTernary(e *parser.TernaryExpr) *types.Type {
	ct := c.checkExpr(e.Cond)
	c.requireScalar(ct, e.Line, "ternary condition")
	tt := c.checkExpr(e.Then)
	et := c.checkExpr(e.Else)
	if tt == nil || et == nil {
		return nil
	}
	if types.Equal(tt, et) {
		return tt
	}
	if types.Widens(tt, et) {
		return et
	}
	if types.Widens(et, tt) {
		return tt
	}
	c.errorf(e.Line, "ternary branches have incompatible types %s and %s", types.Describe(tt), types.Describe(et))
	return tt
}

func (c *Checker) checkUnary(e *parser.UnaryExpr) *types.Type {
	switch e.Op {
	case parser.UnaryAddr, parser.UnaryDeref:
		c.errorf(e.Line, "pointer operators are not supported")
		c.checkExpr(e.Operand)
		return nil
	case parser.UnaryCast:
		c.checkExpr(e.Operand)
		return e.CastType
	}

	ot := c.checkExpr(e.Operand)
	switch e.Op {
	case parser.UnaryPlus, parser.UnaryNeg:
		if ot != nil && !types.IsNumeric(ot) {
			c.errorf(e.Line, "unary %s requires a numeric operand", unaryName(e.Op))
		}
		return ot
	case parser.UnaryPreInc, parser.UnaryPostInc, parser.UnaryPreDec, parser.UnaryPostDec:
		if !isLvalue(e.Operand) {
			c.errorf(e.Line, "increment/decrement requires an assignable operand")
		}
		if ot != nil && !types.IsNumeric(ot) {
			c.errorf(e.Line, "increment/decrement requires a numeric operand")
		}
		return ot
	case parser.UnaryNot:
		c.requireScalar(ot, e.Line, "logical-not operand")
		return types.IntType()
	case parser.UnaryBitNot:
		if ot != nil && !types.IsIntegral(ot) {
			c.errorf(e.Line, "bitwise-not requires an integral operand")
		}
		return types.IntType()
	}
	return ot
}

func unaryName(op parser.UnaryOp) string {
	if op == parser.UnaryNeg {
		return "-"
	}
	return "+"
}

func (c *Checker) checkCall(e *parser.CallExpr) *types.Type {
	sym := c.Table.Lookup(e.Callee)
	if sym == nil || sym.Type == nil || sym.Type.Kind != types.Function {
		c.errorf(e.Line, "call to undefined function %q", e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		return nil
	}
	e.SetSymbol(sym)
	ft := sym.Type
	if len(e.Args) != len(ft.Params) {
		c.errorf(e.Line, "function %q expects %d argument(s), got %d", e.Callee, len(ft.Params), len(e.Args))
	}
	for i, a := range e.Args {
		at := c.checkExpr(a)
		if i >= len(ft.Params) || at == nil {
			continue
		}
		if !types.Widens(at, ft.Params[i]) {
			c.errorf(e.Line, "argument %d to %q: cannot use %s as %s", i+1, e.Callee, types.Describe(at), types.Describe(ft.Params[i]))
		}
	}
	return ft.Ret
}

func (c *Checker) checkArrayAccess(e *parser.ArrayAccessExpr) *types.Type {
	at := c.checkExpr(e.Array)
	it := c.checkExpr(e.Index)
	if at == nil {
		return nil
	}
	if at.Kind != types.Array {
		c.errorf(e.Line, "indexing a non-array value of type %s", types.Describe(at))
		return nil
	}
	if it != nil && !types.IsIntegral(it) {
		c.errorf(e.Line, "array index must be integral, got %s", types.Describe(it))
	}
	return at.Elem
}

func (c *Checker) checkMemberAccess(e *parser.MemberAccessExpr) *types.Type {
	ot := c.checkExpr(e.Object)
	if ot == nil {
		return nil
	}
	if ot.Kind != types.Struct {
		c.errorf(e.Line, "member access on a non-struct value of type %s", types.Describe(ot))
		return nil
	}
	for _, m := range ot.Members {
		if m.Name == e.Member {
			return m.Type
		}
	}
	c.errorf(e.Line, "struct %q has no member %q", ot.Name, e.Member)
	return nil
}

// IsStdlibCall reports whether a CallExpr's callee name is one of the
// preinstalled lib440 entry points (spec §4.6). It checks the name
// only, not the resolved symbol; the IR generator and emitter do not
// call it.
func IsStdlibCall(e *parser.CallExpr) bool {
	return stdlib.IsStdlib(e.Callee)
}
