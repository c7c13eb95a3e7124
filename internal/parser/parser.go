// internal/parser/parser.go
//
// Recursive-descent parser for the C-subset source language. Grammar
// correctness is explicitly out of scope for this spec (§1: "we
// assume they deliver a valid AST matching §3"); this parser exists so
// the rest of the pipeline has something concrete to run against, and
// follows the teacher's own parser shape (a Parser struct walking a
// flat token slice, one method per grammar production, panic/recover
// wrapped at the top level the way internal/parser/parser_test.go's
// helper expects).
package parser

import (
	"fmt"

	"mjvmc/internal/lexer"
	"mjvmc/internal/types"
)

type Parser struct {
	tokens  []lexer.Token
	current int
	file    string
	Errors  []error
}

func NewParser(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// Parse consumes the whole token stream and returns the top-level
// Program node. Parsing stops at the first error: it is recorded in
// p.Errors and the declarations parsed before it are returned; there
// is no resynchronization.
func (p *Parser) Parse() (prog *Program) {
	defer func() {
		if r := recover(); r != nil {
			p.Errors = append(p.Errors, fmt.Errorf("parser: %v", r))
		}
	}()

	prog = &Program{Base: Base{File: p.file, Line: 1}}
	for !p.isAtEnd() {
		decl := p.parseTopLevel()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog
}

// ---- token cursor helpers ----

func (p *Parser) peek() lexer.Token  { return p.tokens[p.current] }
func (p *Parser) previous() lexer.Token { return p.tokens[p.current-1] }
func (p *Parser) isAtEnd() bool      { return p.peek().Type == lexer.TokenEOF }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	panic(fmt.Sprintf("line %d: expected %s, got %s", p.peek().Line, msg, p.peek().Type))
}

func (p *Parser) line() int { return p.peek().Line }

func (p *Parser) base() Base { return Base{File: p.file, Line: p.line()} }

// ---- types ----

func isTypeKeyword(t lexer.TokenType) bool {
	switch t {
	case lexer.TokenInt, lexer.TokenChar, lexer.TokenFloat, lexer.TokenVoid, lexer.TokenStruct:
		return true
	default:
		return false
	}
}

// parseBaseType consumes a leading `const` and one of int/char/
// float/void/struct NAME, returning the scalar (non-array) type.
func (p *Parser) parseBaseType() *types.Type {
	isConst := p.match(lexer.TokenConst)
	var t *types.Type
	switch {
	case p.match(lexer.TokenInt):
		t = types.IntType()
	case p.match(lexer.TokenChar):
		t = types.CharType()
	case p.match(lexer.TokenFloat):
		t = types.FloatType()
	case p.match(lexer.TokenVoid):
		t = types.VoidType()
	case p.match(lexer.TokenStruct):
		name := p.expect(lexer.TokenIdent, "struct name").Lexeme
		// Member list is resolved later by the type checker, which
		// looks the struct up by name in scope (spec §4.3).
		t = types.NewStruct(name, nil)
	default:
		panic(fmt.Sprintf("line %d: expected a type, got %s", p.peek().Line, p.peek().Type))
	}
	if isConst {
		t = types.WithConst(t, true)
	}
	return t
}

// ---- top level ----

func (p *Parser) parseTopLevel() Node {
	if p.check(lexer.TokenStruct) && p.checkAhead(1, lexer.TokenIdent) && p.checkAhead(2, lexer.TokenLBrace) {
		return p.parseStructDecl()
	}

	base := p.base()
	declType := p.parseBaseType()
	name := p.expect(lexer.TokenIdent, "identifier").Lexeme

	if p.check(lexer.TokenLParen) {
		return p.parseFunctionRest(base, declType, name)
	}
	return p.parseDeclRest(base, declType, name, true)
}

func (p *Parser) checkAhead(offset int, t lexer.TokenType) bool {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return false
	}
	return p.tokens[idx].Type == t
}

func (p *Parser) parseStructDecl() Node {
	base := p.base()
	p.expect(lexer.TokenStruct, "struct")
	name := p.expect(lexer.TokenIdent, "struct name").Lexeme
	p.expect(lexer.TokenLBrace, "{")
	var members []*Param
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		mbase := p.base()
		mt := p.parseBaseType()
		mname := p.expect(lexer.TokenIdent, "member name").Lexeme
		if p.match(lexer.TokenLBracket) {
			size := 0
			hasSize := false
			if !p.check(lexer.TokenRBracket) {
				size = int(p.expect(lexer.TokenIntLit, "array size").IntVal)
				hasSize = true
			}
			p.expect(lexer.TokenRBracket, "]")
			mt = types.NewArray(mt, 0)
			if hasSize {
				mt.Size = size
			}
		}
		p.expect(lexer.TokenSemi, ";")
		members = append(members, &Param{Base: mbase, Name: mname, DeclType: mt})
	}
	p.expect(lexer.TokenRBrace, "}")
	p.match(lexer.TokenSemi)
	return &StructDecl{Base: base, Name: name, Members: members}
}

func (p *Parser) parseFunctionRest(base Base, retType *types.Type, name string) Node {
	p.expect(lexer.TokenLParen, "(")
	var params []*Param
	if !p.check(lexer.TokenRParen) {
		for {
			pbase := p.base()
			pt := p.parseBaseType()
			pname := p.expect(lexer.TokenIdent, "parameter name").Lexeme
			if p.match(lexer.TokenLBracket) {
				p.expect(lexer.TokenRBracket, "]")
				pt = types.NewArray(pt, 0)
			}
			params = append(params, &Param{Base: pbase, Name: pname, DeclType: pt})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRParen, ")")
	body := p.parseBlock()
	return &FuncDecl{Base: base, Name: name, ReturnType: retType, Params: params, Body: body}
}

// parseDeclRest parses the remainder of a variable declaration after
// its base type and name have been consumed: optional [size],
// optional initializer, terminating `;` (only required at top level
// or statement level, not inside a for-init where the caller consumes
// the `;`).
func (p *Parser) parseDeclRest(base Base, declType *types.Type, name string, consumeSemi bool) Node {
	decl := &DeclNode{Base: base, Name: name, DeclType: declType}
	if p.match(lexer.TokenLBracket) {
		decl.IsArray = true
		if !p.check(lexer.TokenRBracket) {
			decl.HasSize = true
			decl.ArraySize = int(p.expect(lexer.TokenIntLit, "array size").IntVal)
		}
		p.expect(lexer.TokenRBracket, "]")
	}
	if p.match(lexer.TokenAssign) {
		decl.Init = p.parseExpr()
	}
	if consumeSemi {
		p.expect(lexer.TokenSemi, ";")
	}
	return decl
}

// ---- statements ----

func (p *Parser) parseBlock() *BlockStmt {
	base := p.base()
	p.expect(lexer.TokenLBrace, "{")
	block := &BlockStmt{Base: base}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		block.Stmts = append(block.Stmts, p.parseStatement())
	}
	p.expect(lexer.TokenRBrace, "}")
	return block
}

func (p *Parser) parseStatement() Node {
	switch {
	case p.check(lexer.TokenLBrace):
		return p.parseBlock()
	case p.check(lexer.TokenIf):
		return p.parseIf()
	case p.check(lexer.TokenWhile):
		return p.parseWhile()
	case p.check(lexer.TokenDo):
		return p.parseDoWhile()
	case p.check(lexer.TokenFor):
		return p.parseFor()
	case p.check(lexer.TokenReturn):
		return p.parseReturn()
	case p.check(lexer.TokenBreak):
		base := p.base()
		p.advance()
		p.expect(lexer.TokenSemi, ";")
		return &BreakStmt{Base: base}
	case p.check(lexer.TokenContinue):
		base := p.base()
		p.advance()
		p.expect(lexer.TokenSemi, ";")
		return &ContinueStmt{Base: base}
	case p.check(lexer.TokenStruct):
		return p.parseStructDecl()
	case isTypeKeyword(p.peek().Type) || p.check(lexer.TokenConst):
		return p.parseLocalDecl()
	default:
		base := p.base()
		expr := p.parseExpr()
		p.expect(lexer.TokenSemi, ";")
		expr.SetNext(nil)
		_ = base
		return expr
	}
}

func (p *Parser) parseLocalDecl() Node {
	base := p.base()
	declType := p.parseBaseType()
	name := p.expect(lexer.TokenIdent, "identifier").Lexeme
	return p.parseDeclRest(base, declType, name, true)
}

func (p *Parser) parseIf() Node {
	base := p.base()
	p.expect(lexer.TokenIf, "if")
	p.expect(lexer.TokenLParen, "(")
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen, ")")
	then := p.parseStatement()
	var els Node
	if p.match(lexer.TokenElse) {
		els = p.parseStatement()
	}
	return &IfStmt{Base: base, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() Node {
	base := p.base()
	p.expect(lexer.TokenWhile, "while")
	p.expect(lexer.TokenLParen, "(")
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen, ")")
	body := p.parseStatement()
	return &WhileStmt{Base: base, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() Node {
	base := p.base()
	p.expect(lexer.TokenDo, "do")
	body := p.parseStatement()
	p.expect(lexer.TokenWhile, "while")
	p.expect(lexer.TokenLParen, "(")
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen, ")")
	p.expect(lexer.TokenSemi, ";")
	return &DoWhileStmt{Base: base, Body: body, Cond: cond}
}

func (p *Parser) parseFor() Node {
	base := p.base()
	p.expect(lexer.TokenFor, "for")
	p.expect(lexer.TokenLParen, "(")

	var init Node
	if !p.check(lexer.TokenSemi) {
		if isTypeKeyword(p.peek().Type) || p.check(lexer.TokenConst) {
			ibase := p.base()
			declType := p.parseBaseType()
			name := p.expect(lexer.TokenIdent, "identifier").Lexeme
			init = p.parseDeclRest(ibase, declType, name, false)
		} else {
			init = p.parseExpr()
		}
	}
	p.expect(lexer.TokenSemi, ";")

	var cond Node
	if !p.check(lexer.TokenSemi) {
		cond = p.parseExpr()
	}
	p.expect(lexer.TokenSemi, ";")

	var post Node
	if !p.check(lexer.TokenRParen) {
		post = p.parseExpr()
	}
	p.expect(lexer.TokenRParen, ")")

	body := p.parseStatement()
	return &ForStmt{Base: base, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseReturn() Node {
	base := p.base()
	p.expect(lexer.TokenReturn, "return")
	var val Node
	if !p.check(lexer.TokenSemi) {
		val = p.parseExpr()
	}
	p.expect(lexer.TokenSemi, ";")
	return &ReturnStmt{Base: base, Value: val}
}

// ---- expressions, precedence-climbing ----

func (p *Parser) parseExpr() Node {
	return p.parseAssignment()
}

var assignOps = map[lexer.TokenType]AssignOp{
	lexer.TokenAssign:    AssignSimple,
	lexer.TokenPlusEq:    AssignAdd,
	lexer.TokenMinusEq:   AssignSub,
	lexer.TokenStarEq:    AssignMul,
	lexer.TokenSlashEq:   AssignDiv,
	lexer.TokenPercentEq: AssignMod,
	lexer.TokenAmpEq:     AssignBitAnd,
	lexer.TokenPipeEq:    AssignBitOr,
	lexer.TokenCaretEq:   AssignBitXor,
	lexer.TokenShlEq:     AssignShl,
	lexer.TokenShrEq:     AssignShr,
}

func (p *Parser) parseAssignment() Node {
	left := p.parseTernary()
	if op, ok := assignOps[p.peek().Type]; ok {
		base := p.base()
		p.advance()
		rhs := p.parseAssignment()
		return &AssignExpr{Base: base, Op: op, LHS: left, RHS: rhs}
	}
	return left
}

func (p *Parser) parseTernary() Node {
	cond := p.parseLogicalOr()
	if p.match(lexer.TokenQuestion) {
		base := p.base()
		then := p.parseExpr()
		p.expect(lexer.TokenColon, ":")
		els := p.parseTernary()
		return &TernaryExpr{Base: base, Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseLogicalOr() Node {
	left := p.parseLogicalAnd()
	for p.check(lexer.TokenOrOr) {
		base := p.base()
		p.advance()
		right := p.parseLogicalAnd()
		left = &LogicalExpr{Base: base, Or: true, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() Node {
	left := p.parseBitOr()
	for p.check(lexer.TokenAndAnd) {
		base := p.base()
		p.advance()
		right := p.parseBitOr()
		left = &LogicalExpr{Base: base, Or: false, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBinaryLevel(next func() Node, ops map[lexer.TokenType]BinOp) Node {
	left := next()
	for {
		op, ok := ops[p.peek().Type]
		if !ok {
			return left
		}
		base := p.base()
		p.advance()
		right := next()
		left = &BinaryExpr{Base: base, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseBitOr() Node {
	return p.parseBinaryLevel(p.parseBitXor, map[lexer.TokenType]BinOp{lexer.TokenPipe: OpBitOr})
}
func (p *Parser) parseBitXor() Node {
	return p.parseBinaryLevel(p.parseBitAnd, map[lexer.TokenType]BinOp{lexer.TokenCaret: OpBitXor})
}
func (p *Parser) parseBitAnd() Node {
	return p.parseBinaryLevel(p.parseEquality, map[lexer.TokenType]BinOp{lexer.TokenAmp: OpBitAnd})
}
func (p *Parser) parseEquality() Node {
	return p.parseBinaryLevel(p.parseRelational, map[lexer.TokenType]BinOp{
		lexer.TokenEq: OpEq, lexer.TokenNeq: OpNeq,
	})
}
func (p *Parser) parseRelational() Node {
	return p.parseBinaryLevel(p.parseShift, map[lexer.TokenType]BinOp{
		lexer.TokenLt: OpLt, lexer.TokenGt: OpGt, lexer.TokenLe: OpLe, lexer.TokenGe: OpGe,
	})
}
func (p *Parser) parseShift() Node {
	return p.parseBinaryLevel(p.parseAdditive, map[lexer.TokenType]BinOp{
		lexer.TokenShl: OpShl, lexer.TokenShr: OpShr,
	})
}
func (p *Parser) parseAdditive() Node {
	return p.parseBinaryLevel(p.parseMultiplicative, map[lexer.TokenType]BinOp{
		lexer.TokenPlus: OpAdd, lexer.TokenMinus: OpSub,
	})
}
func (p *Parser) parseMultiplicative() Node {
	return p.parseBinaryLevel(p.parseUnary, map[lexer.TokenType]BinOp{
		lexer.TokenStar: OpMul, lexer.TokenSlash: OpDiv, lexer.TokenPercent: OpMod,
	})
}

func (p *Parser) parseUnary() Node {
	base := p.base()
	switch {
	case p.match(lexer.TokenPlus):
		return &UnaryExpr{Base: base, Op: UnaryPlus, Operand: p.parseUnary()}
	case p.match(lexer.TokenMinus):
		return &UnaryExpr{Base: base, Op: UnaryNeg, Operand: p.parseUnary()}
	case p.match(lexer.TokenBang):
		return &UnaryExpr{Base: base, Op: UnaryNot, Operand: p.parseUnary()}
	case p.match(lexer.TokenTilde):
		return &UnaryExpr{Base: base, Op: UnaryBitNot, Operand: p.parseUnary()}
	case p.match(lexer.TokenAmp):
		return &UnaryExpr{Base: base, Op: UnaryAddr, Operand: p.parseUnary()}
	case p.match(lexer.TokenStar):
		return &UnaryExpr{Base: base, Op: UnaryDeref, Operand: p.parseUnary()}
	case p.match(lexer.TokenPlusPlus):
		return &UnaryExpr{Base: base, Op: UnaryPreInc, Operand: p.parseUnary()}
	case p.match(lexer.TokenMinusMinus):
		return &UnaryExpr{Base: base, Op: UnaryPreDec, Operand: p.parseUnary()}
	case p.check(lexer.TokenLParen) && p.looksLikeCast():
		p.advance()
		castType := p.parseBaseType()
		p.expect(lexer.TokenRParen, ")")
		return &UnaryExpr{Base: base, Op: UnaryCast, CastType: castType, Operand: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

// looksLikeCast peeks past "(" for int/char/float/void (the ")" is
// not checked here; the caller expects it) — a crude
// but adequate disambiguation for this grammar (the language has no
// first-class expressions that start with a bare type keyword).
func (p *Parser) looksLikeCast() bool {
	return p.checkAhead(1, lexer.TokenInt) || p.checkAhead(1, lexer.TokenChar) ||
		p.checkAhead(1, lexer.TokenFloat) || p.checkAhead(1, lexer.TokenVoid)
}

func (p *Parser) parsePostfix() Node {
	expr := p.parsePrimary()
	for {
		base := p.base()
		switch {
		case p.match(lexer.TokenLBracket):
			idx := p.parseExpr()
			p.expect(lexer.TokenRBracket, "]")
			expr = &ArrayAccessExpr{Base: base, Array: expr, Index: idx}
		case p.match(lexer.TokenDot):
			member := p.expect(lexer.TokenIdent, "member name").Lexeme
			expr = &MemberAccessExpr{Base: base, Object: expr, Member: member}
		case p.match(lexer.TokenPlusPlus):
			expr = &UnaryExpr{Base: base, Op: UnaryPostInc, Operand: expr}
		case p.match(lexer.TokenMinusMinus):
			expr = &UnaryExpr{Base: base, Op: UnaryPostDec, Operand: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() Node {
	base := p.base()
	switch {
	case p.match(lexer.TokenIntLit):
		return &IntLit{Base: base, Value: p.previous().IntVal}
	case p.match(lexer.TokenFloatLit):
		return &FloatLit{Base: base, Value: p.previous().FltVal}
	case p.match(lexer.TokenCharLit):
		return &CharLit{Base: base, Value: byte(p.previous().IntVal)}
	case p.match(lexer.TokenStringLit):
		return &StringLit{Base: base, Value: p.previous().Lexeme}
	case p.match(lexer.TokenTrue):
		return &BoolLit{Base: base, Value: true}
	case p.match(lexer.TokenFalse):
		return &BoolLit{Base: base, Value: false}
	case p.match(lexer.TokenLParen):
		expr := p.parseExpr()
		p.expect(lexer.TokenRParen, ")")
		return expr
	case p.check(lexer.TokenIdent):
		name := p.advance().Lexeme
		if p.check(lexer.TokenLParen) {
			return p.parseCallRest(base, name)
		}
		return &Ident{Base: base, Name: name}
	default:
		panic(fmt.Sprintf("line %d: unexpected token %s", p.peek().Line, p.peek().Type))
	}
}

func (p *Parser) parseCallRest(base Base, name string) Node {
	p.expect(lexer.TokenLParen, "(")
	var args []Node
	if !p.check(lexer.TokenRParen) {
		for {
			args = append(args, p.parseExpr())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRParen, ")")
	return &CallExpr{Base: base, Callee: name, Args: args}
}
