package lexer

import "testing"

func scanTypes(src string) []TokenType {
	sc := NewScanner(src)
	toks := sc.ScanTokens()
	types := make([]TokenType, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func assertTokenTypes(t *testing.T, src string, want []TokenType) {
	got := scanTypes(src)
	want = append(want, TokenEOF)
	if len(got) != len(want) {
		t.Fatalf("scanning %q: got %d tokens %v, want %d %v", src, len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("scanning %q: token %d = %s, want %s", src, i, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"keywords", "int char float void const struct", []TokenType{TokenInt, TokenChar, TokenFloat, TokenVoid, TokenConst, TokenStruct}},
		{"control keywords", "if else while do for return break continue", []TokenType{TokenIf, TokenElse, TokenWhile, TokenDo, TokenFor, TokenReturn, TokenBreak, TokenContinue}},
		{"bool literals", "true false", []TokenType{TokenTrue, TokenFalse}},
		{"identifier not keyword prefix", "integer", []TokenType{TokenIdent}},
		{"underscore identifier", "_foo bar_2", []TokenType{TokenIdent, TokenIdent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokenTypes(t, tt.input, tt.want)
		})
	}
}

func TestOperatorMaximalMunch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"increment vs plus", "++ + +=", []TokenType{TokenPlusPlus, TokenPlus, TokenPlusEq}},
		{"shift vs less-than", "<< <= <", []TokenType{TokenShl, TokenLe, TokenLt}},
		{"shift assign", "<<= >>=", []TokenType{TokenShlEq, TokenShrEq}},
		{"logical vs bitwise", "&& & || |", []TokenType{TokenAndAnd, TokenAmp, TokenOrOr, TokenPipe}},
		{"equality vs assign", "== =", []TokenType{TokenEq, TokenAssign}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokenTypes(t, tt.input, tt.want)
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	sc := NewScanner("42 3.14 0")
	toks := sc.ScanTokens()
	if toks[0].Type != TokenIntLit || toks[0].IntVal != 42 {
		t.Fatalf("expected int literal 42, got %+v", toks[0])
	}
	if toks[1].Type != TokenFloatLit || toks[1].FltVal != 3.14 {
		t.Fatalf("expected float literal 3.14, got %+v", toks[1])
	}
	if toks[2].Type != TokenIntLit || toks[2].IntVal != 0 {
		t.Fatalf("expected int literal 0, got %+v", toks[2])
	}
}

func TestStringAndCharEscapes(t *testing.T) {
	sc := NewScanner(`"hi\n" '\t'`)
	toks := sc.ScanTokens()
	if toks[0].Type != TokenStringLit || toks[0].Lexeme != "hi\n" {
		t.Fatalf("expected string literal %q, got %+v", "hi\n", toks[0])
	}
	if toks[1].Type != TokenCharLit || toks[1].IntVal != int64('\t') {
		t.Fatalf("expected char literal tab, got %+v", toks[1])
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	assertTokenTypes(t, "int x; // trailing\n/* block */ float y;",
		[]TokenType{TokenInt, TokenIdent, TokenSemi, TokenFloat, TokenIdent, TokenSemi})
}

func TestUnterminatedStringReportsError(t *testing.T) {
	sc := NewScanner(`"unterminated`)
	sc.ScanTokens()
	if len(sc.Errors()) == 0 {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestIllegalCharacterReportsErrorButContinues(t *testing.T) {
	sc := NewScanner("int @ x;")
	toks := sc.ScanTokens()
	if len(sc.Errors()) == 0 {
		t.Fatal("expected an error for the illegal '@' character")
	}
	assertTokenTypes(t, "int @ x;", []TokenType{TokenInt, TokenIdent, TokenSemi})
	_ = toks
}

func TestLineTrackingAcrossNewlines(t *testing.T) {
	sc := NewScanner("int x;\nint y;\n\nint z;")
	toks := sc.ScanTokens()
	var zLine int
	for _, tok := range toks {
		if tok.Type == TokenIdent && tok.Lexeme == "z" {
			zLine = tok.Line
		}
	}
	if zLine != 4 {
		t.Fatalf("expected 'z' on line 4, got %d", zLine)
	}
}
