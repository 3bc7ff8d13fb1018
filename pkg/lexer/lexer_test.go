package lexer

import "testing"

func TestNextToken_BasicTokens(t *testing.T) {
	input := `( ) [ ] , ; . -> <-`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenPeriod, "."},
		{TokenArrow, "->"},
		{TokenLArrow, "<-"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `+ - * / % < <= > >= == != & |`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenLess, "<"},
		{TokenLessEq, "<="},
		{TokenGreater, ">"},
		{TokenGreaterEq, ">="},
		{TokenEqual, "=="},
		{TokenNotEqual, "!="},
		{TokenAmp, "&"},
		{TokenPipe, "|"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `let function begin end while do if then else array object extends print true false null`

	tests := []TokenType{
		TokenLet, TokenFunction, TokenBegin, TokenEnd, TokenWhile, TokenDo,
		TokenIf, TokenThen, TokenElse, TokenArray, TokenObject, TokenExtends,
		TokenPrint, TokenTrue, TokenFalse, TokenNull,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, want, tok.Type)
		}
	}
}

func TestNextToken_Integers(t *testing.T) {
	input := `0 42 -7`

	tests := []string{"0", "42", "-7"}
	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != TokenInteger {
			t.Fatalf("tests[%d] - expected INTEGER, got=%s", i, tok.Type)
		}
		if tok.Literal != want {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, want, tok.Literal)
		}
	}
}

func TestNextToken_MinusIsOperatorWithoutAdjacentDigit(t *testing.T) {
	l := New(`a - 3`)

	id := l.NextToken()
	if id.Type != TokenIdentifier || id.Literal != "a" {
		t.Fatalf("expected identifier 'a', got %s %q", id.Type, id.Literal)
	}
	minus := l.NextToken()
	if minus.Type != TokenMinus {
		t.Fatalf("expected MINUS, got %s", minus.Type)
	}
	num := l.NextToken()
	if num.Type != TokenInteger || num.Literal != "3" {
		t.Fatalf("expected INTEGER 3, got %s %q", num.Type, num.Literal)
	}
}

func TestNextToken_Identifiers(t *testing.T) {
	input := `foo bar_baz x1`
	want := []string{"foo", "bar_baz", "x1"}

	l := New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != TokenIdentifier {
			t.Fatalf("tests[%d] - expected IDENTIFIER, got=%s", i, tok.Type)
		}
		if tok.Literal != w {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, w, tok.Literal)
		}
	}
}

func TestNextToken_StringLiteral(t *testing.T) {
	l := New(`"hello, ~\n"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	if tok.Literal != `hello, ~\n` {
		t.Fatalf("literal wrong. got %q", tok.Literal)
	}
}

func TestNextToken_CommentsAreSkipped(t *testing.T) {
	l := New("let x = 1 # trailing comment\nlet y = 2")
	var types []TokenType
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		types = append(types, tok.Type)
	}
	want := []TokenType{TokenLet, TokenIdentifier, TokenAssign, TokenInteger, TokenLet, TokenIdentifier, TokenAssign, TokenInteger}
	if len(types) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(types), types)
	}
}

func TestNextToken_AssignVsEqual(t *testing.T) {
	l := New(`= ==`)
	eq := l.NextToken()
	if eq.Type != TokenAssign || eq.Literal != "=" {
		t.Fatalf("expected ASSIGN, got %s %q", eq.Type, eq.Literal)
	}
	eqeq := l.NextToken()
	if eqeq.Type != TokenEqual || eqeq.Literal != "==" {
		t.Fatalf("expected EQUAL, got %s %q", eqeq.Type, eqeq.Literal)
	}
}

func TestTokenize_StopsOnIllegal(t *testing.T) {
	l := New("let x ~ 1")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatalf("expected an error for illegal token")
	}
}
