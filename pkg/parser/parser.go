// Package parser implements a recursive-descent parser for the ppl source
// language: identifiers, integer/boolean/null literals, `let`/`<-` bindings,
// `function`/`object`/`while`/`if`/`array`/`print` forms, indexing, field
// access, method calls, and infix operators.
//
// The parser is out-of-core: the compiler's contract is with the *ast.Program
// it produces, not with source text. It exists to drive end-to-end tests and
// the cmd/ppl CLI.
//
// Token Management:
//
// This parser keeps a two-token lookahead window (curTok, peekTok) so a
// production can decide what it's looking at without consuming a token it
// isn't ready for yet.
//
// Operator Precedence:
//
// From tightest to loosest: `* / %`, then `+ -`, then the relational
// operators `< <= > >= == !=`, then `&`, then `|`. Each level is
// left-associative. Assignment (`<-`) binds loosest of all and is detected
// after parsing the left-hand side, by inspecting its shape.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kondziu/ppl/pkg/ast"
	"github.com/kondziu/ppl/pkg/lexer"
)

// Parser turns a token stream into an *ast.Program. It is stateful and
// single-use: construct a new one per source file.
type Parser struct {
	l       *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	errors  []string
}

// New creates a Parser over input, primed with the first two tokens.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) addError(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.curTok.Type != tt {
		p.addError("expected %s, got %s (%q) at line %d", tt, p.curTok.Type, p.curTok.Literal, p.curTok.Line)
		return false
	}
	p.nextToken()
	return true
}

// Parse parses the whole input as a `;`-separated sequence of expressions
// (a trailing `;` is permitted) and returns the root *ast.Program.
func Parse(input string) (*ast.Program, error) {
	return New(input).Parse()
}

// Parse consumes the parser's input and returns the root *ast.Program, or
// every accumulated syntax error joined into one.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}

	for p.curTok.Type != lexer.TokenEOF {
		expr := p.parseExpression()
		if expr != nil {
			prog.Children = append(prog.Children, expr)
		}
		if p.curTok.Type == lexer.TokenSemicolon {
			p.nextToken()
			continue
		}
		if p.curTok.Type != lexer.TokenEOF {
			p.addError("expected ';' or end of input, got %s (%q) at line %d", p.curTok.Type, p.curTok.Literal, p.curTok.Line)
			p.nextToken()
		}
	}

	if len(p.errors) > 0 {
		return prog, fmt.Errorf("parser errors: %v", p.errors)
	}
	return prog, nil
}

// parseExpression parses one full expression, including a trailing `<-`
// mutation if the left-hand side it parsed is an lvalue shape (identifier,
// index expression, or field access).
func (p *Parser) parseExpression() ast.Expression {
	left := p.parseOr()
	if left == nil {
		return nil
	}
	if p.curTok.Type != lexer.TokenLArrow {
		return left
	}
	p.nextToken()
	value := p.parseExpression()
	if value == nil {
		return nil
	}

	switch lhs := left.(type) {
	case *ast.Identifier:
		return &ast.Assignment{Name: lhs.Name, Value: value}
	case *ast.IndexExpression:
		return &ast.IndexAssignment{Subject: lhs.Subject, Index: lhs.Index, Value: value}
	case *ast.FieldAccess:
		return &ast.FieldAssignment{Subject: lhs.Subject, Field: lhs.Field, Value: value}
	default:
		p.addError("invalid assignment target %T", left)
		return nil
	}
}

// binaryLevel is one precedence tier: a set of operator tokens and the
// parser for the next-tighter tier, wired together by parseBinary.
type binaryLevel struct {
	tokens map[lexer.TokenType]string
	next   func() ast.Expression
}

func (p *Parser) parseOr() ast.Expression {
	return p.parseBinary(binaryLevel{
		tokens: map[lexer.TokenType]string{lexer.TokenPipe: "|"},
		next:   p.parseAnd,
	})
}

func (p *Parser) parseAnd() ast.Expression {
	return p.parseBinary(binaryLevel{
		tokens: map[lexer.TokenType]string{lexer.TokenAmp: "&"},
		next:   p.parseRelational,
	})
}

func (p *Parser) parseRelational() ast.Expression {
	return p.parseBinary(binaryLevel{
		tokens: map[lexer.TokenType]string{
			lexer.TokenLess:      "<",
			lexer.TokenLessEq:    "<=",
			lexer.TokenGreater:   ">",
			lexer.TokenGreaterEq: ">=",
			lexer.TokenEqual:     "==",
			lexer.TokenNotEqual:  "!=",
		},
		next: p.parseAdditive,
	})
}

func (p *Parser) parseAdditive() ast.Expression {
	return p.parseBinary(binaryLevel{
		tokens: map[lexer.TokenType]string{lexer.TokenPlus: "+", lexer.TokenMinus: "-"},
		next:   p.parseMultiplicative,
	})
}

func (p *Parser) parseMultiplicative() ast.Expression {
	return p.parseBinary(binaryLevel{
		tokens: map[lexer.TokenType]string{
			lexer.TokenStar:    "*",
			lexer.TokenSlash:   "/",
			lexer.TokenPercent: "%",
		},
		next: p.parsePostfix,
	})
}

// parseBinary implements one left-associative precedence tier: parse the
// next-tighter production, then keep folding in `op right` for as long as
// the current token names an operator at this tier. Every binary operator
// compiles down to the same ast.MethodCall shape the compiler dispatches
// through CallMethod.
func (p *Parser) parseBinary(level binaryLevel) ast.Expression {
	left := level.next()
	if left == nil {
		return nil
	}
	for {
		selector, ok := level.tokens[p.curTok.Type]
		if !ok {
			return left
		}
		p.nextToken()
		right := level.next()
		if right == nil {
			return nil
		}
		left = &ast.MethodCall{Subject: left, Selector: selector, Arguments: []ast.Expression{right}}
	}
}

// parsePostfix parses a primary expression followed by zero or more
// `.field`, `.selector(args)`, or `[index]` suffixes, chaining left to
// right (`a.b[i].c(d)` parses as ((a.b)[i]).c(d)).
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		switch p.curTok.Type {
		case lexer.TokenPeriod:
			p.nextToken()
			if p.curTok.Type != lexer.TokenIdentifier {
				p.addError("expected field or method name after '.', got %s", p.curTok.Type)
				return nil
			}
			name := p.curTok.Literal
			p.nextToken()
			if p.curTok.Type == lexer.TokenLParen {
				args := p.parseArgumentList()
				if args == nil {
					return nil
				}
				expr = &ast.MethodCall{Subject: expr, Selector: name, Arguments: args}
			} else {
				expr = &ast.FieldAccess{Subject: expr, Field: name}
			}
		case lexer.TokenLBracket:
			p.nextToken()
			index := p.parseExpression()
			if index == nil {
				return nil
			}
			if !p.expect(lexer.TokenRBracket) {
				return nil
			}
			expr = &ast.IndexExpression{Subject: expr, Index: index}
		default:
			return expr
		}
	}
}

// parseArgumentList parses a parenthesized, comma-separated expression
// list. curTok must be '(' on entry; it is consumed along with the closing
// ')'.
func (p *Parser) parseArgumentList() []ast.Expression {
	p.nextToken() // consume '('
	args := []ast.Expression{}
	if p.curTok.Type == lexer.TokenRParen {
		p.nextToken()
		return args
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.curTok.Type == lexer.TokenComma {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	return args
}

// parsePrimary parses every expression form that is not a binary operator
// or a postfix suffix: literals, identifiers/calls, parenthesized
// expressions, and the keyword-led forms (let, function, object, while,
// if, array, print, begin...end).
func (p *Parser) parsePrimary() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenInteger:
		n, err := strconv.ParseInt(p.curTok.Literal, 10, 32)
		if err != nil {
			p.addError("invalid integer literal %q: %v", p.curTok.Literal, err)
			return nil
		}
		p.nextToken()
		return &ast.IntegerLiteral{Value: int32(n)}

	case lexer.TokenTrue:
		p.nextToken()
		return &ast.BooleanLiteral{Value: true}

	case lexer.TokenFalse:
		p.nextToken()
		return &ast.BooleanLiteral{Value: false}

	case lexer.TokenNull:
		p.nextToken()
		return &ast.NullLiteral{}

	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		return expr

	case lexer.TokenIdentifier:
		name := p.curTok.Literal
		p.nextToken()
		if p.curTok.Type == lexer.TokenLParen {
			args := p.parseArgumentList()
			if args == nil {
				return nil
			}
			return &ast.FunctionCall{Name: name, Arguments: args}
		}
		return &ast.Identifier{Name: name}

	case lexer.TokenLet:
		return p.parseLet()

	case lexer.TokenFunction:
		return p.parseFunction()

	case lexer.TokenBegin:
		return p.parseBlock()

	case lexer.TokenWhile:
		return p.parseWhile()

	case lexer.TokenIf:
		return p.parseIf()

	case lexer.TokenArray:
		return p.parseArray()

	case lexer.TokenObject:
		return p.parseObject()

	case lexer.TokenPrint:
		return p.parsePrint()

	default:
		p.addError("unexpected token %s (%q) at line %d", p.curTok.Type, p.curTok.Literal, p.curTok.Line)
		p.nextToken()
		return nil
	}
}

// parseLet parses `let name = value`.
func (p *Parser) parseLet() ast.Expression {
	p.nextToken() // consume 'let'
	if p.curTok.Type != lexer.TokenIdentifier {
		p.addError("expected identifier after 'let', got %s", p.curTok.Type)
		return nil
	}
	name := p.curTok.Literal
	p.nextToken()
	if !p.expect(lexer.TokenAssign) {
		return nil
	}
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	return &ast.VariableDefinition{Name: name, Value: value}
}

// parseFunction parses `function name(params, ...) -> body`.
func (p *Parser) parseFunction() ast.Expression {
	p.nextToken() // consume 'function'
	if p.curTok.Type != lexer.TokenIdentifier {
		p.addError("expected function name, got %s", p.curTok.Type)
		return nil
	}
	name := p.curTok.Literal
	p.nextToken()

	params, ok := p.parseParameterList()
	if !ok {
		return nil
	}
	if !p.expect(lexer.TokenArrow) {
		return nil
	}
	body := p.parseExpression()
	if body == nil {
		return nil
	}
	return &ast.FunctionDefinition{Name: name, Parameters: params, Body: body}
}

func (p *Parser) parseParameterList() ([]string, bool) {
	if !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	var params []string
	if p.curTok.Type == lexer.TokenRParen {
		p.nextToken()
		return params, true
	}
	for {
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected parameter name, got %s", p.curTok.Type)
			return nil, false
		}
		params = append(params, p.curTok.Literal)
		p.nextToken()
		if p.curTok.Type == lexer.TokenComma {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	return params, true
}

// parseBlock parses `begin e1; e2; ...; en end`.
func (p *Parser) parseBlock() ast.Expression {
	p.nextToken() // consume 'begin'
	block := &ast.Block{}
	for p.curTok.Type != lexer.TokenEnd {
		if p.curTok.Type == lexer.TokenEOF {
			p.addError("unterminated 'begin' block")
			return nil
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		block.Expressions = append(block.Expressions, expr)
		if p.curTok.Type == lexer.TokenSemicolon {
			p.nextToken()
		}
	}
	p.nextToken() // consume 'end'
	return block
}

// parseWhile parses `while condition do body`.
func (p *Parser) parseWhile() ast.Expression {
	p.nextToken() // consume 'while'
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenDo) {
		return nil
	}
	body := p.parseExpression()
	if body == nil {
		return nil
	}
	return &ast.WhileLoop{Condition: cond, Body: body}
}

// parseIf parses `if condition then consequence [else alternative]`.
func (p *Parser) parseIf() ast.Expression {
	p.nextToken() // consume 'if'
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenThen) {
		return nil
	}
	cons := p.parseExpression()
	if cons == nil {
		return nil
	}
	var alt ast.Expression
	if p.curTok.Type == lexer.TokenElse {
		p.nextToken()
		alt = p.parseExpression()
		if alt == nil {
			return nil
		}
	}
	return &ast.Conditional{Condition: cond, Consequence: cons, Alternative: alt}
}

// parseArray parses `array(size, init)`.
func (p *Parser) parseArray() ast.Expression {
	p.nextToken() // consume 'array'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	size := p.parseExpression()
	if size == nil {
		return nil
	}
	if !p.expect(lexer.TokenComma) {
		return nil
	}
	init := p.parseExpression()
	if init == nil {
		return nil
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	return &ast.ArrayDefinition{Size: size, Init: init}
}

// parseObject parses `object [extends parent] begin member*; end`. Each
// member is either a field (`let name = value`) or a method
// (`function name(params) -> body`).
func (p *Parser) parseObject() ast.Expression {
	p.nextToken() // consume 'object'

	var parent ast.Expression
	if p.curTok.Type == lexer.TokenExtends {
		p.nextToken()
		parent = p.parseOr()
		if parent == nil {
			return nil
		}
	}

	if !p.expect(lexer.TokenBegin) {
		return nil
	}

	obj := &ast.ObjectDefinition{Parent: parent}
	for p.curTok.Type != lexer.TokenEnd {
		if p.curTok.Type == lexer.TokenEOF {
			p.addError("unterminated object body")
			return nil
		}
		member := p.parseObjectMember()
		if member == nil {
			return nil
		}
		obj.Members = append(obj.Members, member)
		if p.curTok.Type == lexer.TokenSemicolon {
			p.nextToken()
		}
	}
	p.nextToken() // consume 'end'
	return obj
}

func (p *Parser) parseObjectMember() ast.ObjectMember {
	switch p.curTok.Type {
	case lexer.TokenLet:
		p.nextToken()
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected field name after 'let', got %s", p.curTok.Type)
			return nil
		}
		name := p.curTok.Literal
		p.nextToken()
		if !p.expect(lexer.TokenAssign) {
			return nil
		}
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &ast.FieldDefinition{Name: name, Value: value}

	case lexer.TokenFunction:
		p.nextToken()
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected method name, got %s", p.curTok.Type)
			return nil
		}
		name := p.curTok.Literal
		p.nextToken()
		params, ok := p.parseParameterList()
		if !ok {
			return nil
		}
		if !p.expect(lexer.TokenArrow) {
			return nil
		}
		body := p.parseExpression()
		if body == nil {
			return nil
		}
		return &ast.MethodDefinition{Name: name, Parameters: params, Body: body}

	default:
		p.addError("expected 'let' or 'function' in object body, got %s", p.curTok.Type)
		return nil
	}
}

// parsePrint parses `print(format, arg, ...)`.
func (p *Parser) parsePrint() ast.Expression {
	p.nextToken() // consume 'print'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	if p.curTok.Type != lexer.TokenString {
		p.addError("expected format string literal, got %s", p.curTok.Type)
		return nil
	}
	format := p.curTok.Literal
	p.nextToken()

	var args []ast.Expression
	for p.curTok.Type == lexer.TokenComma {
		p.nextToken()
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	return &ast.Print{Format: format, Arguments: args}
}
