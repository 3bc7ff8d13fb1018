// Package ast defines the Abstract Syntax Tree the parser produces and the
// compiler consumes. The source language is expression-oriented — there is
// no separate statement grammar, so every node (including the top-level
// Program) implements Expression.
package ast

// Node is the interface every AST node implements.
type Node interface {
	TokenLiteral() string
}

// Expression is every AST node — literal, binding, control flow, function
// and object definition alike all produce a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: the top-level sequence of expressions, compiled
// into the synthetic entry method.
type Program struct {
	Children []Expression
}

func (p *Program) TokenLiteral() string {
	if len(p.Children) > 0 {
		return p.Children[0].TokenLiteral()
	}
	return ""
}

// IntegerLiteral is a literal integer, optionally negative.
type IntegerLiteral struct {
	Value int32
}

func (n *IntegerLiteral) TokenLiteral() string { return "integer" }
func (n *IntegerLiteral) expressionNode()      {}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Value bool
}

func (n *BooleanLiteral) TokenLiteral() string { return "boolean" }
func (n *BooleanLiteral) expressionNode()      {}

// NullLiteral is `null`, the unit value.
type NullLiteral struct{}

func (n *NullLiteral) TokenLiteral() string { return "null" }
func (n *NullLiteral) expressionNode()      {}

// Identifier is a bare name: a variable reference.
type Identifier struct {
	Name string
}

func (n *Identifier) TokenLiteral() string { return n.Name }
func (n *Identifier) expressionNode()      {}

// VariableDefinition is `let name = value`.
type VariableDefinition struct {
	Name  string
	Value Expression
}

func (n *VariableDefinition) TokenLiteral() string { return "let" }
func (n *VariableDefinition) expressionNode()      {}

// Assignment is `name <- value`, a variable mutation.
type Assignment struct {
	Name  string
	Value Expression
}

func (n *Assignment) TokenLiteral() string { return "<-" }
func (n *Assignment) expressionNode()      {}

// Conditional is `if condition then consequence [else alternative]`.
// Alternative is nil when the else branch is absent.
type Conditional struct {
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (n *Conditional) TokenLiteral() string { return "if" }
func (n *Conditional) expressionNode()      {}

// WhileLoop is `while condition do body`.
type WhileLoop struct {
	Condition Expression
	Body      Expression
}

func (n *WhileLoop) TokenLiteral() string { return "while" }
func (n *WhileLoop) expressionNode()      {}

// ArrayDefinition is `array(size, init)`.
type ArrayDefinition struct {
	Size Expression
	Init Expression
}

func (n *ArrayDefinition) TokenLiteral() string { return "array" }
func (n *ArrayDefinition) expressionNode()      {}

// IndexExpression is `subject[index]`.
type IndexExpression struct {
	Subject Expression
	Index   Expression
}

func (n *IndexExpression) TokenLiteral() string { return "[]" }
func (n *IndexExpression) expressionNode()      {}

// IndexAssignment is `subject[index] <- value`.
type IndexAssignment struct {
	Subject Expression
	Index   Expression
	Value   Expression
}

func (n *IndexAssignment) TokenLiteral() string { return "[]<-" }
func (n *IndexAssignment) expressionNode()      {}

// FieldAccess is `subject.field`.
type FieldAccess struct {
	Subject Expression
	Field   string
}

func (n *FieldAccess) TokenLiteral() string { return n.Field }
func (n *FieldAccess) expressionNode()      {}

// FieldAssignment is `subject.field <- value`.
type FieldAssignment struct {
	Subject Expression
	Field   string
	Value   Expression
}

func (n *FieldAssignment) TokenLiteral() string { return n.Field }
func (n *FieldAssignment) expressionNode()      {}

// FunctionDefinition is `function name(parameters) -> body` as a free
// function, at the top level or inside a block. The same syntax inside an
// object body is parsed as a MethodDefinition instead.
type FunctionDefinition struct {
	Name       string
	Parameters []string
	Body       Expression
}

func (n *FunctionDefinition) TokenLiteral() string { return n.Name }
func (n *FunctionDefinition) expressionNode()      {}

// FunctionCall is `name(arguments)`.
type FunctionCall struct {
	Name      string
	Arguments []Expression
}

func (n *FunctionCall) TokenLiteral() string { return n.Name }
func (n *FunctionCall) expressionNode()      {}

// MethodCall is `subject.selector(arguments)`, and is also how every
// operator expression is represented after parsing (Selector holds the
// operator's textual name, e.g. "+", "<=").
type MethodCall struct {
	Subject   Expression
	Selector  string
	Arguments []Expression
}

func (n *MethodCall) TokenLiteral() string { return n.Selector }
func (n *MethodCall) expressionNode()      {}

// ObjectMember is either a FieldDefinition or a MethodDefinition inside an
// ObjectDefinition's body.
type ObjectMember interface {
	Node
	objectMemberNode()
}

// FieldDefinition is `let name = value` when it appears directly inside an
// object body — a field slot rather than a local variable.
type FieldDefinition struct {
	Name  string
	Value Expression
}

func (n *FieldDefinition) TokenLiteral() string { return "let" }
func (n *FieldDefinition) objectMemberNode()    {}

// MethodDefinition is `function name(parameters) -> body` when it appears
// directly inside an object body; the receiver `this` is registered as
// local 0 implicitly.
type MethodDefinition struct {
	Name       string
	Parameters []string
	Body       Expression
}

func (n *MethodDefinition) TokenLiteral() string { return n.Name }
func (n *MethodDefinition) objectMemberNode()    {}

// ObjectDefinition is `object [extends parent] begin members end`. Parent
// is nil when `extends` is absent (the compiler emits `Literal Null` for
// it).
type ObjectDefinition struct {
	Parent  Expression
	Members []ObjectMember
}

func (n *ObjectDefinition) TokenLiteral() string { return "object" }
func (n *ObjectDefinition) expressionNode()      {}

// Block is `begin e1; e2; ...; en end`. Its value is the value of its last
// child expression.
type Block struct {
	Expressions []Expression
}

func (n *Block) TokenLiteral() string { return "begin" }
func (n *Block) expressionNode()      {}

// Print is `print(format, arguments...)`.
type Print struct {
	Format    string
	Arguments []Expression
}

func (n *Print) TokenLiteral() string { return "print" }
func (n *Print) expressionNode()      {}
