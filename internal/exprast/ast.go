// Package exprast defines the Expression Tree (spec §3/§4.5): a tagged,
// statically-typed IR built during parsing, traversed by visitors, and
// lowered by the compiler. Grounded on CWBudde/go-dws's internal/ast node
// shape (TokenLiteral/Pos/String on every node), generalized from a
// statement-and-declaration AST down to pure expressions.
package exprast

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/exprlang/exprlang/internal/token"
)

// Node is the base interface every tree node implements.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Position
	// Type is the node's static result type, fixed once bound.
	Type() reflect.Type
}

type Base struct {
	Tok token.Token
	Typ reflect.Type
}

func (b *Base) TokenLiteral() string { return b.Tok.Literal }
func (b *Base) Pos() token.Position  { return b.Tok.Pos }
func (b *Base) Type() reflect.Type   { return b.Typ }

// Constant is a literal value folded at bind time.
type Constant struct {
	Base
	Value reflect.Value
}

func (c *Constant) String() string { return fmt.Sprintf("%v", c.Value.Interface()) }

// ParamRef refers to a declared Parameter by position.
type ParamRef struct {
	Base
	Name  string
	Index int
}

func (p *ParamRef) String() string { return p.Name }

// IdentifierRef refers to a registered Identifier (variable or function
// value bound in the registry, as opposed to a caller-declared parameter).
type IdentifierRef struct {
	Base
	Name string
}

func (i *IdentifierRef) String() string { return i.Name }
func (i *IdentifierRef) lvalueNode()    {}

// TypeRef is a bare identifier that resolved to a known type alias rather
// than a parameter or identifier (spec §4.4 name resolution order). It is
// only usable as the prefix of a call or member expression — e.g. a static
// member/method lookup against the aliased host type.
type TypeRef struct {
	Base
	Alias string
}

func (t *TypeRef) String() string { return t.Alias }

// LambdaParamRef refers to a Lambda's own parameter by position, scoped to
// that Lambda's Body subtree — distinct from ParamRef, which always refers
// to the top-level Parameters declared for the whole parse (spec §4.4
// lambda scoping: a lambda parameter shadows an outer parameter or
// identifier of the same name for the duration of its body).
type LambdaParamRef struct {
	Base
	Name  string
	Index int
	// Depth is how many enclosing Lambda frames to pop back through to
	// reach the frame this parameter was declared in: 0 is the innermost
	// Lambda currently being evaluated, 1 its immediate enclosing Lambda,
	// and so on — needed because a nested lambda body may reference a
	// parameter captured from an outer lambda rather than its own.
	Depth int
}

func (l *LambdaParamRef) String() string { return l.Name }

// Member is static member access `e.x`: resolved at bind time against e's
// compile-time type because "static precedence is absolute" (spec §4.4).
type Member struct {
	Base
	Receiver Node
	Name     string
	// FieldIndex is the struct field path when Name resolved to a field;
	// nil when it resolved to a zero-argument method/property getter.
	FieldIndex []int
	IsMethod   bool
}

func (m *Member) String() string { return m.Receiver.String() + "." + m.Name }

// Call is a static method invocation `e.f(args)`, or an extension-method
// invocation resolved against a registered type (spec §4.3 capability 4).
type Call struct {
	Base
	Receiver Node // nil for a free function call
	Name     string
	Args     []Node
	// Extension is true when resolution fell through to a registered
	// extension method rather than an instance method (spec §4.4).
	Extension bool
	Method    reflect.Method
	FuncValue reflect.Value // for free functions / extension methods
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	prefix := ""
	if c.Receiver != nil {
		prefix = c.Receiver.String() + "."
	}
	return fmt.Sprintf("%s%s(%s)", prefix, c.Name, strings.Join(args, ", "))
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAndAnd
	OpOrOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpNullCoalesce
)

// Binary is a binary operator expression.
type Binary struct {
	Base
	Op          BinaryOp
	Left, Right Node
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), binaryOpSymbol(b.Op), b.Right.String())
}

func binaryOpSymbol(op BinaryOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpLtEq:
		return "<="
	case OpGt:
		return ">"
	case OpGtEq:
		return ">="
	case OpAndAnd:
		return "&&"
	case OpOrOr:
		return "||"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpNullCoalesce:
		return "??"
	default:
		return "?"
	}
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

// Unary is a unary operator expression.
type Unary struct {
	Base
	Op      UnaryOp
	Operand Node
}

func (u *Unary) String() string {
	sym := map[UnaryOp]string{OpNeg: "-", OpNot: "!", OpBitNot: "~"}[u.Op]
	return sym + u.Operand.String()
}

// Conditional is the ternary `cond ? then : else`.
type Conditional struct {
	Base
	Cond, Then, Else Node
}

func (c *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond.String(), c.Then.String(), c.Else.String())
}

// Cast is an explicit `(Type)expr` conversion, or an `expr as Type`
// type-test cast.
type Cast struct {
	Base
	Operand Node
	Explicit bool // true for `(Type)e`, false for `e as Type`
}

func (c *Cast) String() string {
	if c.Explicit {
		return fmt.Sprintf("(%s)%s", c.Typ, c.Operand.String())
	}
	return fmt.Sprintf("%s as %s", c.Operand.String(), c.Typ)
}

// TypeTest is the `e is Type` boolean test.
type TypeTest struct {
	Base
	Operand  Node
	TestType reflect.Type
}

func (t *TypeTest) String() string { return fmt.Sprintf("%s is %s", t.Operand.String(), t.TestType) }

// Lambda is an inline anonymous function literal.
type Lambda struct {
	Base
	ParamNames []string
	ParamTypes []reflect.Type
	Body       Node
}

func (l *Lambda) String() string {
	return fmt.Sprintf("(%s) => %s", strings.Join(l.ParamNames, ", "), l.Body.String())
}

// DynamicGet is late-bound member access, emitted only when static
// resolution on the receiver's compile-time type fails and that type is
// dynamic-capable (spec §4.4/§4.5). Its static result type is `any`.
type DynamicGet struct {
	Base
	Receiver Node
	Name     string
}

func (d *DynamicGet) String() string { return d.Receiver.String() + "." + d.Name }

// DynamicCall is late-bound method invocation, mirroring DynamicGet.
type DynamicCall struct {
	Base
	Receiver Node
	Name     string
	Args     []Node
}

func (d *DynamicCall) String() string {
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s.%s(%s)", d.Receiver.String(), d.Name, strings.Join(args, ", "))
}

// Index is `e[idx]`.
type Index struct {
	Base
	Receiver, Index_ Node
}

func (ix *Index) String() string { return fmt.Sprintf("%s[%s]", ix.Receiver.String(), ix.Index_.String()) }

// LValue is anything assignment can target: a ParamRef, an IdentifierRef, a
// mutable Member, or an Index node (spec §4.4 assignment rule).
type LValue interface {
	Node
	lvalueNode()
}

func (p *ParamRef) lvalueNode() {}
func (m *Member) lvalueNode()   {}
func (ix *Index) lvalueNode()   {}

// Assign is `lvalue = value`, permitted only when the parser's assignment
// policy allows it (spec §4.4).
type Assign struct {
	Base
	Target LValue
	Value  Node
}

func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.Target.String(), a.Value.String()) }

// New* constructors build each node with its Base filled in; callers outside
// this package cannot set the embedded Base field directly via a struct
// literal (its own fields are exported, but composing it into a literal of
// another package's type requires a constructor), so every node gets one.

func NewBase(tok token.Token, typ reflect.Type) Base { return Base{Tok: tok, Typ: typ} }

// BaseOf derives a Base at the same position as an existing node, with a
// possibly different static type — used when a binary/conditional
// expression's result type differs from its operands'.
func BaseOf(n Node, typ reflect.Type) Base {
	return Base{Tok: token.Token{Literal: n.TokenLiteral(), Pos: n.Pos()}, Typ: typ}
}

// BaseAt builds a Base at tok's position with the given static type —
// used when a node's position should be the operator/keyword token rather
// than an operand's.
func BaseAt(tok token.Token, typ reflect.Type) Base { return Base{Tok: tok, Typ: typ} }

func NewConstant(tok token.Token, typ reflect.Type, v reflect.Value) *Constant {
	return &Constant{Base: NewBase(tok, typ), Value: v}
}

func NewParamRef(tok token.Token, typ reflect.Type, name string, index int) *ParamRef {
	return &ParamRef{Base: NewBase(tok, typ), Name: name, Index: index}
}

func NewIdentifierRef(tok token.Token, typ reflect.Type, name string) *IdentifierRef {
	return &IdentifierRef{Base: NewBase(tok, typ), Name: name}
}

func NewLambdaParamRef(tok token.Token, typ reflect.Type, name string, index, depth int) *LambdaParamRef {
	return &LambdaParamRef{Base: NewBase(tok, typ), Name: name, Index: index, Depth: depth}
}

func NewTypeRef(tok token.Token, alias string) *TypeRef {
	return &TypeRef{Base: NewBase(tok, nil), Alias: alias}
}

func NewMember(tok token.Token, typ reflect.Type, receiver Node, name string, fieldIndex []int, isMethod bool) *Member {
	return &Member{Base: NewBase(tok, typ), Receiver: receiver, Name: name, FieldIndex: fieldIndex, IsMethod: isMethod}
}

func NewCall(tok token.Token, typ reflect.Type, receiver Node, name string, args []Node) *Call {
	return &Call{Base: NewBase(tok, typ), Receiver: receiver, Name: name, Args: args}
}

func NewBinary(op BinaryOp, left, right Node, typ reflect.Type) *Binary {
	return &Binary{Base: BaseOf(left, typ), Op: op, Left: left, Right: right}
}

func NewBinaryAt(tok token.Token, op BinaryOp, left, right Node, typ reflect.Type) *Binary {
	return &Binary{Base: BaseAt(tok, typ), Op: op, Left: left, Right: right}
}

func NewUnary(tok token.Token, op UnaryOp, operand Node, typ reflect.Type) *Unary {
	return &Unary{Base: BaseAt(tok, typ), Op: op, Operand: operand}
}

func NewConditional(cond, then, els Node, typ reflect.Type) *Conditional {
	return &Conditional{Base: BaseOf(cond, typ), Cond: cond, Then: then, Else: els}
}

func NewCast(tok token.Token, operand Node, typ reflect.Type, explicit bool) *Cast {
	return &Cast{Base: BaseAt(tok, typ), Operand: operand, Explicit: explicit}
}

func NewTypeTest(tok token.Token, operand Node, testType reflect.Type) *TypeTest {
	return &TypeTest{Base: BaseAt(tok, boolTypeFallback), Operand: operand, TestType: testType}
}

func NewLambda(tok token.Token, paramNames []string, paramTypes []reflect.Type, body Node, funcType reflect.Type) *Lambda {
	return &Lambda{Base: BaseAt(tok, funcType), ParamNames: paramNames, ParamTypes: paramTypes, Body: body}
}

func NewDynamicGet(tok token.Token, receiver Node, name string) *DynamicGet {
	return &DynamicGet{Base: BaseAt(tok, anyTypeFallback), Receiver: receiver, Name: name}
}

func NewDynamicCall(tok token.Token, receiver Node, name string, args []Node) *DynamicCall {
	return &DynamicCall{Base: BaseAt(tok, anyTypeFallback), Receiver: receiver, Name: name, Args: args}
}

func NewIndex(tok token.Token, receiver, index Node, typ reflect.Type) *Index {
	return &Index{Base: BaseAt(tok, typ), Receiver: receiver, Index_: index}
}

func NewAssign(tok token.Token, target LValue, value Node) *Assign {
	return &Assign{Base: BaseAt(tok, target.Type()), Target: target, Value: value}
}

var (
	boolTypeFallback = reflect.TypeOf(false)
	anyTypeFallback  = reflect.TypeOf((*any)(nil)).Elem()
)
