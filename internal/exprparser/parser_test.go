package exprparser

import (
	"reflect"
	"testing"

	"github.com/exprlang/exprlang/internal/dynbag"
	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/hostreflect"
)

type point struct {
	X, Y int64
}

func (p point) Dist() int64 { return p.X + p.Y }

func newTestArgs(text string) *Arguments {
	reg := exprtypes.New(false)
	reg.Seed(exprtypes.SeedPrimitiveAliases, exprtypes.SeedLiteralIdentifiers)
	reg.RegisterType("Point", reflect.TypeOf(point{}))
	reg.RegisterType("Bag", reflect.TypeOf(dynbag.Bag{}))
	return &Arguments{
		Text:     text,
		Registry: reg,
		Parameters: []exprtypes.Parameter{
			{Name: "x", Type: reflect.TypeOf(int64(0))},
			{Name: "p", Type: reflect.TypeOf(point{})},
		},
	}
}

func parse(t *testing.T, text string) exprast.Node {
	t.Helper()
	args := newTestArgs(text)
	p := New(args, hostreflect.NewGoAdapter())
	node, err := p.ParseExpression()
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return node
}

func TestArithmeticPrecedence(t *testing.T) {
	node := parse(t, "1 + 2 * 3")
	b, ok := node.(*exprast.Binary)
	if !ok || b.Op != exprast.OpAdd {
		t.Fatalf("expected top-level '+', got %#v", node)
	}
	rhs, ok := b.Right.(*exprast.Binary)
	if !ok || rhs.Op != exprast.OpMul {
		t.Fatalf("expected right side to be '*', got %#v", b.Right)
	}
}

func TestConditionalTernary(t *testing.T) {
	node := parse(t, "x > 0 ? 1 : 2")
	c, ok := node.(*exprast.Conditional)
	if !ok {
		t.Fatalf("expected *Conditional, got %#v", node)
	}
	if c.Type() != reflect.TypeOf(int64(0)) {
		t.Fatalf("expected int64 result, got %s", c.Type())
	}
}

func TestParamReference(t *testing.T) {
	node := parse(t, "x")
	pr, ok := node.(*exprast.ParamRef)
	if !ok || pr.Name != "x" || pr.Index != 0 {
		t.Fatalf("expected ParamRef(x,0), got %#v", node)
	}
}

func TestStaticMemberAccess(t *testing.T) {
	node := parse(t, "p.X")
	m, ok := node.(*exprast.Member)
	if !ok || m.Name != "X" || m.IsMethod {
		t.Fatalf("expected static field Member(X), got %#v", node)
	}
}

func TestStaticMethodCall(t *testing.T) {
	node := parse(t, "p.Dist()")
	c, ok := node.(*exprast.Call)
	if !ok || c.Name != "Dist" || c.Type() != reflect.TypeOf(int64(0)) {
		t.Fatalf("expected Call(Dist)->int64, got %#v", node)
	}
}

func TestUndefinedIdentifierIsParseError(t *testing.T) {
	args := newTestArgs("nope")
	p := New(args, hostreflect.NewGoAdapter())
	if _, err := p.ParseExpression(); err == nil {
		t.Fatal("expected a ParseError for an undefined identifier")
	}
}

func TestCastExpression(t *testing.T) {
	node := parse(t, "(float)x")
	c, ok := node.(*exprast.Cast)
	if !ok || !c.Explicit || c.Type() != reflect.TypeOf(float64(0)) {
		t.Fatalf("expected explicit cast to float64, got %#v", node)
	}
}

func TestLambdaLiteral(t *testing.T) {
	node := parse(t, "(int a, int b) => a + b")
	l, ok := node.(*exprast.Lambda)
	if !ok {
		t.Fatalf("expected *Lambda, got %#v", node)
	}
	if len(l.ParamNames) != 2 || l.ParamNames[0] != "a" || l.ParamNames[1] != "b" {
		t.Fatalf("unexpected lambda params: %v", l.ParamNames)
	}
	bin, ok := l.Body.(*exprast.Binary)
	if !ok || bin.Op != exprast.OpAdd {
		t.Fatalf("expected lambda body 'a + b', got %#v", l.Body)
	}
}

func TestAssignmentDisabledByDefault(t *testing.T) {
	args := newTestArgs("x = 1")
	p := New(args, hostreflect.NewGoAdapter())
	if _, err := p.ParseExpression(); err == nil {
		t.Fatal("expected assignment to be rejected when AssignPolicy is AssignmentNone")
	}
}

func TestAssignmentEnabled(t *testing.T) {
	args := newTestArgs("x = 1")
	args.AssignPolicy = AssignmentEqualOnly
	p := New(args, hostreflect.NewGoAdapter())
	node, err := p.ParseExpression()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(*exprast.Assign); !ok {
		t.Fatalf("expected *Assign, got %#v", node)
	}
}

func TestDynamicMemberFallsBackWhenTypeIsDynamicCapable(t *testing.T) {
	reg := exprtypes.New(false)
	reg.Seed(exprtypes.SeedPrimitiveAliases)
	args := &Arguments{
		Text:     "b.Whatever",
		Registry: reg,
		Parameters: []exprtypes.Parameter{
			{Name: "b", Type: reflect.TypeOf(dynbag.Bag{})},
		},
	}
	p := New(args, hostreflect.NewGoAdapter())
	node, err := p.ParseExpression()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(*exprast.DynamicGet); !ok {
		t.Fatalf("expected *DynamicGet fallback, got %#v", node)
	}
}

func TestUsedParametersAndTypesAreTracked(t *testing.T) {
	args := newTestArgs("(float)x + p.X")
	p := New(args, hostreflect.NewGoAdapter())
	if _, err := p.ParseExpression(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args.UsedParameters) != 2 {
		t.Fatalf("expected both x and p tracked as used, got %v", args.UsedParameters)
	}
	if len(args.UsedTypes) != 1 || args.UsedTypes[0] != "float" {
		t.Fatalf("expected float tracked as used, got %v", args.UsedTypes)
	}
}
