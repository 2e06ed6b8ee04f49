// Package exprparser is the Parser / Semantic Binder (spec §4.4): a
// recursive-descent parser that binds names and produces a typed
// expression tree as it parses. Grounded on CWBudde/go-dws's
// internal/parser (precedence-table recursive descent, structured
// ParseError with position) and internal/semantic (name resolution,
// overload selection) — here merged into a single pass, since the spec's
// expression-only core binds as it parses rather than in a later phase.
package exprparser

import (
	"reflect"

	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/hostreflect"
	"github.com/exprlang/exprlang/internal/lexer"
	"github.com/exprlang/exprlang/internal/reporting"
	"github.com/exprlang/exprlang/internal/token"
)

// AssignmentPolicy gates whether `=` may appear in an expression (spec §6
// enable-assignment operation).
type AssignmentPolicy int

const (
	AssignmentNone AssignmentPolicy = iota
	AssignmentEqualOnly
)

// Arguments is ParserArguments (spec §3): per-parse state, including the
// accumulators the parser fills in as it binds names, so the resulting
// Lambda can report exactly which parameters/types/identifiers were used.
type Arguments struct {
	Text         string
	Registry     *exprtypes.Registry
	ExpectedType reflect.Type
	Parameters   []exprtypes.Parameter
	AssignPolicy AssignmentPolicy

	UsedParameters  []string
	UsedTypes       []string
	UsedIdentifiers []string
}

func (a *Arguments) markParamUsed(name string) {
	for _, n := range a.UsedParameters {
		if n == name {
			return
		}
	}
	a.UsedParameters = append(a.UsedParameters, name)
}

func (a *Arguments) markTypeUsed(name string) {
	for _, n := range a.UsedTypes {
		if n == name {
			return
		}
	}
	a.UsedTypes = append(a.UsedTypes, name)
}

func (a *Arguments) markIdentifierUsed(name string) {
	for _, n := range a.UsedIdentifiers {
		if n == name {
			return
		}
	}
	a.UsedIdentifiers = append(a.UsedIdentifiers, name)
}

// lambdaScope is one level of lambda-parameter shadowing (spec §4.4 lambda
// scoping). Parser.lambdaScopes is searched innermost-first during bare
// identifier resolution, ahead of the top-level Parameters and registry.
type lambdaScope struct {
	names []string
	types []reflect.Type
}

// Parser binds args.Text into an exprast.Node tree.
type Parser struct {
	lex     *lexer.Lexer
	adapter hostreflect.Adapter
	args    *Arguments

	cur, peek token.Token

	lambdaScopes []lambdaScope
}

// parserSnapshot captures enough Parser state to backtrack a speculative
// parse (cast-vs-grouped-expression, lambda-vs-grouped-expression).
type parserSnapshot struct {
	lex  lexer.State
	cur  token.Token
	peek token.Token
}

func (p *Parser) snapshot() parserSnapshot {
	return parserSnapshot{lex: p.lex.Save(), cur: p.cur, peek: p.peek}
}

func (p *Parser) restore(s parserSnapshot) {
	p.lex.Restore(s.lex)
	p.cur, p.peek = s.cur, s.peek
}

// New creates a Parser over args, using adapter for all host-type queries.
func New(args *Arguments, adapter hostreflect.Adapter) *Parser {
	p := &Parser{lex: lexer.New(args.Text), adapter: adapter, args: args}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) errf(format string, args ...any) *reporting.ParseError {
	return reporting.NewParseError(p.cur.Pos, p.args.Text, format, args...)
}

// ParseExpression parses the full input as a single expression and returns
// the bound tree, or the first ParseError encountered.
func (p *Parser) ParseExpression() (exprast.Node, error) {
	if len(p.lex.Errors()) > 0 {
		e := p.lex.Errors()[0]
		return nil, reporting.NewParseError(e.Pos, p.args.Text, "%s", e.Message)
	}
	node, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, p.errf("unexpected token %q after expression", p.cur.Literal)
	}
	if p.args.ExpectedType != nil {
		cost := exprtypes.ConversionCost(node.Type(), p.args.ExpectedType)
		if cost < 0 {
			return nil, reporting.NewParseError(node.Pos(), p.args.Text,
				"expression of type %s does not convert to expected type %s", node.Type(), p.args.ExpectedType)
		}
	}
	return node, nil
}

func (p *Parser) expect(t token.Type, what string) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, p.errf("expected %s, got %q", what, p.cur.Literal)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}
