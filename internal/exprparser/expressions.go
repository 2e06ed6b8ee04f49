package exprparser

import (
	"fmt"
	"reflect"

	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/reporting"
	"github.com/exprlang/exprlang/internal/token"
)

// The precedence ladder (spec §4.4), low to high: assignment, conditional
// ?:, null-coalesce ??, logical-or, logical-and, bitwise-or, bitwise-xor,
// bitwise-and, equality, relational/type-test, shift, additive,
// multiplicative, unary, cast, postfix, primary.

func (p *Parser) parseAssignment() (exprast.Node, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.ASSIGN {
		return left, nil
	}
	tok := p.cur
	if p.args.AssignPolicy != AssignmentEqualOnly {
		return nil, p.errf("assignment is disabled by the current parser policy")
	}
	lv, ok := left.(exprast.LValue)
	if !ok {
		return nil, reporting.NewParseError(tok.Pos, p.args.Text, "left-hand side of '=' is not assignable")
	}
	if id, ok := left.(*exprast.IdentifierRef); ok {
		ident := p.args.Registry.LookupIdentifier(id.Name)
		if ident != nil && ident.Const {
			return nil, p.errf("cannot assign to constant identifier %q", id.Name)
		}
	}
	p.advance()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if exprtypes.ConversionCost(value.Type(), left.Type()) < 0 {
		return nil, p.errf("cannot assign value of type %s to target of type %s", value.Type(), left.Type())
	}
	return exprast.NewAssign(tok, lv, value), nil
}

func (p *Parser) parseConditional() (exprast.Node, error) {
	cond, err := p.parseNullCoalesce()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.QUESTION {
		return cond, nil
	}
	p.advance()
	thenExpr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, "':'"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	resultType, ok := convergeTypes(thenExpr.Type(), elseExpr.Type())
	if !ok {
		return nil, p.errf("branches of '?:' do not converge to a common type (%s vs %s)", thenExpr.Type(), elseExpr.Type())
	}
	return exprast.NewConditional(cond, thenExpr, elseExpr, resultType), nil
}

// convergeTypes implements spec §4.4's conditional-branch rule: the
// narrower type must implicitly convert to the wider, or they must be
// identical.
func convergeTypes(a, b reflect.Type) (reflect.Type, bool) {
	if a == b {
		return a, true
	}
	// Every value converts implicitly to the top object type.
	if isTopObjectType(b) {
		return b, true
	}
	if isTopObjectType(a) {
		return a, true
	}
	if c := exprtypes.ConversionCost(a, b); c >= 0 && c <= 1 {
		return b, true
	}
	if c := exprtypes.ConversionCost(b, a); c >= 0 && c <= 1 {
		return a, true
	}
	if w := exprtypes.WidestNumeric(a, b); w != nil {
		return w, true
	}
	return nil, false
}

func (p *Parser) parseNullCoalesce() (exprast.Node, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.QUESTION_QUESTION {
		tok := p.cur
		p.advance()
		right, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		resultType, ok := convergeTypes(left.Type(), right.Type())
		if !ok {
			resultType = right.Type()
		}
		left = exprast.NewBinaryAt(tok, exprast.OpNullCoalesce, left, right, resultType)
	}
	return left, nil
}

func (p *Parser) binaryLevel(next func() (exprast.Node, error), ops map[token.Type]exprast.BinaryOp, resultType func(l, r reflect.Type) (reflect.Type, error)) (exprast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur.Type]
		if !ok {
			return left, nil
		}
		tok := p.cur
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		rt, err := resultType(left.Type(), right.Type())
		if err != nil {
			return nil, reporting.NewParseError(tok.Pos, p.args.Text, "%s", err.Error())
		}
		left = exprast.NewBinaryAt(tok, op, left, right, rt)
	}
}

var boolType = reflect.TypeOf(false)

func boolResult(l, r reflect.Type) (reflect.Type, error) { return boolType, nil }

func numericPromote(l, r reflect.Type) (reflect.Type, error) {
	w := exprtypes.WidestNumeric(l, r)
	if w == nil {
		return nil, fmt.Errorf("operator requires numeric operands, got %s and %s", l, r)
	}
	return w, nil
}

func (p *Parser) parseLogicalOr() (exprast.Node, error) {
	return p.binaryLevel(p.parseLogicalAnd, map[token.Type]exprast.BinaryOp{token.OR_OR: exprast.OpOrOr}, boolResult)
}

func (p *Parser) parseLogicalAnd() (exprast.Node, error) {
	return p.binaryLevel(p.parseBitOr, map[token.Type]exprast.BinaryOp{token.AND_AND: exprast.OpAndAnd}, boolResult)
}

func (p *Parser) parseBitOr() (exprast.Node, error) {
	return p.binaryLevel(p.parseBitXor, map[token.Type]exprast.BinaryOp{token.PIPE: exprast.OpBitOr}, numericPromote)
}

func (p *Parser) parseBitXor() (exprast.Node, error) {
	return p.binaryLevel(p.parseBitAnd, map[token.Type]exprast.BinaryOp{token.CARET: exprast.OpBitXor}, numericPromote)
}

func (p *Parser) parseBitAnd() (exprast.Node, error) {
	return p.binaryLevel(p.parseEquality, map[token.Type]exprast.BinaryOp{token.AMP: exprast.OpBitAnd}, numericPromote)
}

func (p *Parser) parseEquality() (exprast.Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.EQ || p.cur.Type == token.NOT_EQ {
		op := exprast.OpEq
		if p.cur.Type == token.NOT_EQ {
			op = exprast.OpNotEq
		}
		tok := p.cur
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		// == and != permit reference equality when operand types are
		// reference-compatible, or standard numeric comparison otherwise
		// (spec §4.4).
		if exprtypes.ConversionCost(left.Type(), right.Type()) < 0 && exprtypes.ConversionCost(right.Type(), left.Type()) < 0 {
			return nil, p.errf("cannot compare incompatible types %s and %s", left.Type(), right.Type())
		}
		left = exprast.NewBinaryAt(tok, op, left, right, boolType)
	}
	return left, nil
}

func (p *Parser) parseRelational() (exprast.Node, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case token.LT, token.LT_EQ, token.GT, token.GT_EQ:
			ops := map[token.Type]exprast.BinaryOp{
				token.LT: exprast.OpLt, token.LT_EQ: exprast.OpLtEq,
				token.GT: exprast.OpGt, token.GT_EQ: exprast.OpGtEq,
			}
			op := ops[p.cur.Type]
			tok := p.cur
			p.advance()
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			if _, err := numericPromote(left.Type(), right.Type()); err != nil {
				return nil, p.errf("%s", err.Error())
			}
			left = exprast.NewBinaryAt(tok, op, left, right, boolType)
		case token.IS:
			tok := p.cur
			p.advance()
			typ, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			left = exprast.NewTypeTest(tok, left, typ)
		case token.AS:
			tok := p.cur
			p.advance()
			typ, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			left = exprast.NewCast(tok, left, typ, false)
		default:
			return left, nil
		}
	}
}

// parseTypeName consumes a single identifier token naming a type registered
// with the parser's registry (spec §4.2) and resolves it to a reflect.Type,
// for use as the right-hand operand of `is`/`as`.
func (p *Parser) parseTypeName() (reflect.Type, error) {
	if p.cur.Type != token.IDENT {
		return nil, p.errf("expected a type name, got %q", p.cur.Literal)
	}
	name := p.cur.Literal
	rt := p.args.Registry.LookupType(name)
	if rt == nil {
		return nil, p.errf("unknown type %q", name)
	}
	p.args.markTypeUsed(name)
	p.advance()
	return rt.HostType, nil
}

func (p *Parser) parseShift() (exprast.Node, error) {
	return p.binaryLevel(p.parseAdditive, map[token.Type]exprast.BinaryOp{
		token.SHL: exprast.OpShl, token.SHR: exprast.OpShr,
	}, numericPromote)
}

func (p *Parser) parseAdditive() (exprast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := exprast.OpAdd
		if p.cur.Type == token.MINUS {
			op = exprast.OpSub
		}
		tok := p.cur
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		var rt reflect.Type
		if op == exprast.OpAdd && (left.Type() == stringType || right.Type() == stringType) {
			rt = stringType // string concatenation
		} else {
			rt, err = numericPromote(left.Type(), right.Type())
			if err != nil {
				return nil, reporting.NewParseError(tok.Pos, p.args.Text, "%s", err.Error())
			}
		}
		left = exprast.NewBinaryAt(tok, op, left, right, rt)
	}
	return left, nil
}

var stringType = reflect.TypeOf("")

func (p *Parser) parseMultiplicative() (exprast.Node, error) {
	return p.binaryLevel(p.parseUnary, map[token.Type]exprast.BinaryOp{
		token.STAR: exprast.OpMul, token.SLASH: exprast.OpDiv, token.PERCENT: exprast.OpMod,
	}, numericPromote)
}
