package exprparser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/hostreflect"
	"github.com/exprlang/exprlang/internal/reporting"
	"github.com/exprlang/exprlang/internal/token"
)

func (p *Parser) parseUnary() (exprast.Node, error) {
	switch p.cur.Type {
	case token.MINUS:
		tok := p.cur
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if _, err := numericPromote(operand.Type(), operand.Type()); err != nil {
			return nil, p.errf("unary '-' requires a numeric operand, got %s", operand.Type())
		}
		return exprast.NewUnary(tok, exprast.OpNeg, operand, operand.Type()), nil
	case token.BANG:
		tok := p.cur
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if operand.Type() != boolType {
			return nil, p.errf("unary '!' requires a bool operand, got %s", operand.Type())
		}
		return exprast.NewUnary(tok, exprast.OpNot, operand, boolType), nil
	case token.TILDE:
		tok := p.cur
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if _, err := numericPromote(operand.Type(), operand.Type()); err != nil {
			return nil, p.errf("unary '~' requires an integer operand, got %s", operand.Type())
		}
		if k := operand.Type().Kind(); k == reflect.Float32 || k == reflect.Float64 {
			return nil, p.errf("unary '~' requires an integer operand, got %s", operand.Type())
		}
		return exprast.NewUnary(tok, exprast.OpBitNot, operand, operand.Type()), nil
	default:
		return p.parseCast()
	}
}

// parseCast tries the `(TypeName)operand` explicit-cast spelling before
// falling through to ordinary postfix/primary parsing, since both begin
// with '(' (spec §4.4).
func (p *Parser) parseCast() (exprast.Node, error) {
	if node, ok, err := p.tryParseCast(); err != nil {
		return nil, err
	} else if ok {
		return node, nil
	}
	return p.parsePostfix()
}

func startsUnaryExpr(t token.Type) bool {
	switch t {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.CHAR,
		token.TRUE, token.FALSE, token.NIL, token.LPAREN,
		token.BANG, token.MINUS, token.TILDE, token.TYPEOF:
		return true
	default:
		return false
	}
}

func (p *Parser) tryParseCast() (exprast.Node, bool, error) {
	if p.cur.Type != token.LPAREN || p.peek.Type != token.IDENT {
		return nil, false, nil
	}
	rt := p.args.Registry.LookupType(p.peek.Literal)
	if rt == nil {
		return nil, false, nil
	}
	snap := p.snapshot()
	tok := p.cur
	typeLit := p.peek.Literal
	p.advance() // cur = type IDENT
	p.advance() // cur = token after type name
	if p.cur.Type != token.RPAREN {
		p.restore(snap)
		return nil, false, nil
	}
	p.advance() // cur = token after ')'
	if !startsUnaryExpr(p.cur.Type) {
		p.restore(snap)
		return nil, false, nil
	}
	p.args.markTypeUsed(typeLit)
	operand, err := p.parseUnary()
	if err != nil {
		return nil, false, err
	}
	return exprast.NewCast(tok, operand, rt.HostType, true), true, nil
}

// parsePostfix handles member access, calls, and indexing, left to right.
func (p *Parser) parsePostfix() (exprast.Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case token.DOT:
			p.advance()
			nameTok, err := p.expect(token.IDENT, "a member name")
			if err != nil {
				return nil, err
			}
			if p.cur.Type == token.LPAREN {
				p.advance()
				args, argTypes, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				left, err = p.bindCall(left, nameTok, args, argTypes)
				if err != nil {
					return nil, err
				}
				continue
			}
			left, err = p.bindMember(left, nameTok)
			if err != nil {
				return nil, err
			}
		case token.LPAREN:
			id, ok := left.(*exprast.IdentifierRef)
			if !ok {
				return left, nil
			}
			ident := p.args.Registry.LookupIdentifier(id.Name)
			if ident == nil || ident.Binding != exprtypes.BindingFunction {
				return left, nil
			}
			tok := p.cur
			p.advance()
			args, argTypes, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			left, err = p.bindFreeCall(tok, ident, args, argTypes)
			if err != nil {
				return nil, err
			}
		case token.LBRACKET:
			tok := p.cur
			p.advance()
			idx, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET, "']'"); err != nil {
				return nil, err
			}
			elemType, err := indexResultType(left.Type())
			if err != nil {
				return nil, p.errf("%s", err.Error())
			}
			left = exprast.NewIndex(tok, left, idx, elemType)
		default:
			return left, nil
		}
	}
}

func indexResultType(receiver reflect.Type) (reflect.Type, error) {
	switch receiver.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return receiver.Elem(), nil
	default:
		return nil, fmt.Errorf("type %s cannot be indexed", receiver)
	}
}

// parseArgList parses a comma-separated argument list up to and including
// the closing ')'; the opening '(' has already been consumed.
func (p *Parser) parseArgList() ([]exprast.Node, []reflect.Type, error) {
	var args []exprast.Node
	var types []reflect.Type
	if p.cur.Type == token.RPAREN {
		p.advance()
		return args, types, nil
	}
	for {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, nil, err
		}
		args = append(args, arg)
		types = append(types, arg.Type())
		if p.cur.Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, nil, err
	}
	return args, types, nil
}

// bindMember resolves `receiver.name` with no call syntax: a static field,
// a zero-argument method used as a property getter, a registered extension
// method, or (last) a dynamic fallback — in that order, since static
// resolution always takes precedence over dynamic (spec §4.4).
func (p *Parser) bindMember(receiver exprast.Node, nameTok token.Token) (exprast.Node, error) {
	name := nameTok.Literal
	rtype, err := p.receiverType(receiver)
	if err != nil {
		return nil, err
	}
	caseInsensitive := p.args.Registry.Comparer().CaseInsensitive()

	for _, m := range p.adapter.ListMembers(rtype, caseInsensitive) {
		if m.Kind != hostreflect.MemberField || !sameMemberName(m.Name, name, caseInsensitive) {
			continue
		}
		return exprast.NewMember(nameTok, m.Type, receiver, m.Name, m.Index, false), nil
	}

	if member, _, ok := p.adapter.ResolveMethod(rtype, name, nil, caseInsensitive); ok {
		out, err := methodReturnType(member, nameTok, p)
		if err != nil {
			return nil, err
		}
		return exprast.NewMember(nameTok, out, receiver, member.Name, nil, true), nil
	}

	if em, ok := matchExtensionZeroArg(p.adapter.ExtensionMethods(rtype), name, caseInsensitive); ok {
		return exprast.NewMember(nameTok, em.ReturnType, receiver, em.Name, nil, true), nil
	}

	if p.adapter.IsDynamicCapable(rtype) || isTopObjectType(rtype) {
		return exprast.NewDynamicGet(nameTok, receiver, name), nil
	}

	return nil, p.errfAt(nameTok, "no member %q on type %s", name, rtype)
}

// isTopObjectType reports whether rtype is the top host-object type (`any` /
// `interface{}` with no methods) that exprast.NewDynamicGet/NewDynamicCall
// assign as the static type of a dynamic node's result (spec §4.5). A
// receiver statically typed this way carries no static member surface, so
// a further `.member` or `.method(...)` on it must also resolve dynamically
// — this is what lets dynamic access chain, e.g. `dyn.Sub.Foo`.
func isTopObjectType(rtype reflect.Type) bool {
	return rtype != nil && rtype.Kind() == reflect.Interface && rtype.NumMethod() == 0
}

// bindCall resolves `receiver.name(args)`: static instance method, then
// extension method, then dynamic fallback (spec §4.4).
func (p *Parser) bindCall(receiver exprast.Node, nameTok token.Token, args []exprast.Node, argTypes []reflect.Type) (exprast.Node, error) {
	name := nameTok.Literal
	rtype, err := p.receiverType(receiver)
	if err != nil {
		return nil, err
	}
	caseInsensitive := p.args.Registry.Comparer().CaseInsensitive()

	if member, _, ok := p.adapter.ResolveMethod(rtype, name, argTypes, caseInsensitive); ok {
		out, err := methodReturnType(member, nameTok, p)
		if err != nil {
			return nil, err
		}
		call := exprast.NewCall(nameTok, out, receiver, member.Name, args)
		call.Method = member.Method
		return call, nil
	}

	if em, ok := matchExtension(p.adapter.ExtensionMethods(rtype), p.adapter, name, argTypes, caseInsensitive); ok {
		call := exprast.NewCall(nameTok, em.ReturnType, receiver, em.Name, args)
		call.Extension = true
		call.FuncValue = em.Func
		return call, nil
	}

	if p.adapter.IsDynamicCapable(rtype) || isTopObjectType(rtype) {
		return exprast.NewDynamicCall(nameTok, receiver, name, args), nil
	}

	return nil, p.errfAt(nameTok, "no matching member %q(%d args) on type %s", name, len(args), rtype)
}

// bindFreeCall resolves a call through a registry Identifier of function
// kind, invoked without a receiver: `ident(args)`.
func (p *Parser) bindFreeCall(tok token.Token, ident *exprtypes.Identifier, args []exprast.Node, argTypes []reflect.Type) (exprast.Node, error) {
	ft := ident.Value.Type()
	if ft.Kind() != reflect.Func {
		return nil, p.errfAt(tok, "identifier %q is not callable", ident.Name)
	}
	if err := checkCallSignature(ft, argTypes, p.adapter); err != nil {
		return nil, p.errfAt(tok, "%s", err.Error())
	}
	var out reflect.Type = reflect.TypeOf((*any)(nil)).Elem()
	if ft.NumOut() > 0 {
		out = ft.Out(0)
	}
	call := exprast.NewCall(tok, out, nil, ident.Name, args)
	call.FuncValue = ident.Value
	return call, nil
}

func checkCallSignature(ft reflect.Type, argTypes []reflect.Type, adapter hostreflect.Adapter) error {
	numIn := ft.NumIn()
	if ft.IsVariadic() {
		if len(argTypes) < numIn-1 {
			return fmt.Errorf("expected at least %d arguments, got %d", numIn-1, len(argTypes))
		}
	} else if len(argTypes) != numIn {
		return fmt.Errorf("expected %d arguments, got %d", numIn, len(argTypes))
	}
	for i, at := range argTypes {
		var pt reflect.Type
		if ft.IsVariadic() && i >= numIn-1 {
			pt = ft.In(numIn - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		if adapter.ConversionCost(at, pt) < 0 {
			return fmt.Errorf("argument %d: cannot convert %s to %s", i+1, at, pt)
		}
	}
	return nil
}

func methodReturnType(m hostreflect.Member, nameTok token.Token, p *Parser) (reflect.Type, error) {
	switch m.Type.NumOut() {
	case 0:
		return nil, p.errfAt(nameTok, "method %q returns no value and cannot be used in an expression", m.Name)
	default:
		return m.Type.Out(0), nil
	}
}

func sameMemberName(have, want string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.EqualFold(have, want)
	}
	return have == want
}

func matchExtensionZeroArg(ems []hostreflect.ExtensionMethod, name string, caseInsensitive bool) (hostreflect.ExtensionMethod, bool) {
	for _, em := range ems {
		if len(em.ParamTypes) == 0 && sameMemberName(em.Name, name, caseInsensitive) {
			return em, true
		}
	}
	return hostreflect.ExtensionMethod{}, false
}

func matchExtension(ems []hostreflect.ExtensionMethod, adapter hostreflect.Adapter, name string, argTypes []reflect.Type, caseInsensitive bool) (hostreflect.ExtensionMethod, bool) {
	bestCost := -1
	found := false
	ambiguous := false
	var best hostreflect.ExtensionMethod
	for _, em := range ems {
		if !sameMemberName(em.Name, name, caseInsensitive) || len(em.ParamTypes) != len(argTypes) {
			continue
		}
		total := 0
		ok := true
		for i, at := range argTypes {
			c := adapter.ConversionCost(at, em.ParamTypes[i])
			if c < 0 {
				ok = false
				break
			}
			total += c
		}
		if !ok {
			continue
		}
		switch {
		case !found || total < bestCost:
			best, bestCost, found, ambiguous = em, total, true, false
		case total == bestCost:
			ambiguous = true
		}
	}
	return best, found && !ambiguous
}

// receiverType resolves the reflect.Type a member/call binds against: a
// TypeRef's aliased host type for `TypeAlias.Member`, or an ordinary node's
// static Type() otherwise.
func (p *Parser) receiverType(receiver exprast.Node) (reflect.Type, error) {
	if tr, ok := receiver.(*exprast.TypeRef); ok {
		rt := p.args.Registry.LookupType(tr.Alias)
		if rt == nil {
			return nil, p.errfAt(tr.Base.Tok, "unknown type %q", tr.Alias)
		}
		return rt.HostType, nil
	}
	if receiver.Type() == nil {
		return nil, p.errf("expression has no static type to resolve a member against")
	}
	return receiver.Type(), nil
}

func (p *Parser) errfAt(tok token.Token, format string, args ...any) error {
	return reporting.NewParseError(tok.Pos, p.args.Text, format, args...)
}

// parsePrimary parses a single atomic expression: a literal, a bare name
// (resolved per spec §4.4's order: lambda param, declared parameter,
// registered identifier, known type alias), or a parenthesised lambda or
// grouped expression.
func (p *Parser) parsePrimary() (exprast.Node, error) {
	switch p.cur.Type {
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.STRING:
		tok := p.cur
		p.advance()
		return exprast.NewConstant(tok, stringType, reflect.ValueOf(tok.Literal)), nil
	case token.CHAR:
		tok := p.cur
		p.advance()
		r := []rune(tok.Literal)
		var v rune
		if len(r) > 0 {
			v = r[0]
		}
		return exprast.NewConstant(tok, reflect.TypeOf(rune(0)), reflect.ValueOf(v)), nil
	case token.TRUE:
		tok := p.cur
		p.advance()
		return exprast.NewConstant(tok, boolType, reflect.ValueOf(true)), nil
	case token.FALSE:
		tok := p.cur
		p.advance()
		return exprast.NewConstant(tok, boolType, reflect.ValueOf(false)), nil
	case token.NIL:
		tok := p.cur
		p.advance()
		anyType := reflect.TypeOf((*any)(nil)).Elem()
		return exprast.NewConstant(tok, anyType, reflect.Zero(anyType)), nil
	case token.IDENT:
		return p.parseIdentifierPrimary()
	case token.LPAREN:
		if node, ok, err := p.tryParseLambda(); err != nil {
			return nil, err
		} else if ok {
			return node, nil
		}
		p.advance()
		inner, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errf("unexpected token %q", p.cur.Literal)
	}
}

func (p *Parser) parseIntLiteral() (exprast.Node, error) {
	tok := p.cur
	p.advance()
	var typ reflect.Type
	var v reflect.Value
	switch tok.IntSuffix {
	case token.IntSuffixI32:
		n, err := strconv.ParseInt(tok.Literal, 10, 32)
		if err != nil {
			return nil, p.errfAt(tok, "invalid integer literal %q", tok.Literal)
		}
		typ, v = reflect.TypeOf(int32(0)), reflect.ValueOf(int32(n))
	case token.IntSuffixU32:
		n, err := strconv.ParseUint(tok.Literal, 10, 32)
		if err != nil {
			return nil, p.errfAt(tok, "invalid integer literal %q", tok.Literal)
		}
		typ, v = reflect.TypeOf(uint32(0)), reflect.ValueOf(uint32(n))
	case token.IntSuffixU64:
		n, err := strconv.ParseUint(tok.Literal, 10, 64)
		if err != nil {
			return nil, p.errfAt(tok, "invalid integer literal %q", tok.Literal)
		}
		typ, v = reflect.TypeOf(uint64(0)), reflect.ValueOf(n)
	default:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, p.errfAt(tok, "invalid integer literal %q", tok.Literal)
		}
		typ, v = reflect.TypeOf(int64(0)), reflect.ValueOf(n)
	}
	return exprast.NewConstant(tok, typ, v), nil
}

func (p *Parser) parseFloatLiteral() (exprast.Node, error) {
	tok := p.cur
	p.advance()
	n, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return nil, p.errfAt(tok, "invalid real literal %q", tok.Literal)
	}
	if tok.RealSuffix == token.RealSuffixSingle {
		return exprast.NewConstant(tok, reflect.TypeOf(float32(0)), reflect.ValueOf(float32(n))), nil
	}
	return exprast.NewConstant(tok, reflect.TypeOf(float64(0)), reflect.ValueOf(n)), nil
}

// parseIdentifierPrimary resolves a bare name: innermost lambda scope
// first, then the top-level declared Parameters, then the registry's
// identifiers, then its type aliases — the first match wins (spec §4.4).
func (p *Parser) parseIdentifierPrimary() (exprast.Node, error) {
	tok := p.cur
	name := tok.Literal
	p.advance()

	for depth := len(p.lambdaScopes) - 1; depth >= 0; depth-- {
		scope := p.lambdaScopes[depth]
		for i, n := range scope.names {
			if n == name {
				fromInnermost := len(p.lambdaScopes) - 1 - depth
				return exprast.NewLambdaParamRef(tok, scope.types[i], name, i, fromInnermost), nil
			}
		}
	}

	for i, param := range p.args.Parameters {
		if param.Name == name {
			p.args.markParamUsed(name)
			return exprast.NewParamRef(tok, param.Type, name, i), nil
		}
	}

	if ident := p.args.Registry.LookupIdentifier(name); ident != nil {
		p.args.markIdentifierUsed(name)
		return exprast.NewIdentifierRef(tok, ident.Type, name), nil
	}

	if rt := p.args.Registry.LookupType(name); rt != nil {
		p.args.markTypeUsed(name)
		return exprast.NewTypeRef(tok, name), nil
	}

	return nil, p.errfAt(tok, "undefined identifier %q", name)
}

// tryParseLambda attempts the `(Type name, ...) => body` spelling. Lambda
// parameters require explicit registered-type annotations; there is no
// single-bare-identifier shorthand (`x => ...`), since nothing in this
// position supplies the parameter's type to infer it from.
func (p *Parser) tryParseLambda() (exprast.Node, bool, error) {
	if p.cur.Type != token.LPAREN {
		return nil, false, nil
	}
	snap := p.snapshot()
	tok := p.cur
	p.advance() // consume '('

	var names []string
	var types []reflect.Type
	var typeAliases []string
	if p.cur.Type != token.RPAREN {
		for {
			if p.cur.Type != token.IDENT {
				p.restore(snap)
				return nil, false, nil
			}
			rt := p.args.Registry.LookupType(p.cur.Literal)
			if rt == nil {
				p.restore(snap)
				return nil, false, nil
			}
			typeAliases = append(typeAliases, p.cur.Literal)
			p.advance()
			if p.cur.Type != token.IDENT {
				p.restore(snap)
				return nil, false, nil
			}
			names = append(names, p.cur.Literal)
			types = append(types, rt.HostType)
			p.advance()
			if p.cur.Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur.Type != token.RPAREN {
		p.restore(snap)
		return nil, false, nil
	}
	p.advance() // consume ')'
	if p.cur.Type != token.ARROW {
		p.restore(snap)
		return nil, false, nil
	}
	p.advance() // consume '=>'

	for _, alias := range typeAliases {
		p.args.markTypeUsed(alias)
	}
	p.lambdaScopes = append(p.lambdaScopes, lambdaScope{names: names, types: types})
	body, err := p.parseAssignment()
	p.lambdaScopes = p.lambdaScopes[:len(p.lambdaScopes)-1]
	if err != nil {
		return nil, true, err
	}

	funcType := reflect.FuncOf(types, []reflect.Type{body.Type()}, false)
	return exprast.NewLambda(tok, names, types, body, funcType), true, nil
}
