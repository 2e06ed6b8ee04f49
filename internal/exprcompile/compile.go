// Package exprcompile is the Compiler/Invoker (spec §4.6/§4.7): it walks a
// bound exprast.Node tree against a concrete argument vector, either once
// (untyped Invoke) or repeatedly behind a reflect.MakeFunc-built typed
// delegate. Grounded on CWBudde/go-dws's internal/interp tree-walking
// Eval/exec dispatch over the AST, and marshal.go's value boxing/unboxing
// across the reflect boundary.
package exprcompile

import (
	"fmt"
	"math"
	"reflect"

	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/hostreflect"
	"github.com/exprlang/exprlang/internal/reporting"
)

var (
	stringType = reflect.TypeOf("")
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	anyType    = reflect.TypeOf((*any)(nil)).Elem()
)

// Evaluator walks a single bound tree. lambdaFrames holds the argument
// vector of each Lambda currently being applied, innermost last, so a
// LambdaParamRef can index back through nested lambda applications.
type Evaluator struct {
	adapter      hostreflect.Adapter
	registry     *exprtypes.Registry
	lambdaFrames [][]reflect.Value
}

// NewEvaluator builds an Evaluator over adapter and registry, the same pair
// the Parser bound the tree against.
func NewEvaluator(adapter hostreflect.Adapter, registry *exprtypes.Registry) *Evaluator {
	return &Evaluator{adapter: adapter, registry: registry}
}

// Eval evaluates node against params, the concrete values of the parse's
// top-level Parameters in declaration order.
func (e *Evaluator) Eval(node exprast.Node, params []reflect.Value) (reflect.Value, error) {
	return e.eval(node, params)
}

func (e *Evaluator) eval(node exprast.Node, params []reflect.Value) (reflect.Value, error) {
	switch n := node.(type) {
	case *exprast.Constant:
		return n.Value, nil
	case *exprast.ParamRef:
		return params[n.Index], nil
	case *exprast.LambdaParamRef:
		frame := e.lambdaFrames[len(e.lambdaFrames)-1-n.Depth]
		return frame[n.Index], nil
	case *exprast.IdentifierRef:
		return e.evalIdentifier(n)
	case *exprast.TypeRef:
		return reflect.Value{}, fmt.Errorf("type %q used as a value", n.Alias)
	case *exprast.Unary:
		return e.evalUnary(n, params)
	case *exprast.Binary:
		return e.evalBinary(n, params)
	case *exprast.Conditional:
		return e.evalConditional(n, params)
	case *exprast.Cast:
		return e.evalCast(n, params)
	case *exprast.TypeTest:
		return e.evalTypeTest(n, params)
	case *exprast.Member:
		return e.evalMember(n, params)
	case *exprast.Call:
		return e.evalCall(n, params)
	case *exprast.DynamicGet:
		return e.evalDynamicGet(n, params)
	case *exprast.DynamicCall:
		return e.evalDynamicCall(n, params)
	case *exprast.Index:
		return e.evalIndex(n, params)
	case *exprast.Lambda:
		return e.evalLambda(n, params)
	case *exprast.Assign:
		return e.evalAssign(n, params)
	default:
		return reflect.Value{}, fmt.Errorf("exprcompile: unhandled node type %T", node)
	}
}

func (e *Evaluator) evalIdentifier(n *exprast.IdentifierRef) (reflect.Value, error) {
	id := e.registry.LookupIdentifier(n.Name)
	if id == nil {
		return reflect.Value{}, fmt.Errorf("identifier %q is not registered", n.Name)
	}
	if id.Binding == exprtypes.BindingVariable {
		return id.Value.Elem(), nil
	}
	return id.Value, nil
}

func (e *Evaluator) evalUnary(n *exprast.Unary, params []reflect.Value) (reflect.Value, error) {
	v, err := e.eval(n.Operand, params)
	if err != nil {
		return reflect.Value{}, err
	}
	switch n.Op {
	case exprast.OpNot:
		return reflect.ValueOf(!v.Bool()), nil
	case exprast.OpNeg:
		return negate(v), nil
	case exprast.OpBitNot:
		return bitnot(v), nil
	default:
		return reflect.Value{}, fmt.Errorf("exprcompile: unknown unary operator")
	}
}

func negate(v reflect.Value) reflect.Value {
	switch {
	case isFloatKind(v.Kind()):
		return reflect.ValueOf(-v.Float()).Convert(v.Type())
	case isUnsignedKind(v.Kind()):
		return reflect.ValueOf(-v.Uint()).Convert(v.Type())
	default:
		return reflect.ValueOf(-v.Int()).Convert(v.Type())
	}
}

func bitnot(v reflect.Value) reflect.Value {
	if isUnsignedKind(v.Kind()) {
		return reflect.ValueOf(^v.Uint()).Convert(v.Type())
	}
	return reflect.ValueOf(^v.Int()).Convert(v.Type())
}

func (e *Evaluator) evalBinary(n *exprast.Binary, params []reflect.Value) (reflect.Value, error) {
	lv, err := e.eval(n.Left, params)
	if err != nil {
		return reflect.Value{}, err
	}
	if n.Op == exprast.OpAndAnd && !lv.Bool() {
		return reflect.ValueOf(false), nil
	}
	if n.Op == exprast.OpOrOr && lv.Bool() {
		return reflect.ValueOf(true), nil
	}
	rv, err := e.eval(n.Right, params)
	if err != nil {
		return reflect.Value{}, err
	}

	switch n.Op {
	case exprast.OpAndAnd:
		return reflect.ValueOf(lv.Bool() && rv.Bool()), nil
	case exprast.OpOrOr:
		return reflect.ValueOf(lv.Bool() || rv.Bool()), nil
	case exprast.OpNullCoalesce:
		if isNilish(lv) {
			return rv, nil
		}
		return lv, nil
	case exprast.OpEq, exprast.OpNotEq:
		eq := valuesEqual(lv, rv)
		if n.Op == exprast.OpNotEq {
			eq = !eq
		}
		return reflect.ValueOf(eq), nil
	case exprast.OpLt, exprast.OpLtEq, exprast.OpGt, exprast.OpGtEq:
		ct := operandCommonType(n.Left.Type(), n.Right.Type())
		return compareNumeric(n.Op, lv.Convert(ct), rv.Convert(ct)), nil
	case exprast.OpAdd:
		if n.Type() == stringType {
			return reflect.ValueOf(toConcatString(lv) + toConcatString(rv)), nil
		}
		return arith(n.Op, lv.Convert(n.Type()), rv.Convert(n.Type()))
	default:
		return arith(n.Op, lv.Convert(n.Type()), rv.Convert(n.Type()))
	}
}

func isNilish(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func valuesEqual(a, b reflect.Value) bool {
	if isNumeric(a.Kind()) && isNumeric(b.Kind()) {
		ct := operandCommonType(a.Type(), b.Type())
		return compareNumeric(exprast.OpEq, a.Convert(ct), b.Convert(ct)).Bool()
	}
	if !a.IsValid() || !b.IsValid() {
		return !a.IsValid() && !b.IsValid()
	}
	return a.Interface() == b.Interface()
}

func operandCommonType(l, r reflect.Type) reflect.Type {
	if l == r {
		return l
	}
	if w := exprtypes.WidestNumeric(l, r); w != nil {
		return w
	}
	return l
}

func compareNumeric(op exprast.BinaryOp, a, b reflect.Value) reflect.Value {
	var cmp int
	switch {
	case isFloatKind(a.Kind()):
		af, bf := a.Float(), b.Float()
		cmp = compareOrdered(af, bf)
	case isUnsignedKind(a.Kind()):
		au, bu := a.Uint(), b.Uint()
		cmp = compareOrdered(au, bu)
	default:
		ai, bi := a.Int(), b.Int()
		cmp = compareOrdered(ai, bi)
	}
	switch op {
	case exprast.OpLt:
		return reflect.ValueOf(cmp < 0)
	case exprast.OpLtEq:
		return reflect.ValueOf(cmp <= 0)
	case exprast.OpGt:
		return reflect.ValueOf(cmp > 0)
	case exprast.OpGtEq:
		return reflect.ValueOf(cmp >= 0)
	default: // OpEq, used by valuesEqual's numeric fast path
		return reflect.ValueOf(cmp == 0)
	}
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func arith(op exprast.BinaryOp, a, b reflect.Value) (reflect.Value, error) {
	t := a.Type()
	switch {
	case isFloatKind(t.Kind()):
		af, bf := a.Float(), b.Float()
		var r float64
		switch op {
		case exprast.OpAdd:
			r = af + bf
		case exprast.OpSub:
			r = af - bf
		case exprast.OpMul:
			r = af * bf
		case exprast.OpDiv:
			if bf == 0 {
				return reflect.Value{}, &reporting.InvocationError{Cause: fmt.Errorf("division by zero")}
			}
			r = af / bf
		case exprast.OpMod:
			r = math.Mod(af, bf)
		}
		return reflect.ValueOf(r).Convert(t), nil
	case isUnsignedKind(t.Kind()):
		au, bu := a.Uint(), b.Uint()
		var r uint64
		switch op {
		case exprast.OpAdd:
			r = au + bu
		case exprast.OpSub:
			r = au - bu
		case exprast.OpMul:
			r = au * bu
		case exprast.OpDiv, exprast.OpMod:
			if bu == 0 {
				return reflect.Value{}, &reporting.InvocationError{Cause: fmt.Errorf("division by zero")}
			}
			if op == exprast.OpDiv {
				r = au / bu
			} else {
				r = au % bu
			}
		case exprast.OpBitAnd:
			r = au & bu
		case exprast.OpBitOr:
			r = au | bu
		case exprast.OpBitXor:
			r = au ^ bu
		case exprast.OpShl:
			r = au << bu
		case exprast.OpShr:
			r = au >> bu
		}
		return reflect.ValueOf(r).Convert(t), nil
	default:
		ai, bi := a.Int(), b.Int()
		var r int64
		switch op {
		case exprast.OpAdd:
			r = ai + bi
		case exprast.OpSub:
			r = ai - bi
		case exprast.OpMul:
			r = ai * bi
		case exprast.OpDiv, exprast.OpMod:
			if bi == 0 {
				return reflect.Value{}, &reporting.InvocationError{Cause: fmt.Errorf("division by zero")}
			}
			if op == exprast.OpDiv {
				r = ai / bi
			} else {
				r = ai % bi
			}
		case exprast.OpBitAnd:
			r = ai & bi
		case exprast.OpBitOr:
			r = ai | bi
		case exprast.OpBitXor:
			r = ai ^ bi
		case exprast.OpShl:
			r = ai << uint64(bi)
		case exprast.OpShr:
			r = ai >> uint64(bi)
		}
		return reflect.ValueOf(r).Convert(t), nil
	}
}

func toConcatString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isFloatKind(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }
func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (e *Evaluator) evalConditional(n *exprast.Conditional, params []reflect.Value) (reflect.Value, error) {
	c, err := e.eval(n.Cond, params)
	if err != nil {
		return reflect.Value{}, err
	}
	branch := n.Else
	if c.Bool() {
		branch = n.Then
	}
	v, err := e.eval(branch, params)
	if err != nil {
		return reflect.Value{}, err
	}
	return convertIfNeeded(v, n.Type()), nil
}

func convertIfNeeded(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() || v.Type() == t {
		return v
	}
	if v.Type().ConvertibleTo(t) {
		return v.Convert(t)
	}
	return v
}

func (e *Evaluator) evalCast(n *exprast.Cast, params []reflect.Value) (reflect.Value, error) {
	v, err := e.eval(n.Operand, params)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Type() == n.Type() {
		return v, nil
	}
	if v.Type().ConvertibleTo(n.Type()) {
		return v.Convert(n.Type()), nil
	}
	if !n.Explicit {
		// `as` on an inconvertible value yields the zero value rather
		// than failing. Binding does not check cast convertibility, so an
		// explicit cast between inconvertible types fails only here.
		return reflect.Zero(n.Type()), nil
	}
	return reflect.Value{}, &reporting.InvocationError{Cause: fmt.Errorf("cannot convert %s to %s", v.Type(), n.Type())}
}

func (e *Evaluator) evalTypeTest(n *exprast.TypeTest, params []reflect.Value) (reflect.Value, error) {
	v, err := e.eval(n.Operand, params)
	if err != nil {
		return reflect.Value{}, err
	}
	ok := v.IsValid() && v.Type().AssignableTo(n.TestType)
	if !ok && v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		ok = v.Elem().Type().AssignableTo(n.TestType)
	}
	return reflect.ValueOf(ok), nil
}

// addressable returns a settable/addressable copy of v suitable for
// MethodByName on a pointer receiver or field/dynamic-member access,
// without mutating the caller's original value.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Elem()
}

func (e *Evaluator) evalMember(n *exprast.Member, params []reflect.Value) (reflect.Value, error) {
	recv, err := e.eval(n.Receiver, params)
	if err != nil {
		return reflect.Value{}, err
	}
	if n.IsMethod {
		return e.callMethodByName(recv, n.Name, nil)
	}
	v := addressable(recv)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v.FieldByIndex(n.FieldIndex), nil
}

func (e *Evaluator) callMethodByName(recv reflect.Value, name string, args []reflect.Value) (reflect.Value, error) {
	m := recv.MethodByName(name)
	if !m.IsValid() {
		m = addressable(recv).Addr().MethodByName(name)
	}
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("method %q not found at invocation time", name)
	}
	out := m.Call(convertArgs(m.Type(), args))
	return unwrapCallResult(name, out)
}

func unwrapCallResult(name string, out []reflect.Value) (reflect.Value, error) {
	switch len(out) {
	case 0:
		return reflect.Value{}, fmt.Errorf("method %q returns no value", name)
	case 1:
		return out[0], nil
	default:
		last := out[len(out)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return reflect.Value{}, &reporting.InvocationError{Cause: last.Interface().(error)}
		}
		return out[0], nil
	}
}

func convertArgs(ft reflect.Type, args []reflect.Value) []reflect.Value {
	out := make([]reflect.Value, len(args))
	numIn := ft.NumIn()
	for i, a := range args {
		var pt reflect.Type
		switch {
		case ft.IsVariadic() && i >= numIn-1:
			pt = ft.In(numIn - 1).Elem()
		case i < numIn:
			pt = ft.In(i)
		default:
			out[i] = a
			continue
		}
		if a.Type() != pt && a.Type().ConvertibleTo(pt) {
			out[i] = a.Convert(pt)
		} else {
			out[i] = a
		}
	}
	return out
}

func (e *Evaluator) evalArgs(nodes []exprast.Node, params []reflect.Value) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(nodes))
	for i, n := range nodes {
		v, err := e.eval(n, params)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) evalCall(n *exprast.Call, params []reflect.Value) (reflect.Value, error) {
	args, err := e.evalArgs(n.Args, params)
	if err != nil {
		return reflect.Value{}, err
	}
	switch {
	case n.Receiver == nil:
		out := n.FuncValue.Call(convertArgs(n.FuncValue.Type(), args))
		return unwrapCallResult(n.Name, out)
	case n.Extension:
		recv, err := e.eval(n.Receiver, params)
		if err != nil {
			return reflect.Value{}, err
		}
		full := append([]reflect.Value{recv}, args...)
		out := n.FuncValue.Call(convertArgs(n.FuncValue.Type(), full))
		return unwrapCallResult(n.Name, out)
	default:
		recv, err := e.eval(n.Receiver, params)
		if err != nil {
			return reflect.Value{}, err
		}
		return e.callMethodByName(recv, n.Name, args)
	}
}

// dynamicInstance adapts an evaluated receiver into the `any` ProbeDynamicMember
// expects. A pointer-kind value already is the instance a prior dynamic lookup
// produced (e.g. the nested `dyn.Sub` in `dyn.Sub.Foo`) and must be forwarded
// as-is; wrapping it again would take the address of the pointer itself and
// yield a value DynamicObject isn't implemented on.
func dynamicInstance(v reflect.Value) any {
	if v.IsValid() && v.Kind() == reflect.Ptr {
		return v.Interface()
	}
	return addressable(v).Addr().Interface()
}

func (e *Evaluator) evalDynamicGet(n *exprast.DynamicGet, params []reflect.Value) (reflect.Value, error) {
	recv, err := e.eval(n.Receiver, params)
	if err != nil {
		return reflect.Value{}, err
	}
	val, ok := e.adapter.ProbeDynamicMember(dynamicInstance(recv), n.Name)
	if !ok {
		return reflect.Value{}, reporting.NewDynamicBindingError(n.Name, nil)
	}
	if val == nil {
		return reflect.Zero(anyType), nil
	}
	return reflect.ValueOf(val), nil
}

func (e *Evaluator) evalDynamicCall(n *exprast.DynamicCall, params []reflect.Value) (reflect.Value, error) {
	recv, err := e.eval(n.Receiver, params)
	if err != nil {
		return reflect.Value{}, err
	}
	val, ok := e.adapter.ProbeDynamicMember(dynamicInstance(recv), n.Name)
	if !ok {
		return reflect.Value{}, reporting.NewDynamicBindingError(n.Name, nil)
	}
	fn, ok := val.(func(args ...any) (any, error))
	if !ok {
		return reflect.Value{}, reporting.NewDynamicBindingError(n.Name, fmt.Errorf("dynamic member is not callable"))
	}
	argVals, err := e.evalArgs(n.Args, params)
	if err != nil {
		return reflect.Value{}, err
	}
	goArgs := make([]any, len(argVals))
	for i, a := range argVals {
		goArgs[i] = a.Interface()
	}
	res, err := fn(goArgs...)
	if err != nil {
		return reflect.Value{}, &reporting.InvocationError{Cause: err}
	}
	if res == nil {
		return reflect.Zero(anyType), nil
	}
	return reflect.ValueOf(res), nil
}

func (e *Evaluator) evalIndex(n *exprast.Index, params []reflect.Value) (reflect.Value, error) {
	recv, err := e.eval(n.Receiver, params)
	if err != nil {
		return reflect.Value{}, err
	}
	idx, err := e.eval(n.Index_, params)
	if err != nil {
		return reflect.Value{}, err
	}
	switch recv.Kind() {
	case reflect.Slice, reflect.Array:
		i := int(idx.Int())
		if i < 0 || i >= recv.Len() {
			return reflect.Value{}, &reporting.InvocationError{Cause: fmt.Errorf("index %d out of range (len %d)", i, recv.Len())}
		}
		return recv.Index(i), nil
	case reflect.Map:
		v := recv.MapIndex(idx)
		if !v.IsValid() {
			return reflect.Zero(recv.Type().Elem()), nil
		}
		return v, nil
	default:
		return reflect.Value{}, fmt.Errorf("type %s cannot be indexed", recv.Type())
	}
}

func (e *Evaluator) evalLambda(n *exprast.Lambda, params []reflect.Value) (reflect.Value, error) {
	funcType := reflect.FuncOf(n.ParamTypes, []reflect.Type{n.Body.Type()}, false)
	captured := append([][]reflect.Value{}, e.lambdaFrames...)
	fn := reflect.MakeFunc(funcType, func(args []reflect.Value) []reflect.Value {
		inner := &Evaluator{adapter: e.adapter, registry: e.registry, lambdaFrames: append(captured, args)}
		v, err := inner.eval(n.Body, params)
		if err != nil {
			panic(err)
		}
		return []reflect.Value{v}
	})
	return fn, nil
}

func (e *Evaluator) evalAssign(n *exprast.Assign, params []reflect.Value) (reflect.Value, error) {
	v, err := e.eval(n.Value, params)
	if err != nil {
		return reflect.Value{}, err
	}
	v = convertIfNeeded(v, n.Target.Type())

	switch t := n.Target.(type) {
	case *exprast.ParamRef:
		if !params[t.Index].CanSet() {
			return reflect.Value{}, fmt.Errorf("parameter %q is not assignable in this invocation", t.Name)
		}
		params[t.Index].Set(v)
	case *exprast.Member:
		recv, err := e.eval(t.Receiver, params)
		if err != nil {
			return reflect.Value{}, err
		}
		recv = addressable(recv)
		for recv.Kind() == reflect.Ptr {
			recv = recv.Elem()
		}
		recv.FieldByIndex(t.FieldIndex).Set(v)
	case *exprast.Index:
		recv, err := e.eval(t.Receiver, params)
		if err != nil {
			return reflect.Value{}, err
		}
		idx, err := e.eval(t.Index_, params)
		if err != nil {
			return reflect.Value{}, err
		}
		switch recv.Kind() {
		case reflect.Slice, reflect.Array:
			recv.Index(int(idx.Int())).Set(v)
		case reflect.Map:
			recv.SetMapIndex(idx, v)
		default:
			return reflect.Value{}, fmt.Errorf("type %s cannot be indexed for assignment", recv.Type())
		}
	case *exprast.IdentifierRef:
		id := e.registry.LookupIdentifier(t.Name)
		if id == nil || id.Binding != exprtypes.BindingVariable {
			return reflect.Value{}, fmt.Errorf("identifier %q is not an assignable variable", t.Name)
		}
		id.Value.Elem().Set(v)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported assignment target %T", n.Target)
	}
	return v, nil
}

// Invoker runs a bound tree against concrete argument values, the shared
// path behind both untyped Invoke and a reflect.MakeFunc-built typed
// delegate (spec §4.6/§4.7 Lambda capability).
type Invoker struct {
	Tree       exprast.Node
	ParamTypes []reflect.Type
	Adapter    hostreflect.Adapter
	Registry   *exprtypes.Registry
}

// Invoke evaluates Tree against args, converting each to its declared
// parameter type and giving it its own addressable cell so an in-expression
// assignment (`x = ...`) is visible to later reads within the same call.
// Panics raised by a nested lambda body's evaluation are recovered here and
// reported as an InvocationError.
func (inv *Invoker) Invoke(args ...any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &reporting.InvocationError{Cause: e}
				return
			}
			err = &reporting.InvocationError{Cause: fmt.Errorf("%v", r)}
		}
	}()
	if len(args) != len(inv.ParamTypes) {
		return nil, reporting.NewConfigurationError("expected %d arguments, got %d", len(inv.ParamTypes), len(args))
	}
	params := make([]reflect.Value, len(args))
	for i, a := range args {
		cell := reflect.New(inv.ParamTypes[i]).Elem()
		if a != nil {
			av := reflect.ValueOf(a)
			if av.Type() != inv.ParamTypes[i] && av.Type().ConvertibleTo(inv.ParamTypes[i]) {
				av = av.Convert(inv.ParamTypes[i])
			}
			cell.Set(av)
		}
		params[i] = cell
	}
	ev := &Evaluator{adapter: inv.Adapter, registry: inv.Registry}
	v, err := ev.Eval(inv.Tree, params)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// MakeDelegate builds a typed Go func value (ParamTypes... -> resultType)
// that invokes Invoke internally, panicking on error the way a
// reflect.MakeFunc delegate conventionally surfaces a failure that has no
// slot in the target signature to carry an error return.
func (inv *Invoker) MakeDelegate(resultType reflect.Type) reflect.Value {
	ft := reflect.FuncOf(inv.ParamTypes, []reflect.Type{resultType}, false)
	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		goArgs := make([]any, len(args))
		for i, a := range args {
			goArgs[i] = a.Interface()
		}
		res, err := inv.Invoke(goArgs...)
		if err != nil {
			panic(err)
		}
		out := reflect.New(resultType).Elem()
		if res != nil {
			rv := reflect.ValueOf(res)
			if rv.Type() != resultType && rv.Type().ConvertibleTo(resultType) {
				rv = rv.Convert(resultType)
			}
			out.Set(rv)
		}
		return []reflect.Value{out}
	})
}
