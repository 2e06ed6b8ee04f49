// Package expr is the public embedding surface (spec §6): Interpreter,
// Option, Parameter, Lambda, IdentifiersInfo, over the internal binder,
// compiler, and registry packages. Mirrors CWBudde/go-dws's pkg/dwscript
// boundary — a small façade that owns construction-time options and
// forwards everything else to the internal packages that do the real work.
package expr

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/exprlang/exprlang/internal/exprast"
	"github.com/exprlang/exprlang/internal/exprcompile"
	"github.com/exprlang/exprlang/internal/exprparser"
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/hostreflect"
	"github.com/exprlang/exprlang/internal/identscan"
	"github.com/exprlang/exprlang/internal/reporting"
	"github.com/exprlang/exprlang/internal/token"
	"github.com/exprlang/exprlang/internal/visitor"
)

// Parameter is a caller-declared expression parameter: a name and its
// declared type, bound positionally at Parse/Eval time (spec §3).
type Parameter struct {
	Name string
	Type reflect.Type
}

// AssignmentPolicy mirrors exprparser.AssignmentPolicy at the public
// boundary (spec §6 enable-assignment operation).
type AssignmentPolicy = exprparser.AssignmentPolicy

const (
	AssignmentNone      = exprparser.AssignmentNone
	AssignmentEqualOnly = exprparser.AssignmentEqualOnly
)

// IdentifiersInfo is the Identifier Detector's output (spec §3/§4.8).
type IdentifiersInfo = identscan.IdentifiersInfo

// Interpreter owns a Type & Symbol Registry, a Reflection Adapter, and a
// Visitor Pipeline, and exposes the spec §6 external-interface operations.
// Safe for concurrent Parse/Eval once all registration has completed (spec
// §5 thread-safety contract); registration methods are not internally
// locked and must not race with a concurrent parse.
type Interpreter struct {
	registry     *exprtypes.Registry
	adapter      hostreflect.Adapter
	pipeline     *visitor.Pipeline
	assignPolicy exprparser.AssignmentPolicy
}

// config accumulates construction-time choices before the registry — whose
// case-sensitivity policy is fixed at creation — gets built, so options can
// be supplied in any order (spec §6 construct(options)).
type config struct {
	caseInsensitive bool
	seedGroups      []exprtypes.SeedGroup
}

// Option configures an Interpreter at construction time.
type Option func(*config)

// WithPrimitiveAliases seeds the built-in primitive type aliases
// (int/uint/float/single/string/bool/char/object).
func WithPrimitiveAliases() Option {
	return func(c *config) { c.seedGroups = append(c.seedGroups, exprtypes.SeedPrimitiveAliases) }
}

// WithLiteralIdentifiers seeds the `true`/`false` literal identifiers.
func WithLiteralIdentifiers() Option {
	return func(c *config) { c.seedGroups = append(c.seedGroups, exprtypes.SeedLiteralIdentifiers) }
}

// WithCommonTypes seeds the small built-in helper-type group.
func WithCommonTypes() Option {
	return func(c *config) { c.seedGroups = append(c.seedGroups, exprtypes.SeedCommonTypes) }
}

// WithCaseInsensitiveNames makes every registered name (types, identifiers,
// and — via the Reflection Adapter — host members) compare
// case-insensitively. Dynamic-member lookup is never affected: it is always
// case-sensitive (spec §4.3 capability 5).
func WithCaseInsensitiveNames() Option {
	return func(c *config) { c.caseInsensitive = true }
}

// New builds an Interpreter with the default Go reflection adapter and the
// default visitor pipeline (reflection-disabling guard enabled), applying
// opts in any order.
func New(opts ...Option) *Interpreter {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	registry := exprtypes.New(cfg.caseInsensitive)
	registry.Seed(cfg.seedGroups...)
	return &Interpreter{
		registry: registry,
		adapter:  hostreflect.NewGoAdapter(),
		pipeline: visitor.NewDefaultPipeline(),
	}
}

// RegisterType adds a ReferenceType under alias (spec §6 register-type).
func (i *Interpreter) RegisterType(alias string, hostType reflect.Type) {
	i.registry.RegisterType(alias, hostType)
}

// RegisterExtensionMethod attaches a Go function as an extension method on
// the type registered under receiverAlias. fn's first parameter is the
// receiver; it is excluded from the script-visible parameter list.
func (i *Interpreter) RegisterExtensionMethod(receiverAlias, name string, fn any) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.Type().NumIn() < 1 {
		return reporting.NewConfigurationError("extension method %q must be a function taking at least a receiver argument", name)
	}
	ft := fv.Type()
	paramTypes := make([]reflect.Type, ft.NumIn()-1)
	for n := 1; n < ft.NumIn(); n++ {
		paramTypes[n-1] = ft.In(n)
	}
	var ret reflect.Type
	if ft.NumOut() > 0 {
		ret = ft.Out(0)
	}
	i.registry.RegisterExtensionMethod(receiverAlias, exprtypes.ExtensionMethod{
		Name: name, Func: fv, ParamTypes: paramTypes, ReturnType: ret,
	})
	hostreflect.RegisterExtensionMethod(i.adapter, ft.In(0), hostreflect.ExtensionMethod{
		Name: name, Func: fv, ParamTypes: paramTypes, ReturnType: ret,
	})
	return nil
}

// RegisterIdentifier registers a named constant value, visible as a bare
// identifier in expressions (spec §6 register-identifier).
func (i *Interpreter) RegisterIdentifier(name string, value any) error {
	if token.IsReserved(name) {
		return reporting.NewConfigurationError("identifier %q: reserved keyword cannot be registered as an identifier", name)
	}
	if value == nil {
		return reporting.NewConfigurationError("identifier %q: value must not be nil", name)
	}
	v := reflect.ValueOf(value)
	i.registry.RegisterIdentifier(&exprtypes.Identifier{
		Name: name, Type: v.Type(), Binding: exprtypes.BindingConstant, Value: v, Const: true,
	})
	return nil
}

// RegisterVariable registers a mutable variable cell addressed by name; ptr
// must be a non-nil pointer to the variable's storage. Assignment to this
// identifier (when enabled) writes through ptr.
func (i *Interpreter) RegisterVariable(name string, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reporting.NewConfigurationError("variable %q: ptr must be a non-nil pointer", name)
	}
	i.registry.RegisterIdentifier(&exprtypes.Identifier{
		Name: name, Type: v.Elem().Type(), Binding: exprtypes.BindingVariable, Value: v,
	})
	return nil
}

// RegisterFunction registers a Go function value, callable as a free
// function by name (`name(args...)`).
func (i *Interpreter) RegisterFunction(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return reporting.NewConfigurationError("function %q: fn must be a func value", name)
	}
	i.registry.RegisterIdentifier(&exprtypes.Identifier{
		Name: name, Type: v.Type(), Binding: exprtypes.BindingFunction, Value: v, Const: true,
	})
	return nil
}

// EnableAssignment sets the parser's assignment policy (spec §6
// enable-assignment).
func (i *Interpreter) EnableAssignment(policy AssignmentPolicy) { i.assignPolicy = policy }

// AddVisitor appends a custom pass to the visitor pipeline.
func (i *Interpreter) AddVisitor(v visitor.Visitor) { i.pipeline.Add(v) }

// EnableReflection removes the default reflection-disabling guard, opting
// the interpreter into unrestricted host introspection surfaces (spec §4.6
// "An opt-in method removes that visitor").
func (i *Interpreter) EnableReflection() { i.pipeline.Remove(visitor.ReflectionGuardName) }

// Lambda is a compiled, reusable callable: a bound expression tree plus the
// parameter declarations it was bound against (spec §3). Immutable after
// construction; Invoke is safe to call concurrently (spec §5).
type Lambda struct {
	id              uuid.UUID
	tree            exprast.Node
	parameters      []Parameter
	invoker         *exprcompile.Invoker
	usedParameters  []string
	usedTypes       []string
	usedIdentifiers []string
}

// ID returns this Lambda's unique identity, stable for its lifetime — useful
// for a host keying/logging many cached lambdas without hashing source text.
func (l *Lambda) ID() uuid.UUID { return l.id }

// ReturnType is the static type inferred for the expression's root node.
func (l *Lambda) ReturnType() reflect.Type { return l.tree.Type() }

// DeclaredParameters returns the parameters this Lambda was parsed against.
func (l *Lambda) DeclaredParameters() []Parameter {
	out := make([]Parameter, len(l.parameters))
	copy(out, l.parameters)
	return out
}

// UsedParameters returns the names of the DeclaredParameters this Lambda's
// text actually referenced while parsing — always a subset of
// DeclaredParameters (spec §3, §8 property 1).
func (l *Lambda) UsedParameters() []string {
	out := make([]string, len(l.usedParameters))
	copy(out, l.usedParameters)
	return out
}

// UsedTypes returns the names of the registered type aliases this Lambda's
// text referenced while parsing.
func (l *Lambda) UsedTypes() []string {
	out := make([]string, len(l.usedTypes))
	copy(out, l.usedTypes)
	return out
}

// UsedIdentifiers returns the names of the registered identifiers this
// Lambda's text referenced while parsing.
func (l *Lambda) UsedIdentifiers() []string {
	out := make([]string, len(l.usedIdentifiers))
	copy(out, l.usedIdentifiers)
	return out
}

// Invoke evaluates the Lambda against args, positionally bound to
// DeclaredParameters in order. Errors from invoked host code surface as an
// *reporting.InvocationError with the original cause unwrapped underneath.
func (l *Lambda) Invoke(args ...any) (any, error) {
	return l.invoker.Invoke(args...)
}

// MakeDelegate returns a reflect.Value holding a Go func matching
// DeclaredParameters' types and the given result type, invoking this Lambda
// internally and panicking if Invoke returns an error (spec §4.7 typed
// delegate capability).
func (l *Lambda) MakeDelegate(resultType reflect.Type) reflect.Value {
	return l.invoker.MakeDelegate(resultType)
}

// Parse binds text into a Lambda over params, applying expectedType (if
// non-nil) as the required convertibility target for the root node's
// static type, and running the visitor pipeline before compilation (spec §6
// parse operation).
func (i *Interpreter) Parse(text string, expectedType reflect.Type, params []Parameter) (*Lambda, error) {
	args := &exprparser.Arguments{
		Text:         text,
		Registry:     i.registry,
		ExpectedType: expectedType,
		AssignPolicy: i.assignPolicy,
		Parameters:   toExprtypesParameters(params),
	}
	p := exprparser.New(args, i.adapter)
	tree, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	rewritten, err := i.pipeline.Run(tree)
	if err != nil {
		return nil, reporting.NewParseError(tree.Pos(), text, "%s", err.Error())
	}
	tree = rewritten

	paramTypes := make([]reflect.Type, len(params))
	for n, pr := range params {
		paramTypes[n] = pr.Type
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, reporting.NewConfigurationError("failed to allocate lambda id: %s", err)
	}
	return &Lambda{
		id:         id,
		tree:       tree,
		parameters: params,
		invoker: &exprcompile.Invoker{
			Tree: tree, ParamTypes: paramTypes, Adapter: i.adapter, Registry: i.registry,
		},
		usedParameters:  args.UsedParameters,
		usedTypes:       args.UsedTypes,
		usedIdentifiers: args.UsedIdentifiers,
	}, nil
}

func toExprtypesParameters(params []Parameter) []exprtypes.Parameter {
	out := make([]exprtypes.Parameter, len(params))
	for n, p := range params {
		out[n] = exprtypes.Parameter{Name: p.Name, Type: p.Type}
	}
	return out
}

// Eval parses and immediately invokes text against argument values
// positionally bound to params, in declaration order (spec §6 eval
// operation).
func (i *Interpreter) Eval(text string, expectedType reflect.Type, params []Parameter, args ...any) (any, error) {
	lambda, err := i.Parse(text, expectedType, params)
	if err != nil {
		return nil, err
	}
	return lambda.Invoke(args...)
}

// Detect runs the Identifier Detector over text (spec §6 detect operation).
func (i *Interpreter) Detect(text string) IdentifiersInfo {
	return identscan.Detect(text, i.registry)
}
