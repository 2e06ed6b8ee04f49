// Package exprtypes holds the Type & Symbol Registry (spec §4.2/§3): the set
// of known host types, known identifiers, and extension methods, all keyed
// under a case-sensitivity policy fixed at construction.
//
// Grounded on CWBudde/go-dws's internal/semantic.SymbolTable (case
// normalization, last-write-wins Define) and internal/semantic's overload
// machinery for the conversion-cost ordering consulted during binding.
package exprtypes

import (
	"reflect"
	"strings"

	"github.com/exprlang/exprlang/internal/token"
)

// Comparer canonicalises a name for lookup/storage according to the
// registry's case-sensitivity policy.
type Comparer struct {
	caseInsensitive bool
}

// NewComparer builds a Comparer; caseInsensitive selects whether registered
// names are folded before comparison.
func NewComparer(caseInsensitive bool) Comparer { return Comparer{caseInsensitive} }

// Canonical returns the form of name under which it is stored/looked up.
func (c Comparer) Canonical(name string) string {
	if c.caseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// CaseInsensitive reports the policy this Comparer enforces. The Reflection
// Adapter's member/method lookups take this flag directly so host-type
// binding follows the same case policy as type/identifier name resolution
// (spec §4.3) — except dynamic-member resolution, which is always
// case-sensitive regardless of this setting (spec §4.3 capability 5).
func (c Comparer) CaseInsensitive() bool { return c.caseInsensitive }

// ReferenceType is a host type registered under a public alias (spec §3).
type ReferenceType struct {
	Alias      string
	HostType   reflect.Type
	Extensions []ExtensionMethod
}

// ExpressionBinding is how an Identifier's value reaches the expression
// tree: a compile-time constant, a late-bound variable cell, or a function
// value (spec §3 Identifier.bound expression).
type ExpressionBinding int

const (
	BindingConstant ExpressionBinding = iota
	BindingVariable
	BindingFunction
)

// Identifier is a named value or expression registered with the interpreter.
type Identifier struct {
	Name    string
	Type    reflect.Type
	Binding ExpressionBinding
	Value   reflect.Value // constant payload, or the variable cell's Addr(), or a func Value
	Const   bool          // assignment to a const identifier is a ParseError
}

// ExtensionMethod is a static Go function attached to a registered type so
// that, for a receiver conforming to its first parameter, it becomes
// callable as `receiver.Method(rest...)`. Consulted only after instance
// method resolution against the receiver type fails (spec §3 invariant,
// §4.3 capability 4).
type ExtensionMethod struct {
	Name       string
	Func       reflect.Value
	ParamTypes []reflect.Type // excludes the receiver (ParamTypes[0] in Func's signature)
	ReturnType reflect.Type
}

// Registry is the Type & Symbol Registry: a type map, an identifier map,
// and extension methods grouped per receiver type alias, all keyed via
// Comparer.
type Registry struct {
	cmp         Comparer
	types       map[string]*ReferenceType
	identifiers map[string]*Identifier
	extensions  map[string][]ExtensionMethod // canonical type name -> extensions
}

// New creates an empty Registry under the given case-sensitivity policy.
func New(caseInsensitive bool) *Registry {
	return &Registry{
		cmp:         NewComparer(caseInsensitive),
		types:       make(map[string]*ReferenceType),
		identifiers: make(map[string]*Identifier),
		extensions:  make(map[string][]ExtensionMethod),
	}
}

// Comparer exposes the registry's name comparer for callers (e.g. the
// parser) that need to canonicalise names the same way.
func (r *Registry) Comparer() Comparer { return r.cmp }

// RegisterType adds a ReferenceType under alias. Re-registering the same
// alias overwrites deterministically (spec §8 idempotence invariant).
func (r *Registry) RegisterType(alias string, hostType reflect.Type) *ReferenceType {
	rt := &ReferenceType{Alias: alias, HostType: hostType}
	r.types[r.cmp.Canonical(alias)] = rt
	return rt
}

// LookupType resolves a type alias to its ReferenceType, or nil.
func (r *Registry) LookupType(alias string) *ReferenceType {
	return r.types[r.cmp.Canonical(alias)]
}

// RegisterIdentifier adds or overwrites an Identifier. The caller is
// responsible for having already rejected reserved names (token.IsReserved)
// before calling this — see spec §3 invariant "A reserved keyword may not be
// registered as an identifier."
func (r *Registry) RegisterIdentifier(id *Identifier) {
	r.identifiers[r.cmp.Canonical(id.Name)] = id
}

// LookupIdentifier resolves a bare name to a registered Identifier, or nil.
func (r *Registry) LookupIdentifier(name string) *Identifier {
	return r.identifiers[r.cmp.Canonical(name)]
}

// RegisterExtensionMethod attaches em to the type registered under
// receiverAlias. The parser's method-call binder does not read this set: it
// resolves extension methods through hostreflect.Adapter.ExtensionMethods,
// and only after static instance-method resolution on the receiver fails.
func (r *Registry) RegisterExtensionMethod(receiverAlias string, em ExtensionMethod) {
	key := r.cmp.Canonical(receiverAlias)
	r.extensions[key] = append(r.extensions[key], em)
	if rt, ok := r.types[key]; ok {
		rt.Extensions = append(rt.Extensions, em)
	}
}

// ExtensionMethodsFor returns the extension methods registered against a
// type's alias.
func (r *Registry) ExtensionMethodsFor(receiverAlias string) []ExtensionMethod {
	return r.extensions[r.cmp.Canonical(receiverAlias)]
}

// SeedGroup is an optional batch-registration bundle requested at
// construction (spec §4.2): each group is merely a batch registration and
// carries no special semantics afterward.
type SeedGroup int

const (
	SeedPrimitiveAliases SeedGroup = iota
	SeedLiteralIdentifiers
	SeedCommonTypes
)

// Seed applies the named bootstrap groups to the registry.
func (r *Registry) Seed(groups ...SeedGroup) {
	for _, g := range groups {
		switch g {
		case SeedPrimitiveAliases:
			r.seedPrimitiveAliases()
		case SeedLiteralIdentifiers:
			r.seedLiteralIdentifiers()
		case SeedCommonTypes:
			r.seedCommonTypes()
		}
	}
}

func (r *Registry) seedPrimitiveAliases() {
	r.RegisterType("int", reflect.TypeOf(int64(0)))
	r.RegisterType("uint", reflect.TypeOf(uint64(0)))
	r.RegisterType("float", reflect.TypeOf(float64(0)))
	r.RegisterType("single", reflect.TypeOf(float32(0)))
	r.RegisterType("string", reflect.TypeOf(""))
	r.RegisterType("bool", reflect.TypeOf(false))
	r.RegisterType("char", reflect.TypeOf(rune(0)))
	r.RegisterType("object", reflect.TypeOf((*any)(nil)).Elem())
}

func (r *Registry) seedLiteralIdentifiers() {
	r.RegisterIdentifier(&Identifier{
		Name: "true", Type: reflect.TypeOf(false), Binding: BindingConstant,
		Value: reflect.ValueOf(true), Const: true,
	})
	r.RegisterIdentifier(&Identifier{
		Name: "false", Type: reflect.TypeOf(false), Binding: BindingConstant,
		Value: reflect.ValueOf(false), Const: true,
	})
}

// seedCommonTypes registers the "common types" group — here just a seed,
// not special-cased afterward. The group holds a single alias, `math`;
// no conversion or enumerable helper types are registered.
func (r *Registry) seedCommonTypes() {
	r.RegisterType("math", reflect.TypeOf(MathHelpers{}))
}

// MathHelpers is the host type behind the `math` alias. It declares no
// fields or methods, so the alias resolves as a type name but exposes no
// members.
type MathHelpers struct{}

// ConversionKind classifies how (or whether) a value of one type may be
// used where another is expected, per the Reflection Adapter's
// assignability/conversion capability (spec §4.3 capability 3).
type ConversionKind int

const (
	ConversionNone ConversionKind = iota
	ConversionExact
	ConversionImplicitWidening
	ConversionImplicitUserDefined
	ConversionVariadic
)

// Position re-exports token.Position so callers of this package that only
// need registry types don't also need to import internal/token directly.
type Position = token.Position
