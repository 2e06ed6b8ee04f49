// Package hostreflect is the Reflection Adapter (spec §4.3/§6): the core
// never touches host reflection directly, it consumes this small capability
// surface. Grounded on CWBudde/go-dws's internal/interp adapter_*.go files
// and marshal.go, which perform the same job (enumerate host members,
// marshal values across the Go/script boundary) for DWScript's FFI layer.
package hostreflect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/exprlang/exprlang/internal/exprtypes"
)

// Member describes one reflectable member of a host type: a field, a
// zero-or-more-argument method, or (by convention) a property getter.
type Member struct {
	Name       string
	Kind       MemberKind
	Type       reflect.Type   // field/property type, or method's func type
	Index      []int          // struct field index path, for Kind == Field
	Method     reflect.Method // populated for Kind == Method
}

type MemberKind int

const (
	MemberField MemberKind = iota
	MemberMethod
)

// Adapter is the host contract (spec §6): five capabilities, each a pure
// function from a stable host type registration to a stable output.
type Adapter interface {
	// ListMembers enumerates the public members of t (spec §4.3 capability
	// 1). The listing is not filtered by name, so caseInsensitive does not
	// change it; callers match member names under that flag themselves.
	ListMembers(t reflect.Type, caseInsensitive bool) []Member

	// ResolveMethod picks the best applicable overload of name on receiver
	// type t for the given argument types (spec §4.3 capability 2).
	// Returns (method, distance, ok); ok is false when no overload applies
	// or when the best ones tie.
	ResolveMethod(t reflect.Type, name string, argTypes []reflect.Type, caseInsensitive bool) (Member, int, bool)

	// ConversionCost reports whether/how a value of type `from` may be used
	// where `to` is expected (spec §4.3 capability 3). -1 means impossible.
	ConversionCost(from, to reflect.Type) int

	// ExtensionMethods returns the registered extension methods whose first
	// parameter conforms to receiver (spec §4.3 capability 4).
	ExtensionMethods(receiver reflect.Type) []ExtensionMethod

	// ProbeDynamicMember looks up a dynamic member on inst by its literal,
	// case-sensitive name (spec §4.3 capability 5). ok is false if inst is
	// not dynamic-capable, or the member doesn't exist.
	ProbeDynamicMember(inst any, name string) (val any, ok bool)

	// IsDynamicCapable reports whether t's values implement DynamicObject.
	IsDynamicCapable(t reflect.Type) bool
}

// ExtensionMethod mirrors exprtypes.ExtensionMethod; the embedding API's
// RegisterExtensionMethod builds one of each from the same function.
type ExtensionMethod struct {
	Name       string
	Func       reflect.Value
	ParamTypes []reflect.Type
	ReturnType reflect.Type
}

// DynamicObject is the trait a host value opts into to advertise dynamic,
// ad-hoc, name-addressed members (spec §4.3 capability 5, §9 Design Notes).
// The binder checks this interface at compile time (on the static type) to
// decide whether to emit a DynamicGet/DynamicCall node as a fallback after
// static resolution fails.
type DynamicObject interface {
	// DynamicGet returns the value of member name and whether it exists.
	// Lookup is always case-sensitive, regardless of the interpreter's
	// case-sensitivity setting (spec §4.3 capability 5, §9 design note).
	DynamicGet(name string) (any, bool)

	// DynamicNames lists the currently known dynamic member names. Order is
	// not significant.
	DynamicNames() []string
}

// goAdapter is the default Adapter, built directly on Go's reflect package.
type goAdapter struct {
	extensions map[reflect.Type][]ExtensionMethod
}

// NewGoAdapter returns the default reflect-based Adapter.
func NewGoAdapter() Adapter {
	return &goAdapter{extensions: make(map[reflect.Type][]ExtensionMethod)}
}

// RegisterExtensionMethod is a convenience for hosts wiring extension
// methods directly against this adapter rather than through exprtypes.Registry.
func RegisterExtensionMethod(a Adapter, receiver reflect.Type, em ExtensionMethod) {
	if ga, ok := a.(*goAdapter); ok {
		ga.extensions[receiver] = append(ga.extensions[receiver], em)
	}
}

func (a *goAdapter) ListMembers(t reflect.Type, caseInsensitive bool) []Member {
	var members []Member
	et := t
	for et.Kind() == reflect.Ptr {
		et = et.Elem()
	}
	if et.Kind() == reflect.Struct {
		for i := 0; i < et.NumField(); i++ {
			f := et.Field(i)
			if !f.IsExported() {
				continue
			}
			members = append(members, Member{Name: f.Name, Kind: MemberField, Type: f.Type, Index: f.Index})
		}
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.PkgPath != "" {
			continue // unexported
		}
		members = append(members, Member{Name: m.Name, Kind: MemberMethod, Type: m.Type, Method: m})
	}
	return members
}

func matchesName(memberName, want string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.EqualFold(memberName, want)
	}
	return memberName == want
}

func (a *goAdapter) ResolveMethod(t reflect.Type, name string, argTypes []reflect.Type, caseInsensitive bool) (Member, int, bool) {
	var best Member
	bestCost := -1
	found := false
	ambiguous := false

	for _, m := range a.ListMembers(t, caseInsensitive) {
		if m.Kind != MemberMethod || !matchesName(m.Name, name, caseInsensitive) {
			continue
		}
		cost, ok := methodCallCost(m.Method, argTypes, a)
		if !ok {
			continue
		}
		switch {
		case !found || cost < bestCost:
			best, bestCost, found, ambiguous = m, cost, true, false
		case cost == bestCost:
			ambiguous = true
		}
	}
	return best, bestCost, found && !ambiguous
}

// methodCallCost sums per-argument ConversionCost for a candidate method,
// receiver excluded, the way CWBudde/go-dws's SignatureDistance sums
// per-parameter distances. Returns ok=false if any argument is incompatible.
func methodCallCost(m reflect.Method, argTypes []reflect.Type, a Adapter) (int, bool) {
	sig := m.Type // method value type includes the receiver as arg 0
	numParams := sig.NumIn() - 1
	variadic := sig.IsVariadic()

	if variadic {
		if len(argTypes) < numParams-1 {
			return 0, false
		}
	} else if len(argTypes) != numParams {
		return 0, false
	}

	total := 0
	for i, at := range argTypes {
		var pt reflect.Type
		switch {
		case variadic && i >= numParams-1:
			pt = sig.In(sig.NumIn() - 1).Elem()
		default:
			pt = sig.In(i + 1)
		}
		cost := a.ConversionCost(at, pt)
		if cost < 0 {
			return 0, false
		}
		total += cost
	}
	if variadic {
		total++ // variadic match ranks behind an exact-arity match
	}
	return total, true
}

func (a *goAdapter) ConversionCost(from, to reflect.Type) int {
	return exprtypes.ConversionCost(from, to)
}

func (a *goAdapter) ExtensionMethods(receiver reflect.Type) []ExtensionMethod {
	var out []ExtensionMethod
	for t, ems := range a.extensions {
		if receiver == t || (t.Kind() == reflect.Interface && receiver.Implements(t)) {
			out = append(out, ems...)
		}
	}
	return out
}

func (a *goAdapter) ProbeDynamicMember(inst any, name string) (any, bool) {
	dyn, ok := inst.(DynamicObject)
	if !ok {
		return nil, false
	}
	return dyn.DynamicGet(name)
}

func (a *goAdapter) IsDynamicCapable(t reflect.Type) bool {
	dynType := reflect.TypeOf((*DynamicObject)(nil)).Elem()
	return t.Implements(dynType) || (t.Kind() != reflect.Ptr && reflect.PtrTo(t).Implements(dynType))
}

// ErrAmbiguousOverload describes two or more overloads of a method tying on
// conversion cost. ResolveMethod does not return it: it reports a tie as
// ok=false.
type ErrAmbiguousOverload struct {
	Type   reflect.Type
	Method string
}

func (e *ErrAmbiguousOverload) Error() string {
	return fmt.Sprintf("ambiguous overload for %s.%s", e.Type, e.Method)
}
