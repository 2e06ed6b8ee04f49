// Package dynbag is a dynamic-capable property bag: a host object exposing
// ad-hoc, name-addressed members at runtime, implementing
// hostreflect.DynamicObject (spec §4.3 capability 5, §9 Design Notes).
//
// Materially adapted from CWBudde/go-dws's internal/jsonvalue.Value — the
// same order-preserving object-entry map — but repurposed here as the
// core's reference dynamic-member fixture rather than a JSON document
// model: entries can hold arbitrary Go values, including callables, and
// Get/Set is case-sensitive by construction (dynamic-member lookup is
// always case-sensitive regardless of the interpreter's own setting).
package dynbag

// Bag is an order-preserving, name-addressed property bag.
type Bag struct {
	entries map[string]any
	keys    []string
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{entries: make(map[string]any)}
}

// Set stores value under name, preserving first-insertion order for Names().
func (b *Bag) Set(name string, value any) *Bag {
	if _, exists := b.entries[name]; !exists {
		b.keys = append(b.keys, name)
	}
	b.entries[name] = value
	return b
}

// Delete removes name if present, reporting whether it existed.
func (b *Bag) Delete(name string) bool {
	if _, exists := b.entries[name]; !exists {
		return false
	}
	delete(b.entries, name)
	for i, k := range b.keys {
		if k == name {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	return true
}

// DynamicGet implements hostreflect.DynamicObject. Lookup is always
// case-sensitive: "BAR" does not match a member stored as "Bar".
func (b *Bag) DynamicGet(name string) (any, bool) {
	v, ok := b.entries[name]
	return v, ok
}

// DynamicNames implements hostreflect.DynamicObject.
func (b *Bag) DynamicNames() []string {
	names := make([]string, len(b.keys))
	copy(names, b.keys)
	return names
}

// Callable is the shape a Bag entry must have to be invocable as
// `dyn.Foo()` from an expression (spec §8 scenario 4).
type Callable = func(args ...any) (any, error)
