package exprtypes

import "reflect"

// ConversionCost ranks how a value of type `from` converts to a parameter of
// type `to`. Lower is better; -1 means incompatible. Ordering mirrors
// CWBudde/go-dws's internal/semantic.SignatureDistance: exact match beats
// widening, widening beats a Variant-style (any) conversion, incompatible is
// a dead end — consulted by overload resolution (spec §4.3 capability 2) and
// by the binder's numeric-promotion/assignability rules (spec §4.4).
func ConversionCost(from, to reflect.Type) int {
	if from == nil || to == nil {
		return -1
	}
	if from == to {
		return 0
	}
	if to.Kind() == reflect.Interface && to.NumMethod() > 0 && from.Implements(to) {
		return 0
	}
	if isNumeric(from) && isNumeric(to) {
		if widens(from, to) {
			return 1
		}
		if from.ConvertibleTo(to) {
			return 2
		}
		return -1
	}
	if to.Kind() == reflect.Interface && to.NumMethod() == 0 {
		// any / interface{} — the "Variant" escape hatch.
		return 2
	}
	if from.AssignableTo(to) {
		return 0
	}
	if from.ConvertibleTo(to) {
		return 2
	}
	return -1
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// numericRank orders numeric kinds by width/precision for widening checks.
var numericRank = map[reflect.Kind]int{
	reflect.Int8: 1, reflect.Uint8: 1,
	reflect.Int16: 2, reflect.Uint16: 2,
	reflect.Int32: 3, reflect.Uint32: 3,
	reflect.Int: 4, reflect.Uint: 4,
	reflect.Int64: 5, reflect.Uint64: 5,
	reflect.Float32: 6,
	reflect.Float64: 7,
}

// widens reports whether `from` implicitly promotes to `to` under standard
// C-family numeric promotion (smaller/integer -> larger/floating).
func widens(from, to reflect.Type) bool {
	fr, fok := numericRank[from.Kind()]
	tr, tok := numericRank[to.Kind()]
	if !fok || !tok {
		return false
	}
	return fr < tr
}

// WidestNumeric returns the wider of two numeric types for mixed-type
// arithmetic promotion (spec §4.4 "Numeric promotion and operator
// resolution"), or nil if either type isn't numeric.
func WidestNumeric(a, b reflect.Type) reflect.Type {
	if !isNumeric(a) || !isNumeric(b) {
		return nil
	}
	if numericRank[a.Kind()] >= numericRank[b.Kind()] {
		return a
	}
	return b
}
