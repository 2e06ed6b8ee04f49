package exprtypes

import "reflect"

// Parameter is a caller-declared expression parameter (spec §3): a name, a
// declared type, and an optional value bound for evaluation.
type Parameter struct {
	Name  string
	Type  reflect.Type
	Value reflect.Value // zero Value if not yet bound (parse-only usage)
}
