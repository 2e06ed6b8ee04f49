package identscan

import (
	"reflect"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/exprlang/exprlang/internal/exprtypes"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	_ = v
}

func newRegistry() *exprtypes.Registry {
	reg := exprtypes.New(false)
	reg.Seed(exprtypes.SeedPrimitiveAliases, exprtypes.SeedLiteralIdentifiers)
	reg.RegisterType("Point", reflect.TypeOf(struct{ X, Y int64 }{}))
	reg.RegisterIdentifier(&exprtypes.Identifier{
		Name: "Pi", Type: reflect.TypeOf(float64(0)), Binding: exprtypes.BindingConstant,
		Value: reflect.ValueOf(3.14), Const: true,
	})
	return reg
}

func TestDetectClassifiesKnownIdentifier(t *testing.T) {
	info := Detect("Pi * 2", newRegistry())
	if !contains(info.Identifiers, "Pi") {
		t.Fatalf("expected Pi in Identifiers, got %v", info.Identifiers)
	}
}

func TestDetectClassifiesKnownType(t *testing.T) {
	info := Detect("(Point)x", newRegistry())
	if !contains(info.Types, "Point") {
		t.Fatalf("expected Point in Types, got %v", info.Types)
	}
}

func TestDetectClassifiesUnknown(t *testing.T) {
	info := Detect("total + 1", newRegistry())
	if !contains(info.Unknown, "total") {
		t.Fatalf("expected total in Unknown, got %v", info.Unknown)
	}
}

func TestDetectSkipsMemberNames(t *testing.T) {
	info := Detect("total.Foo.Bar", newRegistry())
	if !contains(info.Unknown, "total") {
		t.Fatalf("expected total in Unknown, got %v", info.Unknown)
	}
	if contains(info.Unknown, "Foo") || contains(info.Unknown, "Bar") {
		t.Fatalf("member names should be skipped, got %v", info.Unknown)
	}
}

func TestDetectDedupes(t *testing.T) {
	info := Detect("total + total + total", newRegistry())
	if len(info.Unknown) != 1 {
		t.Fatalf("expected a single deduped entry, got %v", info.Unknown)
	}
}

func TestDetectJSONShape(t *testing.T) {
	info := Detect("Pi * total + Point.X", newRegistry())
	data, err := info.JSON().MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	snaps.MatchSnapshot(t, "identifiers_info_shape", string(data))
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
