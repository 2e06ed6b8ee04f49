package dynbag

import "testing"

func TestDynamicGetCaseSensitive(t *testing.T) {
	b := New().Set("Bar", 10)
	if _, ok := b.DynamicGet("Bar"); !ok {
		t.Fatal("expected Bar to be found")
	}
	if _, ok := b.DynamicGet("BAR"); ok {
		t.Fatal("expected case-mismatched lookup to fail regardless of interpreter setting")
	}
}

func TestDynamicNamesOrderPreserved(t *testing.T) {
	b := New().Set("a", 1).Set("b", 2).Set("c", 3)
	names := b.DynamicNames()
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestDeleteRemovesFromOrder(t *testing.T) {
	b := New().Set("a", 1).Set("b", 2)
	if !b.Delete("a") {
		t.Fatal("expected delete of existing key to succeed")
	}
	if b.Delete("a") {
		t.Fatal("expected second delete to report absence")
	}
	if len(b.DynamicNames()) != 1 || b.DynamicNames()[0] != "b" {
		t.Fatalf("unexpected names after delete: %v", b.DynamicNames())
	}
}

func TestCallableMember(t *testing.T) {
	b := New().Set("Foo", Callable(func(args ...any) (any, error) {
		return "bar", nil
	}))
	v, ok := b.DynamicGet("Foo")
	if !ok {
		t.Fatal("expected Foo to be found")
	}
	fn, ok := v.(Callable)
	if !ok {
		t.Fatal("expected Foo to be a Callable")
	}
	result, err := fn()
	if err != nil || result != "bar" {
		t.Fatalf("unexpected call result: %v, %v", result, err)
	}
}
