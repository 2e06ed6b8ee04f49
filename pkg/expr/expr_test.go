package expr

import (
	"reflect"
	"testing"
)

type point struct {
	X, Y int64
}

func (p point) Dist() int64 { return p.X + p.Y }

func TestParseAndInvoke(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	params := []Parameter{{Name: "a", Type: reflect.TypeOf(int64(0))}, {Name: "b", Type: reflect.TypeOf(int64(0))}}
	lambda, err := itp.Parse("a * b + 1", nil, params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := lambda.Invoke(int64(6), int64(7))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != int64(43) {
		t.Fatalf("expected 43, got %v", result)
	}
}

func TestEvalConvenience(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	params := []Parameter{{Name: "n", Type: reflect.TypeOf(int64(0))}}
	result, err := itp.Eval(`"n is " + n`, nil, params, int64(5))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if result != "n is 5" {
		t.Fatalf("expected %q, got %v", "n is 5", result)
	}
}

func TestRegisterTypeFieldAndMethod(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	itp.RegisterType("Point", reflect.TypeOf(point{}))
	params := []Parameter{{Name: "p", Type: reflect.TypeOf(point{})}}
	result, err := itp.Eval("p.X + p.Dist()", nil, params, point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if result != int64(10) {
		t.Fatalf("expected 10, got %v", result)
	}
}

func TestRegisterIdentifierRejectsReservedKeyword(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	if err := itp.RegisterIdentifier("true", int64(1)); err == nil {
		t.Fatal("expected registering the reserved keyword \"true\" to fail")
	}
}

func TestRegisterIdentifierAndFunction(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	if err := itp.RegisterIdentifier("Pi", float64(3.5)); err != nil {
		t.Fatalf("register identifier: %v", err)
	}
	if err := itp.RegisterFunction("double", func(x int64) int64 { return x * 2 }); err != nil {
		t.Fatalf("register function: %v", err)
	}
	result, err := itp.Eval("double(3)", nil, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if result != int64(6) {
		t.Fatalf("expected 6, got %v", result)
	}
}

func TestRegisterVariableAndAssignment(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	var counter int64 = 1
	if err := itp.RegisterVariable("counter", &counter); err != nil {
		t.Fatalf("register variable: %v", err)
	}
	itp.EnableAssignment(AssignmentEqualOnly)
	lambda, err := itp.Parse("counter = counter + 1", nil, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := lambda.Invoke(); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if counter != 2 {
		t.Fatalf("expected counter to be written through to 2, got %d", counter)
	}
}

func TestRegisterVariableRejectsNonPointer(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	if err := itp.RegisterVariable("x", int64(1)); err == nil {
		t.Fatal("expected an error registering a non-pointer variable")
	}
}

func TestDetectDelegatesToRegistry(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	itp.RegisterType("Point", reflect.TypeOf(point{}))
	info := itp.Detect("total + Point.X")
	found := false
	for _, id := range info.Unknown {
		if id == "total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected total in Unknown, got %v", info.Unknown)
	}
}

func TestLambdaMetadata(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	params := []Parameter{{Name: "a", Type: reflect.TypeOf(int64(0))}}
	lambda, err := itp.Parse("a + 1", nil, params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lambda.ID().String() == "" {
		t.Fatal("expected a non-empty lambda id")
	}
	if got := lambda.ReturnType(); got != reflect.TypeOf(int64(0)) {
		t.Fatalf("expected int64 return type, got %v", got)
	}
	if got := lambda.DeclaredParameters(); len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("expected declared parameter a, got %v", got)
	}
}

func TestLambdaUsedParametersIsSubsetOfDeclared(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	params := []Parameter{
		{Name: "a", Type: reflect.TypeOf(int64(0))},
		{Name: "b", Type: reflect.TypeOf(int64(0))},
		{Name: "c", Type: reflect.TypeOf(int64(0))},
	}
	lambda, err := itp.Parse("a + c", nil, params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	used := lambda.UsedParameters()
	if len(used) != 2 {
		t.Fatalf("expected 2 used parameters, got %v", used)
	}
	declared := lambda.DeclaredParameters()
	for _, u := range used {
		found := false
		for _, d := range declared {
			if d.Name == u {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("used parameter %q is not among declared parameters %v", u, declared)
		}
	}
	for _, want := range []string{"a", "c"} {
		found := false
		for _, u := range used {
			if u == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected %q in used parameters, got %v", want, used)
		}
	}
	for _, u := range used {
		if u == "b" {
			t.Fatalf("parameter b was never referenced and should not be in UsedParameters, got %v", used)
		}
	}
}

func TestLambdaMakeDelegate(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	params := []Parameter{{Name: "a", Type: reflect.TypeOf(int64(0))}, {Name: "b", Type: reflect.TypeOf(int64(0))}}
	lambda, err := itp.Parse("a + b", nil, params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	delegate := lambda.MakeDelegate(reflect.TypeOf(int64(0)))
	fn, ok := delegate.Interface().(func(int64, int64) int64)
	if !ok {
		t.Fatalf("expected func(int64, int64) int64, got %T", delegate.Interface())
	}
	if got := fn(2, 3); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestReflectionGuardBlocksByDefault(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	if err := itp.RegisterExtensionMethod("int", "TypeOf", func(n int64) string { return "int64" }); err != nil {
		t.Fatalf("register extension method: %v", err)
	}
	params := []Parameter{{Name: "n", Type: reflect.TypeOf(int64(0))}}
	if _, err := itp.Parse("n.TypeOf()", nil, params); err == nil {
		t.Fatal("expected the reflection guard to reject TypeOf")
	}
}

func TestReflectionGuardCanBeDisabled(t *testing.T) {
	itp := New(WithPrimitiveAliases())
	itp.EnableReflection()
	if err := itp.RegisterExtensionMethod("int", "TypeOf", func(n int64) string { return "int64" }); err != nil {
		t.Fatalf("register extension method: %v", err)
	}
	params := []Parameter{{Name: "n", Type: reflect.TypeOf(int64(0))}}
	result, err := itp.Eval("n.TypeOf()", nil, params, int64(5))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if result != "int64" {
		t.Fatalf("expected %q, got %v", "int64", result)
	}
}

func TestCaseInsensitiveNames(t *testing.T) {
	itp := New(WithPrimitiveAliases(), WithCaseInsensitiveNames())
	if err := itp.RegisterIdentifier("Pi", float64(3.5)); err != nil {
		t.Fatalf("register identifier: %v", err)
	}
	result, err := itp.Eval("pi", nil, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if result != float64(3.5) {
		t.Fatalf("expected 3.5, got %v", result)
	}
}
