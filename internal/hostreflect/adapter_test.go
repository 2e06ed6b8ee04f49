package hostreflect

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprlang/exprlang/internal/dynbag"
)

type widget struct {
	Name  string
	Price int64

	unexportedField int
}

func (w widget) Describe() string { return w.Name }

func (w widget) Scale(factor int64) int64 { return w.Price * factor }

func (w widget) unexportedMethod() {}

func TestListMembersSkipsUnexported(t *testing.T) {
	a := NewGoAdapter()
	members := a.ListMembers(reflect.TypeOf(widget{}), false)

	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "Name")
	assert.Contains(t, names, "Price")
	assert.Contains(t, names, "Describe")
	assert.Contains(t, names, "Scale")
	assert.NotContains(t, names, "unexportedField")
	assert.NotContains(t, names, "unexportedMethod")
}

func TestResolveMethodExactMatch(t *testing.T) {
	a := NewGoAdapter()
	member, cost, ok := a.ResolveMethod(reflect.TypeOf(widget{}), "Scale", []reflect.Type{reflect.TypeOf(int64(0))}, false)
	require.True(t, ok)
	assert.Equal(t, "Scale", member.Name)
	assert.Equal(t, 0, cost)
}

func TestResolveMethodRejectsIncompatibleArgs(t *testing.T) {
	a := NewGoAdapter()
	_, _, ok := a.ResolveMethod(reflect.TypeOf(widget{}), "Scale", []reflect.Type{reflect.TypeOf("nope")}, false)
	assert.False(t, ok)
}

func TestResolveMethodCaseInsensitive(t *testing.T) {
	a := NewGoAdapter()
	member, _, ok := a.ResolveMethod(reflect.TypeOf(widget{}), "describe", nil, true)
	require.True(t, ok)
	assert.Equal(t, "Describe", member.Name)

	_, _, ok = a.ResolveMethod(reflect.TypeOf(widget{}), "describe", nil, false)
	assert.False(t, ok, "case-sensitive lookup should not match a differently-cased name")
}

func TestExtensionMethodsMatchByExactType(t *testing.T) {
	a := NewGoAdapter()
	em := ExtensionMethod{Name: "Discounted", ParamTypes: nil, ReturnType: reflect.TypeOf(int64(0))}
	RegisterExtensionMethod(a, reflect.TypeOf(widget{}), em)

	got := a.ExtensionMethods(reflect.TypeOf(widget{}))
	require.Len(t, got, 1)
	assert.Equal(t, "Discounted", got[0].Name)

	assert.Empty(t, a.ExtensionMethods(reflect.TypeOf(0)))
}

func TestIsDynamicCapableViaPointerReceiver(t *testing.T) {
	a := NewGoAdapter()
	assert.True(t, a.IsDynamicCapable(reflect.TypeOf(dynbag.Bag{})))
	assert.False(t, a.IsDynamicCapable(reflect.TypeOf(widget{})))
}

func TestProbeDynamicMember(t *testing.T) {
	a := NewGoAdapter()
	bag := dynbag.New().Set("Greeting", "hi")

	val, ok := a.ProbeDynamicMember(bag, "Greeting")
	require.True(t, ok)
	assert.Equal(t, "hi", val)

	_, ok = a.ProbeDynamicMember(bag, "Missing")
	assert.False(t, ok)

	_, ok = a.ProbeDynamicMember(widget{}, "Anything")
	assert.False(t, ok, "a non-dynamic-capable instance should never probe positively")
}

func TestConversionCostDelegatesToExprtypes(t *testing.T) {
	a := NewGoAdapter()
	assert.Equal(t, 0, a.ConversionCost(reflect.TypeOf(int64(0)), reflect.TypeOf(int64(0))))
	assert.Equal(t, -1, a.ConversionCost(reflect.TypeOf("x"), reflect.TypeOf(int64(0))))
}
