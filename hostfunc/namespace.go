package hostfunc

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// DefaultNamespace is the import namespace a module expects for host
// bindings generated by wasm-bindgen style toolchains.
const DefaultNamespace = "wbg"

// Binding is a host function exported to guests under Name.
type Binding struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
	Func    api.GoModuleFunc
}

// Namespace is a named group of bindings, one import module from the
// guest's point of view.
type Namespace struct {
	Name     string
	Bindings []Binding
}

// NewNamespace declares a namespace holding the given bindings.
func NewNamespace(name string, bindings ...Binding) Namespace {
	return Namespace{Name: name, Bindings: bindings}
}

// DefaultNamespaces returns the import table supplied when nothing else is
// configured: the DefaultNamespace with no bindings.
func DefaultNamespaces() []Namespace {
	return []Namespace{NewNamespace(DefaultNamespace)}
}

// Lookup returns the binding registered under symbol.
func (ns Namespace) Lookup(symbol string) (Binding, bool) {
	for _, b := range ns.Bindings {
		if b.Name == symbol {
			return b, true
		}
	}
	return Binding{}, false
}

// I64Func adapts fn to an (i64) -> i64 binding.
func I64Func(name string, fn func(ctx context.Context, x int64) int64) Binding {
	return Binding{
		Name:    name,
		Params:  []api.ValueType{api.ValueTypeI64},
		Results: []api.ValueType{api.ValueTypeI64},
		Func: func(ctx context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI64(fn(ctx, int64(stack[0])))
		},
	}
}
