package hostfunc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ErrImportMismatch reports a guest import the registry cannot satisfy.
var ErrImportMismatch = errors.New("import mismatch")

// Registry holds the import namespaces offered to guest modules.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]Namespace
}

// NewRegistry creates a registry holding namespaces.
func NewRegistry(namespaces ...Namespace) *Registry {
	r := &Registry{namespaces: make(map[string]Namespace, len(namespaces))}
	for _, ns := range namespaces {
		r.Register(ns)
	}
	return r
}

// Register adds ns, replacing any namespace with the same name.
func (r *Registry) Register(ns Namespace) {
	r.mu.Lock()
	r.namespaces[ns.Name] = ns
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Namespace, bool) {
	r.mu.RLock()
	ns, ok := r.namespaces[name]
	r.mu.RUnlock()
	return ns, ok
}

// List returns the registered namespace names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every import of compiled against the registry. Function
// imports must name a registered namespace, a bound symbol and the same
// signature. Memory imports are never satisfiable.
func (r *Registry) Validate(compiled wazero.CompiledModule) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		ns, ok := r.namespaces[module]
		if !ok {
			return fmt.Errorf("%w: %s.%s: namespace %q not provided", ErrImportMismatch, module, name, module)
		}
		b, ok := ns.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s: symbol not bound", ErrImportMismatch, module, name)
		}
		if !slices.Equal(b.Params, def.ParamTypes()) || !slices.Equal(b.Results, def.ResultTypes()) {
			return fmt.Errorf("%w: %s.%s: signature %s, bound as %s", ErrImportMismatch, module, name,
				Signature(def.ParamTypes(), def.ResultTypes()), Signature(b.Params, b.Results))
		}
	}

	if mems := compiled.ImportedMemories(); len(mems) > 0 {
		module, name, _ := mems[0].Import()
		return fmt.Errorf("%w: %s.%s: memory imports are not supported", ErrImportMismatch, module, name)
	}

	return nil
}

// Instantiate builds one host module per namespace in rt. Namespaces
// without bindings still produce an (empty) host module so the guest can
// resolve the import module name.
func (r *Registry) Instantiate(ctx context.Context, rt wazero.Runtime) error {
	for _, name := range r.List() {
		ns, _ := r.Get(name)

		builder := rt.NewHostModuleBuilder(ns.Name)
		for _, b := range ns.Bindings {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(b.Func, b.Params, b.Results).
				WithName(b.Name).
				Export(b.Name)
		}

		if _, err := builder.Instantiate(ctx); err != nil {
			return fmt.Errorf("instantiate namespace %s: %w", ns.Name, err)
		}
	}
	return nil
}

// Signature formats a function type as "(i64) -> (i64)".
func Signature(params, results []api.ValueType) string {
	return "(" + typeNames(params) + ") -> (" + typeNames(results) + ")"
}

func typeNames(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
