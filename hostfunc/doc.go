// Package hostfunc declares the import namespaces offered to guest modules.
//
// A guest resolves each function import by module name and symbol. A
// [Namespace] is one such module name with its [Binding]s, and a [Registry]
// collects the namespaces for a runtime.
//
// # Registry
//
//	registry := hostfunc.NewRegistry(hostfunc.DefaultNamespaces()...)
//	registry.Register(hostfunc.NewNamespace("env",
//	    hostfunc.I64Func("twice", func(ctx context.Context, x int64) int64 {
//	        return 2 * x
//	    }),
//	))
//
// # Validation
//
// [Registry.Validate] checks a compiled module's imports before
// instantiation so a missing namespace, an unbound symbol or a signature
// mismatch fails with [ErrImportMismatch] instead of a runtime link error.
// [Registry.Instantiate] then builds the host modules in a wazero runtime.
//
// The default import table is the "wbg" namespace with no bindings, which
// satisfies modules that import nothing.
package hostfunc
