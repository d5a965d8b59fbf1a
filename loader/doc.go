// Package loader fetches a WebAssembly module, instantiates it against a
// declared import table and calls one of its exports.
//
// # Overview
//
// A [Loader] owns a wazero runtime with the import namespaces already
// bound. Each run is a straight sequence with no retries:
//
//	fetch → instantiate → read exports → call → write result
//
// Every failure is returned as an [*Error] tagged with the [Phase] it
// happened in, so callers can tell a missing resource from an import
// mismatch or a missing export.
//
// # Basic Usage
//
//	l, err := loader.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Close(ctx)
//
//	// Writes hi(12) from ./identity.wasm as one line.
//	if err := l.Run(ctx, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// # Resources
//
// Resource names resolve against the working directory by default.
// [WithBaseDir] picks another directory and [WithBaseURL] fetches over
// HTTP instead:
//
//	l, _ := loader.New(ctx, loader.WithBaseURL("http://localhost:8080/"))
//
// # Imports
//
// The default import table is a single empty "wbg" namespace. Modules that
// need host functions get them through [WithNamespaces]; see the hostfunc
// package.
package loader
