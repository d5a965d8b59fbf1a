// Package hirun loads a WebAssembly module, calls one of its exports and
// prints the result.
//
// # Overview
//
// The hirun command fetches identity.wasm, instantiates it against a single
// empty "wbg" import namespace, calls hi(12), prints the value and then
// prints "finished". Any failure stops the run before "finished".
//
// # Basic Usage
//
//	l, _ := loader.New(ctx)
//	defer l.Close(ctx)
//
//	if err := l.Run(ctx, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("finished")
//
// # Generating Modules
//
//	instrs, _ := wasmgen.ParseTokens([]string{"x", "2", "*"})
//	os.WriteFile("identity.wasm", wasmgen.Program(instrs).Encode(), 0o644)
//
// See the [loader], [hostfunc] and [wasmgen] packages for details.
package hirun
