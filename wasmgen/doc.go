// Package wasmgen encodes small WebAssembly binary modules.
//
// It covers the subset needed to emit single-purpose arithmetic modules:
// function types over i32/i64, function imports, function and export
// declarations, and code bodies built from local.get, i64.const and the
// i64 arithmetic instructions.
//
// # Generating a module
//
//	instrs, err := wasmgen.ParseTokens([]string{"x", "2", "*"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bin := wasmgen.Program(instrs).Encode()
//	os.WriteFile("identity.wasm", bin, 0o644)
//
// [Identity] returns the module whose "hi" export returns its argument.
package wasmgen
