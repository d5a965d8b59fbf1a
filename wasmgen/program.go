package wasmgen

// ExportName is the export the generated programs expose.
const ExportName = "hi"

// Program returns a module exporting ExportName as an i64 -> i64 function
// whose body is instrs.
func Program(instrs []Instruction) *Module {
	return &Module{
		Types:   []FuncType{{Params: []ValType{I64}, Results: []ValType{I64}}},
		Funcs:   []uint32{0},
		Exports: []Export{{Name: ExportName, Kind: KindFunc, FuncIdx: 0}},
		Code:    []Func{{Body: instrs}},
	}
}

// Identity returns the module whose export returns its argument unchanged.
func Identity() *Module {
	return Program([]Instruction{LocalGet(0)})
}
