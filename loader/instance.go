package loader

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/caffeineduck/hirun/hostfunc"
)

// Instance is an instantiated module.
type Instance struct {
	mod      api.Module
	resource string
	log      *zap.Logger
}

// Exports maps export names to callable functions.
type Exports map[string]api.Function

// Func returns the exported function name.
func (e Exports) Func(name string) (api.Function, bool) {
	fn, ok := e[name]
	return fn, ok
}

// Names returns the export names in sorted order.
func (e Exports) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exports returns the instance's function exports.
func (i *Instance) Exports() Exports {
	defs := i.mod.ExportedFunctionDefinitions()
	exports := make(Exports, len(defs))
	for name := range defs {
		exports[name] = i.mod.ExportedFunction(name)
	}
	return exports
}

// Call invokes export name with i64 arguments. The export must take exactly
// len(args) i64 parameters.
func (i *Instance) Call(ctx context.Context, name string, args ...int64) (Value, error) {
	wrap := func(err error) error {
		return &Error{Phase: PhaseCall, Resource: i.resource, Export: name, Err: err}
	}

	fn, ok := i.Exports().Func(name)
	if !ok {
		return Value{}, wrap(ErrExportNotFound)
	}

	def := fn.Definition()
	if !acceptsI64(def.ParamTypes(), len(args)) {
		return Value{}, wrap(fmt.Errorf("%w: %s called with %d i64 argument(s)",
			ErrSignatureMismatch, hostfunc.Signature(def.ParamTypes(), def.ResultTypes()), len(args)))
	}

	params := make([]uint64, len(args))
	for j, a := range args {
		params[j] = api.EncodeI64(a)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return Value{}, wrap(err)
	}
	i.log.Debug("called export", zap.String("export", name), zap.Int64s("args", args))

	return Value{Types: def.ResultTypes(), Raw: results}, nil
}

func acceptsI64(params []api.ValueType, n int) bool {
	if len(params) != n {
		return false
	}
	for _, p := range params {
		if p != api.ValueTypeI64 {
			return false
		}
	}
	return true
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

// Value is the result of an export call.
type Value struct {
	Types []api.ValueType
	Raw   []uint64
}

// Int64 returns the single integer result.
func (v Value) Int64() (int64, bool) {
	if len(v.Raw) != 1 {
		return 0, false
	}
	switch v.Types[0] {
	case api.ValueTypeI64:
		return int64(v.Raw[0]), true
	case api.ValueTypeI32:
		return int64(api.DecodeI32(v.Raw[0])), true
	default:
		return 0, false
	}
}

// String renders the results space-separated: integers as signed decimal,
// floats in the shortest exact form. No results render as "".
func (v Value) String() string {
	parts := make([]string, len(v.Raw))
	for j, raw := range v.Raw {
		parts[j] = formatValue(v.Types[j], raw)
	}
	return strings.Join(parts, " ")
}

func formatValue(t api.ValueType, raw uint64) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(raw)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(raw), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(raw)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(raw), 'g', -1, 64)
	default:
		return "0x" + strconv.FormatUint(raw, 16)
	}
}

// Module describes a compiled binary.
type Module struct {
	compiled wazero.CompiledModule
}

// FuncInfo describes an imported or exported function.
type FuncInfo struct {
	Module  string // import namespace; empty for exports
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Signature formats the function type, e.g. "(i64) -> (i64)".
func (f FuncInfo) Signature() string {
	return hostfunc.Signature(f.Params, f.Results)
}

// Imports lists the function imports in declaration order.
func (m *Module) Imports() []FuncInfo {
	defs := m.compiled.ImportedFunctions()
	infos := make([]FuncInfo, 0, len(defs))
	for _, def := range defs {
		module, name, _ := def.Import()
		infos = append(infos, FuncInfo{
			Module:  module,
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	return infos
}

// Exports lists the function exports sorted by name.
func (m *Module) Exports() []FuncInfo {
	defs := m.compiled.ExportedFunctions()
	infos := make([]FuncInfo, 0, len(defs))
	for name, def := range defs {
		infos = append(infos, FuncInfo{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}
