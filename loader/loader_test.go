package loader_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/hirun/hostfunc"
	"github.com/caffeineduck/hirun/loader"
	"github.com/caffeineduck/hirun/wasmgen"
)

func writeModule(t *testing.T, dir, name string, m *wasmgen.Module) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), m.Encode(), 0o644))
}

func program(t *testing.T, tokens ...string) *wasmgen.Module {
	t.Helper()
	instrs, err := wasmgen.ParseTokens(tokens)
	require.NoError(t, err)
	return wasmgen.Program(instrs)
}

// withImport adds a (i64) -> i64 function import ns.name that "hi" calls.
func withImport(ns, name string) *wasmgen.Module {
	m := wasmgen.Program([]wasmgen.Instruction{wasmgen.LocalGet(0), wasmgen.Call(0)})
	m.Imports = []wasmgen.Import{{Module: ns, Name: name, TypeIdx: 0}}
	m.Exports[0].FuncIdx = 1
	return m
}

func newLoader(t *testing.T, opts ...loader.Option) *loader.Loader {
	t.Helper()
	ctx := context.Background()
	l, err := loader.New(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(ctx) })
	return l
}

func TestRunIdentity(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, loader.DefaultResource, wasmgen.Identity())

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	require.NoError(t, l.Run(context.Background(), &out))

	assert.Equal(t, "12\n", out.String())
}

func TestRunPassesTwelve(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, loader.DefaultResource, program(t, "x", "100", "*", "1", "+"))

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	require.NoError(t, l.Run(context.Background(), &out))

	assert.Equal(t, "1201\n", out.String())
}

func TestRunMissingResource(t *testing.T) {
	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(t.TempDir()))
	err := l.Run(context.Background(), &out)

	require.Error(t, err)
	phase, ok := loader.PhaseOf(err)
	require.True(t, ok)
	assert.Equal(t, loader.PhaseFetch, phase)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, out.String())
}

func TestRunImportMismatch(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, loader.DefaultResource, withImport(hostfunc.DefaultNamespace, "__wbindgen_throw"))

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	err := l.Run(context.Background(), &out)

	require.ErrorIs(t, err, loader.ErrImportMismatch)
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseInstantiate, phase)
	assert.Empty(t, out.String())
}

func TestRunMissingExport(t *testing.T) {
	dir := t.TempDir()
	m := wasmgen.Identity()
	m.Exports[0].Name = "ha"
	writeModule(t, dir, loader.DefaultResource, m)

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	err := l.Run(context.Background(), &out)

	require.ErrorIs(t, err, loader.ErrExportNotFound)
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseCall, phase)
	assert.Contains(t, err.Error(), "identity.wasm#hi")
	assert.Empty(t, out.String())
}

func TestRunMalformedModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.DefaultResource), []byte("not wasm"), 0o644))

	l := newLoader(t, loader.WithBaseDir(dir))
	err := l.Run(context.Background(), &bytes.Buffer{})

	require.Error(t, err)
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseInstantiate, phase)
}

func TestRunTrap(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, loader.DefaultResource, program(t, "x", "0", "/"))

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	err := l.Run(context.Background(), &out)

	require.Error(t, err)
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseCall, phase)
	assert.Contains(t, err.Error(), "divide by zero")
	assert.Empty(t, out.String())
}

func TestRunFuncCustomArgs(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "double.wasm", program(t, "x", "2", "*"))

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseDir(dir))
	require.NoError(t, l.RunFunc(context.Background(), &out, "double.wasm", "hi", -21))

	assert.Equal(t, "-42\n", out.String())
}

func TestRunWithHostNamespace(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, loader.DefaultResource, withImport(hostfunc.DefaultNamespace, "twice"))

	twice := hostfunc.I64Func("twice", func(_ context.Context, x int64) int64 { return 2 * x })

	var out bytes.Buffer
	l := newLoader(t,
		loader.WithBaseDir(dir),
		loader.WithNamespaces(hostfunc.NewNamespace(hostfunc.DefaultNamespace, twice)),
	)
	require.NoError(t, l.Run(context.Background(), &out))

	assert.Equal(t, "24\n", out.String())
}

func TestFetchFromBaseURL(t *testing.T) {
	bin := wasmgen.Identity().Encode()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static/identity.wasm" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/wasm")
		w.Write(bin)
	}))
	defer srv.Close()

	var out bytes.Buffer
	l := newLoader(t, loader.WithBaseURL(srv.URL+"/static/"), loader.WithHTTPClient(srv.Client()))
	require.NoError(t, l.Run(context.Background(), &out))
	assert.Equal(t, "12\n", out.String())

	data, err := l.Fetch(context.Background(), srv.URL+"/static/identity.wasm")
	require.NoError(t, err)
	assert.Equal(t, bin, data)
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := newLoader(t, loader.WithBaseURL(srv.URL))
	_, err := l.Fetch(context.Background(), loader.DefaultResource)

	require.Error(t, err)
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseFetch, phase)
	assert.Contains(t, err.Error(), "404")
}

func TestInstantiateExports(t *testing.T) {
	ctx := context.Background()
	m := wasmgen.Identity()
	m.Exports = append(m.Exports, wasmgen.Export{Name: "alias", Kind: wasmgen.KindFunc, FuncIdx: 0})

	l := newLoader(t)
	inst, mod, err := l.Instantiate(ctx, m.Encode())
	require.NoError(t, err)
	defer inst.Close(ctx)

	assert.Equal(t, []string{"alias", "hi"}, inst.Exports().Names())
	_, ok := inst.Exports().Func("hi")
	assert.True(t, ok)
	_, ok = inst.Exports().Func("missing")
	assert.False(t, ok)

	exports := mod.Exports()
	require.Len(t, exports, 2)
	assert.Equal(t, "hi", exports[1].Name)
	assert.Equal(t, "(i64) -> (i64)", exports[1].Signature())
	assert.Empty(t, mod.Imports())

	v, err := inst.Call(ctx, "alias", 7)
	require.NoError(t, err)
	n, ok := v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}

func TestModuleImports(t *testing.T) {
	ctx := context.Background()
	twice := hostfunc.I64Func("twice", func(_ context.Context, x int64) int64 { return 2 * x })
	l := newLoader(t, loader.WithNamespaces(hostfunc.NewNamespace("env", twice)))

	inst, mod, err := l.Instantiate(ctx, withImport("env", "twice").Encode())
	require.NoError(t, err)
	defer inst.Close(ctx)

	imports := mod.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, "env", imports[0].Module)
	assert.Equal(t, "twice", imports[0].Name)
}

func TestCallSignatureMismatch(t *testing.T) {
	ctx := context.Background()
	l := newLoader(t)
	inst, _, err := l.Instantiate(ctx, wasmgen.Identity().Encode())
	require.NoError(t, err)
	defer inst.Close(ctx)

	_, err = inst.Call(ctx, "hi")
	require.ErrorIs(t, err, loader.ErrSignatureMismatch)

	_, err = inst.Call(ctx, "hi", 1, 2)
	require.ErrorIs(t, err, loader.ErrSignatureMismatch)
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, err := loader.New(ctx)
	require.NoError(t, err)

	require.NoError(t, l.Close(ctx))
	require.NoError(t, l.Close(ctx))

	_, _, err = l.Instantiate(ctx, wasmgen.Identity().Encode())
	assert.True(t, errors.Is(err, loader.ErrClosed))
}

func TestCompileAndValidate(t *testing.T) {
	ctx := context.Background()
	l := newLoader(t)
	assert.Equal(t, []string{hostfunc.DefaultNamespace}, l.Namespaces())

	mod, err := l.Compile(ctx, withImport("env", "twice").Encode())
	require.NoError(t, err)
	assert.ErrorIs(t, l.Validate(mod), loader.ErrImportMismatch)

	mod, err = l.Compile(ctx, wasmgen.Identity().Encode())
	require.NoError(t, err)
	assert.NoError(t, l.Validate(mod))

	_, err = l.Compile(ctx, []byte{0x00})
	phase, _ := loader.PhaseOf(err)
	assert.Equal(t, loader.PhaseInstantiate, phase)
}
