// Package bench measures the cost of each phase of a run.
//
// Benchmarks: go test -bench=. ./bench/
package bench

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/caffeineduck/hirun/loader"
	"github.com/caffeineduck/hirun/wasmgen"
)

func writeIdentity(b *testing.B) string {
	b.Helper()
	dir := b.TempDir()
	if err := os.WriteFile(filepath.Join(dir, loader.DefaultResource), wasmgen.Identity().Encode(), 0o644); err != nil {
		b.Fatal(err)
	}
	return dir
}

// --- Cold start: new loader (runtime + namespaces) per run ---

func BenchmarkRun_ColdStart(b *testing.B) {
	ctx := context.Background()
	dir := writeIdentity(b)

	for b.Loop() {
		l, err := loader.New(ctx, loader.WithBaseDir(dir))
		if err != nil {
			b.Fatal(err)
		}
		if err := l.Run(ctx, io.Discard); err != nil {
			b.Fatal(err)
		}
		l.Close(ctx)
	}
}

// --- Warm start: loader reused, module compiled once ---

func BenchmarkRun_WarmStart(b *testing.B) {
	ctx := context.Background()
	dir := writeIdentity(b)

	l, err := loader.New(ctx, loader.WithBaseDir(dir))
	if err != nil {
		b.Fatal(err)
	}
	defer l.Close(ctx)

	if err := l.Run(ctx, io.Discard); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if err := l.Run(ctx, io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Call only: one instance, repeated export calls ---

func BenchmarkCall(b *testing.B) {
	ctx := context.Background()
	l, err := loader.New(ctx)
	if err != nil {
		b.Fatal(err)
	}
	defer l.Close(ctx)

	inst, _, err := l.Instantiate(ctx, wasmgen.Identity().Encode())
	if err != nil {
		b.Fatal(err)
	}
	defer inst.Close(ctx)

	for b.Loop() {
		if _, err := inst.Call(ctx, loader.DefaultExport, loader.DefaultArg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeIdentity(b *testing.B) {
	for b.Loop() {
		wasmgen.Identity().Encode()
	}
}
