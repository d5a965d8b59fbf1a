package loader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/caffeineduck/hirun/hostfunc"
)

// Loader owns a wazero runtime with the import namespaces bound and a
// cache of compiled modules keyed by content.
type Loader struct {
	cfg      config
	log      *zap.Logger
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	registry *hostfunc.Registry
	compiled map[[sha256.Size]byte]wazero.CompiledModule
	mu       sync.RWMutex
	closed   bool
}

// New creates a Loader and binds its import namespaces.
func New(ctx context.Context, opts ...Option) (*Loader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.logger
	if log == nil {
		log = Logger()
	}

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	registry := hostfunc.NewRegistry(cfg.namespaces...)
	if err := registry.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		if cache != nil {
			cache.Close(ctx)
		}
		return nil, fmt.Errorf("bind imports: %w", err)
	}
	log.Debug("bound import namespaces", zap.Strings("namespaces", registry.List()))

	return &Loader{
		cfg:      cfg,
		log:      log,
		runtime:  rt,
		cache:    cache,
		registry: registry,
		compiled: make(map[[sha256.Size]byte]wazero.CompiledModule),
	}, nil
}

// Instantiate compiles bin, checks its imports against the declared
// namespaces and instantiates it. The returned Module describes the
// compiled binary.
func (l *Loader) Instantiate(ctx context.Context, bin []byte) (*Instance, *Module, error) {
	return l.instantiate(ctx, "", bin)
}

// Compile compiles bin without instantiating it.
func (l *Loader) Compile(ctx context.Context, bin []byte) (*Module, error) {
	compiled, err := l.getCompiled(ctx, bin)
	if err != nil {
		return nil, &Error{Phase: PhaseInstantiate, Err: err}
	}
	return &Module{compiled: compiled}, nil
}

// Validate reports whether the declared namespaces satisfy m's imports.
func (l *Loader) Validate(m *Module) error {
	return l.registry.Validate(m.compiled)
}

// Namespaces returns the names of the bound import namespaces.
func (l *Loader) Namespaces() []string {
	return l.registry.List()
}

// Load fetches and instantiates the named resource.
func (l *Loader) Load(ctx context.Context, resource string) (*Instance, *Module, error) {
	bin, err := l.Fetch(ctx, resource)
	if err != nil {
		return nil, nil, err
	}
	return l.instantiate(ctx, resource, bin)
}

func (l *Loader) instantiate(ctx context.Context, resource string, bin []byte) (*Instance, *Module, error) {
	wrap := func(err error) error {
		return &Error{Phase: PhaseInstantiate, Resource: resource, Err: err}
	}

	compiled, err := l.getCompiled(ctx, bin)
	if err != nil {
		return nil, nil, wrap(err)
	}

	if err := l.registry.Validate(compiled); err != nil {
		return nil, nil, wrap(err)
	}

	mod, err := l.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, nil, wrap(fmt.Errorf("instantiate: %w", err))
	}
	l.log.Debug("instantiated module",
		zap.String("resource", resource),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &Instance{mod: mod, resource: resource, log: l.log}, &Module{compiled: compiled}, nil
}

// getCompiled returns a cached compiled module, compiling if necessary.
func (l *Loader) getCompiled(ctx context.Context, bin []byte) (wazero.CompiledModule, error) {
	key := sha256.Sum256(bin)

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrClosed
	}
	if compiled, ok := l.compiled[key]; ok {
		l.mu.RUnlock()
		return compiled, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if compiled, ok := l.compiled[key]; ok {
		return compiled, nil
	}

	compiled, err := l.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	l.compiled[key] = compiled
	return compiled, nil
}

// Run performs the bootstrap sequence: fetch DefaultResource, instantiate
// it, call DefaultExport with DefaultArg and write the result as one line.
func (l *Loader) Run(ctx context.Context, w io.Writer) error {
	return l.RunFunc(ctx, w, DefaultResource, DefaultExport, DefaultArg)
}

// RunFunc is Run with an explicit resource, export and argument.
// Nothing is written unless every step succeeds.
func (l *Loader) RunFunc(ctx context.Context, w io.Writer, resource, export string, arg int64) error {
	inst, _, err := l.Load(ctx, resource)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	v, err := inst.Call(ctx, export, arg)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Close releases the runtime and every module it instantiated.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	if err := l.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if l.cache != nil {
		if err := l.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "hirun")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "hirun")
	}
	return filepath.Join(os.TempDir(), "hirun-cache")
}
