package loader

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/caffeineduck/hirun/hostfunc"
)

// Fixed parameters of the bootstrap run.
const (
	DefaultResource       = "identity.wasm"
	DefaultExport         = "hi"
	DefaultArg      int64 = 12
)

// Option configures a Loader at creation time.
type Option func(*config)

type config struct {
	baseDir          string
	baseURL          string
	httpClient       *http.Client
	namespaces       []hostfunc.Namespace
	logger           *zap.Logger
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // 0 = wazero default (65536 pages = 4GB)
}

func defaultConfig() config {
	return config{
		httpClient: http.DefaultClient,
		namespaces: hostfunc.DefaultNamespaces(),
	}
}

// WithBaseDir resolves resource names against dir instead of the working
// directory.
func WithBaseDir(dir string) Option {
	return func(c *config) {
		c.baseDir = dir
	}
}

// WithBaseURL fetches resources over HTTP relative to base, the way a
// browser resolves fetch("identity.wasm") against the page URL.
func WithBaseURL(base string) Option {
	return func(c *config) {
		c.baseURL = base
	}
}

// WithHTTPClient sets the client used with WithBaseURL.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithNamespaces replaces the default import table.
//
//	loader.New(ctx, loader.WithNamespaces(
//	    hostfunc.NewNamespace("wbg"),
//	    hostfunc.NewNamespace("env", hostfunc.I64Func("twice", twice)),
//	))
func WithNamespaces(namespaces ...hostfunc.Namespace) Option {
	return func(c *config) {
		c.namespaces = namespaces
	}
}

// WithLogger overrides the package logger for one Loader.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithDiskCache enables the persistent compilation cache.
// Optionally provide a custom directory; otherwise uses ~/.cache/hirun or XDG_CACHE_HOME/hirun.
func WithDiskCache(dir ...string) Option {
	return func(c *config) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit caps guest memory, in 64KB pages.
func WithMemoryLimit(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16
	MemoryLimit16MB  uint32 = 256
	MemoryLimit64MB  uint32 = 1024
	MemoryLimit256MB uint32 = 4096
	MemoryLimit1GB   uint32 = 16384
)
