package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Fetch reads the named resource. Absolute http(s) URLs are fetched as-is;
// other names resolve against the base URL if one is configured, otherwise
// against the base directory.
func (l *Loader) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := l.fetch(ctx, name)
	if err != nil {
		return nil, &Error{Phase: PhaseFetch, Resource: name, Err: err}
	}
	l.log.Debug("fetched module", zap.String("resource", name), zap.Int("bytes", len(data)))
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, name string) ([]byte, error) {
	if u, err := url.Parse(name); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.fetchURL(ctx, u)
	}

	if l.cfg.baseURL != "" {
		base, err := url.Parse(l.cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		ref, err := url.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("parse resource name: %w", err)
		}
		return l.fetchURL(ctx, base.ResolveReference(ref))
	}

	path := name
	if !filepath.IsAbs(path) && l.cfg.baseDir != "" {
		path = filepath.Join(l.cfg.baseDir, path)
	}
	return os.ReadFile(path)
}

func (l *Loader) fetchURL(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.cfg.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
