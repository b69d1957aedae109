package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/fileutil"
	"github.com/quocvuong92/cmd-sage/internal/logging"
)

const maxCatalogSize = 64 << 20

// ModelsFetchError reports a catalog that could not be fetched, decoded or
// validated.
type ModelsFetchError struct {
	Message string
	Err     error
}

func (e *ModelsFetchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ModelsFetchError) Unwrap() error { return e.Err }

// Cache serves the catalog from a local file while it is younger than
// MaxAge and refetches it otherwise. Freshness is the file's mtime.
type Cache struct {
	path   string
	url    string
	client *http.Client
	maxAge time.Duration
	now    func() time.Time
	log    *logging.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithURL overrides the remote catalog endpoint.
func WithURL(url string) CacheOption {
	return func(c *Cache) { c.url = url }
}

// WithHTTPClient overrides the client used for fetches.
func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *Cache) { c.client = client }
}

// WithMaxAge overrides the freshness window.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *Cache) { c.maxAge = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache returns a cache backed by the file at path.
func NewCache(path string, opts ...CacheOption) *Cache {
	c := &Cache{
		path:   path,
		url:    constants.ModelsCatalogURL,
		client: logging.NewHTTPClient(constants.DefaultCatalogTimeout),
		maxAge: constants.ModelsCacheMaxAge,
		now:    time.Now,
		log:    logging.With(logging.Fields{"component": "models"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultPath is the cache file inside the state directory.
func DefaultPath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ModelsCacheFileName), nil
}

// GetModels returns provider's models. An empty slice means the catalog does
// not list the provider.
func (c *Cache) GetModels(ctx context.Context, provider string, forceRefresh bool) ([]ModelInfo, error) {
	catalog, err := c.Catalog(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return catalog.ModelsFor(provider), nil
}

// Catalog returns the whole catalog, fetching it when the local copy is
// missing, stale, unreadable or forceRefresh is set.
func (c *Cache) Catalog(ctx context.Context, forceRefresh bool) (Catalog, error) {
	if !forceRefresh {
		if catalog, ok := c.readFresh(); ok {
			return catalog, nil
		}
	}

	data, catalog, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// The fetched catalog is valid either way; a failed write only costs a
	// refetch next time.
	if err := fileutil.WriteFileAtomic(c.path, data, 0644, 0700); err != nil {
		c.log.Warn("could not write model catalog cache", logging.Fields{"path": c.path, "error": err.Error()})
	}
	return catalog, nil
}

func (c *Cache) readFresh() (Catalog, bool) {
	info, err := os.Stat(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("could not stat model catalog cache", logging.Fields{"error": err.Error()})
		}
		return nil, false
	}

	age := c.now().Sub(info.ModTime())
	if age >= c.maxAge {
		c.log.Debug("model catalog cache is stale", logging.Fields{"age": age.Round(time.Second).String()})
		return nil, false
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		c.log.Warn("could not read model catalog cache", logging.Fields{"error": err.Error()})
		return nil, false
	}
	catalog, err := Decode(data)
	if err != nil {
		c.log.Warn("ignoring invalid model catalog cache", logging.Fields{"error": err.Error()})
		return nil, false
	}

	c.log.Debug("model catalog cache hit", logging.Fields{"path": c.path})
	return catalog, true
}

func (c *Cache) fetch(ctx context.Context) ([]byte, Catalog, error) {
	c.log.Debug("fetching model catalog", logging.Fields{"url": c.url})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, nil, &ModelsFetchError{Message: "failed to create catalog request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.AppName)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, &ModelsFetchError{Message: "failed to fetch model catalog", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &ModelsFetchError{Message: fmt.Sprintf("model catalog request failed with status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, nil, &ModelsFetchError{Message: "failed to read model catalog", Err: err}
	}

	catalog, err := Decode(data)
	if err != nil {
		return nil, nil, &ModelsFetchError{Message: "model catalog has an unexpected shape", Err: err}
	}
	return data, catalog, nil
}
