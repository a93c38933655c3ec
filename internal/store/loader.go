// Package store loads and caches the two boundary feature collections
// (zip-level and county-level). All rejection paths resolve to nil: a
// missing or malformed dataset makes the engine degrade, never fail.
package store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/MeKo-Tech/affordmap/internal/kvcache"
	"github.com/MeKo-Tech/affordmap/internal/types"
)

const (
	maxBodySize     = 64 << 20 // 64MB, boundary files run tens of MB
	defaultCacheTTL = 7 * 24 * time.Hour
)

// Config configures the feature loader.
type Config struct {
	ZipURL    string
	CountyURL string
	// Cache is the persistent, reload-surviving store consulted before the
	// network. Optional; nil disables persistent caching.
	Cache kvcache.Store
	// CacheTTL bounds how long a cached collection is trusted (default 7d).
	CacheTTL time.Duration
	Logger   *slog.Logger
	// HTTPClient overrides the default retrying client, used in tests.
	HTTPClient *http.Client
}

// Loader fetches, validates, and caches feature collections. A successful
// load is memoized for the rest of the process; the zip and county caches
// are independent and loading one never touches the other.
type Loader struct {
	cfg    Config
	client *http.Client

	mu       sync.Mutex
	sessions map[types.CollectionKind]*types.FeatureCollection
}

// NewLoader creates a loader.
func NewLoader(cfg Config) *Loader {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 2
		rc.Logger = nil
		client = rc.StandardClient()
	}
	return &Loader{
		cfg:      cfg,
		client:   client,
		sessions: make(map[types.CollectionKind]*types.FeatureCollection),
	}
}

// Load returns the feature collection for kind, or nil when it is
// unavailable for any reason (fetch failure, 404, HTML error page, empty
// body, parse failure, wrong top-level shape). It never returns an error.
func (l *Loader) Load(ctx context.Context, kind types.CollectionKind) *types.FeatureCollection {
	l.mu.Lock()
	if fc, ok := l.sessions[kind]; ok {
		l.mu.Unlock()
		return fc
	}
	l.mu.Unlock()

	fc := l.loadFromCache(ctx, kind)
	if fc == nil {
		fc = l.loadFromNetwork(ctx, kind)
	}
	if fc == nil {
		return nil
	}

	l.mu.Lock()
	// Another caller may have raced us here; keep the first result so the
	// collection stays stable for the session.
	if existing, ok := l.sessions[kind]; ok {
		fc = existing
	} else {
		l.sessions[kind] = fc
	}
	l.mu.Unlock()
	return fc
}

// LoadZips is shorthand for Load with the zip-level collection.
func (l *Loader) LoadZips(ctx context.Context) *types.FeatureCollection {
	return l.Load(ctx, types.CollectionZips)
}

// LoadCounties is shorthand for Load with the county-level collection.
func (l *Loader) LoadCounties(ctx context.Context) *types.FeatureCollection {
	return l.Load(ctx, types.CollectionCounties)
}

func (l *Loader) loadFromCache(ctx context.Context, kind types.CollectionKind) *types.FeatureCollection {
	if l.cfg.Cache == nil {
		return nil
	}
	raw, ok, err := l.cfg.Cache.Get(ctx, cacheKey(kind))
	if err != nil {
		l.cfg.Logger.Warn("feature cache read failed", "kind", kind, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	// Cached bytes get the same shape validation as network bytes before
	// being trusted; a corrupt entry is just a miss.
	fc := decodeCollection([]byte(raw), kind)
	if fc == nil {
		l.cfg.Logger.Debug("feature cache entry invalid, refetching", "kind", kind)
		return nil
	}
	fc.Source = "cache"
	l.cfg.Logger.Debug("feature collection loaded from cache", "kind", kind, "features", fc.Count())
	return fc
}

func (l *Loader) loadFromNetwork(ctx context.Context, kind types.CollectionKind) *types.FeatureCollection {
	url := l.urlFor(kind)
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		l.cfg.Logger.Debug("feature request build failed", "kind", kind, "error", err)
		return nil
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.cfg.Logger.Debug("feature fetch failed", "kind", kind, "error", err)
		return nil
	}
	defer resp.Body.Close()

	// 404 means the dataset simply is not deployed; not an error.
	if resp.StatusCode != http.StatusOK {
		l.cfg.Logger.Debug("feature fetch non-success", "kind", kind, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		l.cfg.Logger.Debug("feature body read failed", "kind", kind, "error", err)
		return nil
	}

	fc := decodeCollection(body, kind)
	if fc == nil {
		l.cfg.Logger.Debug("feature payload rejected", "kind", kind, "bytes", len(body))
		return nil
	}
	fc.Source = "network"
	l.cfg.Logger.Debug("feature collection fetched", "kind", kind, "features", fc.Count())

	if l.cfg.Cache != nil {
		if err := l.cfg.Cache.Set(ctx, cacheKey(kind), string(body), l.cfg.CacheTTL); err != nil {
			l.cfg.Logger.Warn("feature cache write failed", "kind", kind, "error", err)
		}
	}
	return fc
}

func (l *Loader) urlFor(kind types.CollectionKind) string {
	switch kind {
	case types.CollectionZips:
		return l.cfg.ZipURL
	case types.CollectionCounties:
		return l.cfg.CountyURL
	default:
		return ""
	}
}

func cacheKey(kind types.CollectionKind) string {
	return "features:" + string(kind)
}
