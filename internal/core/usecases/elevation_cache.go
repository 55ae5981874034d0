package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

const elevationKeyPrefix = "elevation:"

// ElevationCache memoizes elevation results by path fingerprint.
// Entries are kept until Clear; there is no size bound.
type ElevationCache struct {
	backend ports.CacheService
	ttl     int

	mu        sync.Mutex
	listeners []func()
}

// NewElevationCache wraps a cache backend. ttlSeconds <= 0 disables expiry.
func NewElevationCache(backend ports.CacheService, ttlSeconds int) *ElevationCache {
	return &ElevationCache{backend: backend, ttl: ttlSeconds}
}

// Key derives the backend key for a path and provider. The rounded
// fingerprint is hashed so that long paths produce short keys.
func Key(kind domain.ProviderKind, path domain.Path) string {
	sum := sha256.Sum256([]byte(path.CacheKey()))
	return elevationKeyPrefix + string(kind) + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for path, if any. Backend and decode errors
// count as misses.
func (c *ElevationCache) Get(ctx context.Context, kind domain.ProviderKind, path domain.Path) (*domain.ElevationResult, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}
	key := Key(kind, path)
	data, err := c.backend.Get(ctx, key)
	if err != nil || len(data) == 0 {
		metrics.CacheMisses.WithLabelValues("elevation").Inc()
		return nil, false
	}
	var res domain.ElevationResult
	if err := json.Unmarshal(data, &res); err != nil {
		slog.WarnContext(ctx, "dropping undecodable cache entry", "error", err)
		if err := c.backend.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "cache delete failed", "error", err)
		}
		metrics.CacheMisses.WithLabelValues("elevation").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("elevation").Inc()
	return &res, true
}

// Put stores res under the fingerprint of path.
func (c *ElevationCache) Put(ctx context.Context, kind domain.ProviderKind, path domain.Path, res *domain.ElevationResult) error {
	if c == nil || c.backend == nil {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, Key(kind, path), data, c.ttl)
}

// OnClear registers fn to run after every successful Clear.
func (c *ElevationCache) OnClear(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Purge drops every cached elevation result without notifying listeners.
func (c *ElevationCache) Purge(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.DeletePrefix(ctx, elevationKeyPrefix)
}

// Clear drops every cached elevation result and notifies listeners.
func (c *ElevationCache) Clear(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.Purge(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	return nil
}
