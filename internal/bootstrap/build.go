// Package bootstrap assembles adapters from configuration for the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/elevprofile/internal/adapters/geoadmin"
	"github.com/samirrijal/elevprofile/internal/adapters/google"
	"github.com/samirrijal/elevprofile/internal/adapters/lv95"
	"github.com/samirrijal/elevprofile/internal/adapters/memory"
	"github.com/samirrijal/elevprofile/internal/adapters/proj"
	"github.com/samirrijal/elevprofile/internal/adapters/reframe"
	"github.com/samirrijal/elevprofile/internal/adapters/valkey"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
)

// CacheBackend is a cache store that can also report its health.
type CacheBackend interface {
	ports.CacheService
	Ping(ctx context.Context) error
}

// NewConverter returns the coordinate converter selected by cfg.Strategy.
func NewConverter(cfg config.ConverterConfig) (ports.CoordinateConverter, error) {
	switch cfg.Strategy {
	case config.StrategyRemote:
		return reframe.New(reframe.Config{
			BaseURL:           cfg.ReframeURL,
			Concurrency:       cfg.Concurrency,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Timeout:           config.Seconds(cfg.Timeout),
			Logger:            slog.Default(),
		}), nil
	case config.StrategyProj:
		c, err := proj.NewConverter()
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", cfg.Strategy, err)
		}
		return c, nil
	case config.StrategyLocal, "":
		return lv95.NewConverter(), nil
	}
	return nil, fmt.Errorf("unknown converter strategy %q", cfg.Strategy)
}

// NewProviders builds every provider the configuration allows. The primary
// provider needs an API key and is left out without one.
func NewProviders(cfg *config.Config, conv ports.CoordinateConverter) map[domain.ProviderKind]ports.ElevationProvider {
	providers := map[domain.ProviderKind]ports.ElevationProvider{
		domain.ProviderRegional: geoadmin.New(geoadmin.Config{
			ProfileURL: cfg.GeoAdmin.ProfileURL,
			ChunkSize:  cfg.GeoAdmin.ChunkSize,
			Timeout:    config.Seconds(cfg.GeoAdmin.Timeout),
			Logger:     slog.Default(),
		}, conv),
	}
	if cfg.Google.APIKey == "" {
		slog.Warn("google.api_key not set, primary provider disabled")
		return providers
	}
	providers[domain.ProviderPrimary] = google.New(google.Config{
		BaseURL:   cfg.Google.BaseURL,
		APIKey:    cfg.Google.APIKey,
		BatchSize: cfg.Google.BatchSize,
		MaxPoints: cfg.Google.MaxPoints,
		MinPoints: cfg.Google.MinPoints,
		Timeout:   config.Seconds(cfg.Google.Timeout),
		Logger:    slog.Default(),
	})
	return providers
}

// NewCacheBackend opens the configured cache store. The returned close
// function is never nil.
func NewCacheBackend(cfg *config.Config) (CacheBackend, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendValkey:
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			return nil, func() {}, fmt.Errorf("valkey: %w", err)
		}
		return vc, vc.Close, nil
	case config.BackendMemory, "":
		return memory.New(), func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
