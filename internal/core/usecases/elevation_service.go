package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// DefaultExistingCoverage is the share of points that must already carry
// elevation before a path is returned without asking a provider.
const DefaultExistingCoverage = 0.8

// ErrUnknownProvider is returned when no provider is registered for a kind.
var ErrUnknownProvider = errors.New("no elevation provider configured")

var tracer = otel.Tracer("github.com/samirrijal/elevprofile/internal/core/usecases")

// ElevationService selects a provider, applies the cache and returns
// elevation-populated paths.
type ElevationService struct {
	providers map[domain.ProviderKind]ports.ElevationProvider
	cache     *ElevationCache
	events    ports.EventPublisher
	coverage  float64
	instance  string
}

// Option configures an ElevationService.
type Option func(*ElevationService)

// WithEvents publishes cache and profile events through p.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *ElevationService) { s.events = p }
}

// WithExistingCoverage overrides DefaultExistingCoverage.
func WithExistingCoverage(c float64) Option {
	return func(s *ElevationService) {
		if c > 0 && c <= 1 {
			s.coverage = c
		}
	}
}

// WithInstanceID tags published cache events so an instance can ignore its
// own clears when they come back from the broker.
func WithInstanceID(id string) Option {
	return func(s *ElevationService) { s.instance = id }
}

// NewElevationService creates a new ElevationService. cache may be nil.
func NewElevationService(providers map[domain.ProviderKind]ports.ElevationProvider, cache *ElevationCache, opts ...Option) *ElevationService {
	s := &ElevationService{
		providers: providers,
		cache:     cache,
		coverage:  DefaultExistingCoverage,
	}
	for _, o := range opts {
		o(s)
	}
	if cache != nil {
		cache.OnClear(s.publishCleared)
	}
	return s
}

// FetchElevation returns elevation for path from the cache or the provider
// selected by kind. Provider failures are returned untouched and never cached.
func (s *ElevationService) FetchElevation(ctx context.Context, path domain.Path, kind domain.ProviderKind) (*domain.ElevationResult, error) {
	ctx, span := tracer.Start(ctx, "ElevationService.FetchElevation")
	defer span.End()
	span.SetAttributes(
		attribute.String("elevation.provider", string(kind)),
		attribute.Int("elevation.points", len(path)),
	)

	if err := path.Validate(); err != nil {
		return nil, err
	}

	provider, ok := s.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}

	if cached, ok := s.cache.Get(ctx, kind, path); ok {
		span.SetAttributes(attribute.Bool("elevation.cache_hit", true))
		metrics.ElevationRequests.WithLabelValues(string(kind), "cache").Inc()
		cached.Source = domain.SourceCache
		return cached, nil
	}

	log := logging.FromContext(ctx)
	start := time.Now()
	res, err := provider.Fetch(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ElevationRequests.WithLabelValues(string(kind), domain.KindOf(err).String()).Inc()
		log.Warn("elevation fetch failed", "provider", kind, "points", len(path), "error", err)
		return nil, err
	}
	res.Provider = kind
	res.Source = domain.SourceProvider
	metrics.ElevationRequests.WithLabelValues(string(kind), "ok").Inc()
	log.Info("elevation fetched",
		"provider", kind,
		"points_in", len(path),
		"points_out", len(res.Points),
		"duration", time.Since(start).String(),
	)

	// The key is derived from the caller's path, not the provider's resampled one.
	if err := s.cache.Put(ctx, kind, path, res); err != nil {
		log.Warn("elevation cache write failed", "error", err)
	}
	s.publishComputed(ctx, kind, path, res)

	return res, nil
}

// ResolveElevation is FetchElevation with an optional short-circuit: when
// preferExisting is set and the path already carries usable elevation, the
// path is returned as-is without touching cache or provider.
func (s *ElevationService) ResolveElevation(ctx context.Context, path domain.Path, kind domain.ProviderKind, preferExisting bool) (*domain.ElevationResult, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if preferExisting && path.HasUsableElevation(s.coverage) {
		metrics.ExistingDataShortcuts.Inc()
		return &domain.ElevationResult{
			Provider: kind,
			Source:   domain.SourceExisting,
			Points:   path,
		}, nil
	}
	return s.FetchElevation(ctx, path, kind)
}

// ClearCache drops every cached result. Listeners registered on the cache,
// including the event publisher, are notified.
func (s *ElevationService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

// ApplyRemoteClear purges the local cache after another instance cleared
// its own. Events from this instance are ignored.
func (s *ElevationService) ApplyRemoteClear(ctx context.Context, ev *domain.CacheClearedEvent) error {
	if s.cache == nil || ev == nil || (s.instance != "" && ev.Origin == s.instance) {
		return nil
	}
	logging.FromContext(ctx).Info("purging elevation cache after remote clear", "origin", ev.Origin)
	return s.cache.Purge(ctx)
}

// Providers lists the configured provider kinds.
func (s *ElevationService) Providers() []domain.ProviderKind {
	out := make([]domain.ProviderKind, 0, len(s.providers))
	for _, k := range []domain.ProviderKind{domain.ProviderPrimary, domain.ProviderRegional} {
		if _, ok := s.providers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (s *ElevationService) publishCleared() {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev := &domain.CacheClearedEvent{ClearedAt: time.Now().UTC(), Reason: "explicit", Origin: s.instance}
	if err := s.events.PublishCacheCleared(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish cache cleared failed", "error", err)
	}
}

func (s *ElevationService) publishComputed(ctx context.Context, kind domain.ProviderKind, path domain.Path, res *domain.ElevationResult) {
	if s.events == nil {
		return
	}
	ev := &domain.ProfileComputedEvent{
		Provider:   kind,
		CacheKey:   Key(kind, path),
		Points:     len(res.Points),
		ComputedAt: time.Now().UTC(),
	}
	if err := s.events.PublishProfileComputed(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish profile computed failed", "error", err)
	}
}
