package ports

import (
	"context"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// CoordinateConverter converts planar points between WGS84 and LV95.
// Output order always matches input order.
type CoordinateConverter interface {
	Convert(ctx context.Context, points []domain.PlanarPoint, from, to domain.CRS) ([]domain.PlanarPoint, error)
}

// ElevationProvider returns the path with elevation on every returned point,
// or an error. It never returns a partially populated path.
type ElevationProvider interface {
	Fetch(ctx context.Context, path domain.Path) (*domain.ElevationResult, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttlSeconds <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCacheCleared(ctx context.Context, event *domain.CacheClearedEvent) error
	PublishProfileComputed(ctx context.Context, event *domain.ProfileComputedEvent) error
}
