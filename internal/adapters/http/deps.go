package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

// Pinger is a backend that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Elevation       *usecases.ElevationService
	Converter       ports.CoordinateConverter
	DefaultProvider domain.ProviderKind
	// RequestTimeout bounds elevation and conversion requests. Zero means 60s.
	RequestTimeout time.Duration
	NATS           *nats.Conn
	Cache          Pinger
	Version        string
	// OpenAPIPath serves this file instead of the embedded OpenAPI document.
	OpenAPIPath string
	// RateLimit is the per-IP request budget per minute. Zero means 120.
	RateLimit int
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return 60 * time.Second
}

func (d *Dependencies) defaultProvider() domain.ProviderKind {
	if d.DefaultProvider != "" {
		return d.DefaultProvider
	}
	return domain.ProviderPrimary
}
