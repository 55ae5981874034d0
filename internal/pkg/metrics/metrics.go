package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elevprofile",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elevprofile",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Elevation pipeline metrics
	ElevationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "elevation",
		Name:      "requests_total",
		Help:      "Elevation requests by provider and outcome (ok, cache, or error kind)",
	}, []string{"provider", "outcome"})

	ExistingDataShortcuts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "elevation",
		Name:      "existing_data_shortcuts_total",
		Help:      "Requests answered from elevation already present on the path",
	})

	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Remote elevation batch/chunk calls by provider and HTTP status",
	}, []string{"provider", "status"})

	ProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elevprofile",
		Subsystem: "provider",
		Name:      "call_duration_seconds",
		Help:      "Duration of a single remote elevation batch/chunk call",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	ProviderPointsSubmitted = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elevprofile",
		Subsystem: "provider",
		Name:      "points_submitted",
		Help:      "Points submitted to a provider per fetch, after resampling",
		Buckets:   []float64{2, 50, 200, 500, 1000, 2000, 3000, 5000, 10000},
	}, []string{"provider"})

	ConversionPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "converter",
		Name:      "points_total",
		Help:      "Points converted between WGS84 and LV95 by strategy",
	}, []string{"strategy"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elevprofile",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "elevprofile",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// ObserveProviderCall records one remote call made by a provider.
func ObserveProviderCall(provider string, status int, started time.Time) {
	ProviderCalls.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	ProviderCallDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
