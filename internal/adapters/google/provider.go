// Package google fetches elevations from the Google Maps Elevation API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

const (
	DefaultBaseURL   = "https://maps.googleapis.com/maps/api/elevation/json"
	DefaultBatchSize = 512
	DefaultMaxPoints = 5000
	DefaultMinPoints = 200
)

// Config configures a Provider. Zero values fall back to the defaults above.
type Config struct {
	BaseURL   string
	APIKey    string
	BatchSize int
	MaxPoints int
	MinPoints int
	Timeout   time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Provider implements ports.ElevationProvider.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Google elevation provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > DefaultBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxPoints <= 0 {
		cfg.MaxPoints = DefaultMaxPoints
	}
	if cfg.MinPoints < 2 {
		cfg.MinPoints = DefaultMinPoints
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        cfg.Logger.With("provider", "google"),
	}
}

type elevationResponse struct {
	Results []struct {
		Elevation *float64 `json:"elevation"`
		Location  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		Resolution float64 `json:"resolution"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Sample applies the adaptive sampling policy: long paths are capped at
// MaxPoints, short ones are densified to MinPoints, the rest pass through.
func (p *Provider) Sample(path domain.Path) (domain.Path, error) {
	switch n := len(path); {
	case n > p.cfg.MaxPoints:
		return path.Resample(p.cfg.MaxPoints)
	case n <= p.cfg.MinPoints:
		return path.Resample(p.cfg.MinPoints)
	default:
		return path, nil
	}
}

// Fetch samples the path, then requests elevations batch by batch. Any
// failed batch fails the whole fetch.
func (p *Provider) Fetch(ctx context.Context, path domain.Path) (*domain.ElevationResult, error) {
	sampled, err := p.Sample(path)
	if err != nil {
		return nil, err
	}
	metrics.ProviderPointsSubmitted.WithLabelValues("google").Observe(float64(len(sampled)))

	start := time.Now()
	out := make(domain.Path, 0, len(sampled))
	batches := 0
	for lo := 0; lo < len(sampled); lo += p.cfg.BatchSize {
		hi := min(lo+p.cfg.BatchSize, len(sampled))
		elevations, err := p.fetchBatch(ctx, sampled[lo:hi])
		if err != nil {
			return nil, domain.ProviderErrorf("google fetch",
				"batch %d (points %d-%d): %w", batches, lo, hi-1, err)
		}
		for i, e := range elevations {
			pt := sampled[lo+i]
			out = append(out, domain.GeoPoint{Lat: pt.Lat, Lon: pt.Lon}.WithElevation(e))
		}
		batches++
	}

	p.log.Info("elevation fetched",
		"input_points", len(path),
		"points", len(out),
		"batches", batches,
		"duration", time.Since(start).String(),
	)
	return &domain.ElevationResult{Points: out}, nil
}

func (p *Provider) fetchBatch(ctx context.Context, batch domain.Path) ([]float64, error) {
	coords := make([][]float64, len(batch))
	for i, pt := range batch {
		coords[i] = []float64{pt.Lat, pt.Lon}
	}

	q := url.Values{}
	q.Set("locations", "enc:"+string(polyline.EncodeCoords(coords)))
	if p.cfg.APIKey != "" {
		q.Set("key", p.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("google", 0, started)
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveProviderCall("google", resp.StatusCode, started)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var er elevationResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if er.Status != "OK" {
		if er.ErrorMessage != "" {
			return nil, fmt.Errorf("status %s: %s", er.Status, er.ErrorMessage)
		}
		return nil, fmt.Errorf("status %s", er.Status)
	}
	if len(er.Results) != len(batch) {
		return nil, fmt.Errorf("got %d results for %d locations", len(er.Results), len(batch))
	}

	out := make([]float64, len(er.Results))
	for i, r := range er.Results {
		if r.Elevation == nil || math.IsNaN(*r.Elevation) || math.IsInf(*r.Elevation, 0) {
			return nil, fmt.Errorf("result %d has no elevation", i)
		}
		out[i] = *r.Elevation
	}
	return out, nil
}
