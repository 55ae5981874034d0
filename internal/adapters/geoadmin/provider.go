// Package geoadmin fetches elevation profiles from the swisstopo profile
// service (api3.geo.admin.ch). The service only covers Switzerland and works
// in LV95, so paths are converted on the way in and out.
package geoadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

const (
	DefaultProfileURL = "https://api3.geo.admin.ch/rest/services/profile.json"
	// DefaultChunkSize stays well below the service's 5000 point limit.
	DefaultChunkSize = 3000
	maxChunkSize     = 5000
)

// Config configures a Provider.
type Config struct {
	ProfileURL string
	ChunkSize  int
	Timeout    time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Provider implements ports.ElevationProvider.
type Provider struct {
	cfg        Config
	converter  ports.CoordinateConverter
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a GeoAdmin provider converting through conv.
func New(cfg Config, conv ports.CoordinateConverter) *Provider {
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = DefaultProfileURL
	}
	if cfg.ChunkSize < 2 || cfg.ChunkSize > maxChunkSize {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Provider{
		cfg:        cfg,
		converter:  conv,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        cfg.Logger.With("provider", "geoadmin"),
	}
}

// sample is one element of the profile.json response.
type sample struct {
	Dist     *float64 `json:"dist"`
	Easting  *float64 `json:"easting"`
	Northing *float64 `json:"northing"`
	Alts     struct {
		COMB  *float64 `json:"COMB"`
		DTM2  *float64 `json:"DTM2"`
		DTM25 *float64 `json:"DTM25"`
	} `json:"alts"`
}

// Fetch converts the path to LV95, requests the profile chunk by chunk and
// returns the stitched samples converted back to WGS84.
func (p *Provider) Fetch(ctx context.Context, path domain.Path) (*domain.ElevationResult, error) {
	start := time.Now()

	lv95, err := p.converter.Convert(ctx, domain.ToPlanarWGS84(path), domain.CRSWGS84, domain.CRSLV95)
	if err != nil {
		return nil, err
	}

	inside := false
	for _, pt := range lv95 {
		if domain.LV95Bounds.Contains(pt) {
			inside = true
			break
		}
	}
	if !inside {
		return nil, domain.NewError(domain.KindOutOfCoverage, "geoadmin fetch",
			fmt.Errorf("all %d points are outside Switzerland", len(lv95)))
	}
	metrics.ProviderPointsSubmitted.WithLabelValues("geoadmin").Observe(float64(len(lv95)))

	var (
		planar    []domain.PlanarPoint
		distances []float64
		elevs     []float64
		offset    float64
		chunks    int
		dropped   int
	)
	for _, chunk := range Chunks(lv95, p.cfg.ChunkSize) {
		samples, err := p.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, domain.ProviderErrorf("geoadmin fetch", "chunk %d: %w", chunks, err)
		}

		last := 0.0
		for i, s := range samples {
			if s.Dist != nil && finite(*s.Dist) {
				last = max(last, *s.Dist)
			}
			// Chunks overlap by one point; the first sample repeats the
			// previous chunk's last one.
			if chunks > 0 && i == 0 {
				continue
			}
			if s.Easting == nil || s.Northing == nil || !finite(*s.Easting) || !finite(*s.Northing) {
				dropped++
				continue
			}
			d := offset
			if s.Dist != nil && finite(*s.Dist) {
				d += *s.Dist
			}
			if n := len(distances); n > 0 && d < distances[n-1] {
				d = distances[n-1]
			}
			elev := 0.0
			if s.Alts.COMB != nil && finite(*s.Alts.COMB) {
				elev = *s.Alts.COMB
			}
			planar = append(planar, domain.PlanarPoint{X: *s.Easting, Y: *s.Northing})
			distances = append(distances, d)
			elevs = append(elevs, elev)
		}
		offset += last
		chunks++
	}

	if len(planar) == 0 {
		return nil, domain.NewError(domain.KindNoValidData, "geoadmin fetch",
			fmt.Errorf("no usable samples in %d chunk(s)", chunks))
	}

	wgs, err := p.converter.Convert(ctx, planar, domain.CRSLV95, domain.CRSWGS84)
	if err != nil {
		return nil, err
	}

	points := make(domain.Path, len(wgs))
	for i, w := range wgs {
		points[i] = domain.GeoPoint{Lat: w.Y, Lon: w.X}.WithElevation(elevs[i])
	}

	p.log.Info("profile fetched",
		"input_points", len(path),
		"points", len(points),
		"chunks", chunks,
		"dropped", dropped,
		"duration", time.Since(start).String(),
	)
	return &domain.ElevationResult{Points: points, Distances: distances}, nil
}

// Chunks splits points into groups of at most size, each group starting with
// the last point of the previous one so the profile stays continuous.
func Chunks(points []domain.PlanarPoint, size int) [][]domain.PlanarPoint {
	if len(points) == 0 {
		return nil
	}
	if size < 2 {
		size = 2
	}
	var out [][]domain.PlanarPoint
	start := 0
	for {
		end := min(start+size, len(points))
		out = append(out, points[start:end])
		if end == len(points) {
			return out
		}
		start = end - 1
	}
}

func (p *Provider) fetchChunk(ctx context.Context, chunk []domain.PlanarPoint) ([]sample, error) {
	ls := make(orb.LineString, len(chunk))
	for i, pt := range chunk {
		ls[i] = orb.Point{pt.X, pt.Y}
	}
	body, err := json.Marshal(geojson.NewGeometry(ls))
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}

	q := url.Values{}
	q.Set("sr", "2056")
	q.Set("nb_points", strconv.Itoa(len(chunk)))
	q.Set("distinct_points", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.ProfileURL+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("geoadmin", 0, started)
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveProviderCall("geoadmin", resp.StatusCode, started)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var samples []sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return samples, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
