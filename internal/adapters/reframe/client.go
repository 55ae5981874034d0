// Package reframe converts coordinates through the swisstopo REFRAME web
// service, one request per point.
package reframe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// DefaultBaseURL is the public REFRAME endpoint.
const DefaultBaseURL = "https://geodesy.geo.admin.ch/reframe"

// Config configures a Client.
type Config struct {
	BaseURL string
	// Concurrency bounds in-flight requests. Defaults to 8.
	Concurrency int
	// RequestsPerSecond throttles request starts; 0 disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client implements ports.CoordinateConverter against REFRAME.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	concurrency int
	log         *slog.Logger
}

// New creates a REFRAME client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		concurrency: cfg.Concurrency,
		log:         cfg.Logger.With("component", "reframe"),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Convert issues one request per point concurrently and reassembles the
// results by input index. Any point that fails or comes back non-numeric
// fails the whole batch.
func (c *Client) Convert(ctx context.Context, points []domain.PlanarPoint, from, to domain.CRS) ([]domain.PlanarPoint, error) {
	var endpoint string
	switch {
	case from == domain.CRSWGS84 && to == domain.CRSLV95:
		endpoint = "/wgs84tolv95"
	case from == domain.CRSLV95 && to == domain.CRSWGS84:
		endpoint = "/lv95towgs84"
	default:
		return nil, domain.NewError(domain.KindUnsupportedConversion, "reframe convert",
			fmt.Errorf("%s -> %s", from, to))
	}

	start := time.Now()
	out := make([]domain.PlanarPoint, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range points {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			res, err := c.convertOne(gctx, endpoint, p)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewError(domain.KindConversionFailure, "reframe convert", err)
	}

	metrics.ConversionPoints.WithLabelValues("remote").Add(float64(len(points)))
	c.log.Debug("reframe batch converted",
		"points", len(points),
		"endpoint", endpoint,
		"duration", time.Since(start).String(),
	)
	return out, nil
}

// convertOne calls the service for a single point. The service names both
// output axes easting/northing, including longitude/latitude for WGS84.
func (c *Client) convertOne(ctx context.Context, endpoint string, p domain.PlanarPoint) (domain.PlanarPoint, error) {
	q := url.Values{}
	q.Set("easting", strconv.FormatFloat(p.X, 'f', -1, 64))
	q.Set("northing", strconv.FormatFloat(p.Y, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.PlanarPoint{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PlanarPoint{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PlanarPoint{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PlanarPoint{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return domain.PlanarPoint{}, fmt.Errorf("invalid JSON response")
	}

	x, err := number(gjson.GetBytes(body, "easting"))
	if err != nil {
		return domain.PlanarPoint{}, fmt.Errorf("easting: %w", err)
	}
	y, err := number(gjson.GetBytes(body, "northing"))
	if err != nil {
		return domain.PlanarPoint{}, fmt.Errorf("northing: %w", err)
	}
	return domain.PlanarPoint{X: x, Y: y}, nil
}

// number accepts JSON numbers and numeric strings.
func number(r gjson.Result) (float64, error) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Float()
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", r.Str)
		}
		f = v
	default:
		return 0, fmt.Errorf("missing or non-numeric value %q", r.Raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", r.Raw)
	}
	return f, nil
}
