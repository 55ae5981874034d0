package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	natsadapter "github.com/samirrijal/elevprofile/internal/adapters/nats"
	"github.com/samirrijal/elevprofile/internal/bootstrap"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/pathio"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists the routes whose profiles are kept warm in the shared cache.
type Manifest struct {
	Routes []RouteEntry `json:"routes"`
}

// RouteEntry is one path to warm. Points may be given inline or in a file
// relative to the manifest.
type RouteEntry struct {
	Name     string          `json:"name"`
	Provider string          `json:"provider,omitempty"`
	File     string          `json:"file,omitempty"`
	Points   json.RawMessage `json:"points,omitempty"`
}

type route struct {
	name string
	kind domain.ProviderKind
	path domain.Path
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("elevprofile-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manifestPath := "routes.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	routes, err := loadManifest(manifestPath, cfg.Elevation.DefaultProvider)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	if cfg.Cache.Backend != config.BackendValkey {
		slog.Warn("cache backend is not shared, warmed entries are only visible to this process",
			"backend", cfg.Cache.Backend)
	}
	backend, closeCache, err := bootstrap.NewCacheBackend(cfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer closeCache()

	converter, err := bootstrap.NewConverter(cfg.Converter)
	if err != nil {
		log.Fatalf("converter: %v", err)
	}
	svc := usecases.NewElevationService(
		bootstrap.NewProviders(cfg, converter),
		usecases.NewElevationCache(backend, cfg.Cache.TTLSeconds),
	)

	slog.Info("elevation warmer starting", "routes", len(routes), "manifest", manifestPath)
	warmAll(ctx, svc, routes)

	if cfg.NATS.URL == "" {
		return
	}

	// Stay up and re-warm whenever any instance clears the cache.
	conn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer conn.Drain()

	sub, err := natsadapter.NewSubscriber(conn)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	rewarm := make(chan struct{}, 1)
	err = sub.SubscribeCacheCleared(ctx, func(ctx context.Context, ev *domain.CacheClearedEvent) error {
		slog.Info("cache cleared, scheduling re-warm", "origin", ev.Origin, "reason", ev.Reason)
		select {
		case rewarm <- struct{}{}:
		default: // a re-warm is already pending
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	for {
		select {
		case <-rewarm:
			warmAll(ctx, svc, routes)
		case <-ctx.Done():
			slog.Info("warmer stopped")
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Manifest loading
// ---------------------------------------------------------------------------

func loadManifest(path, defaultProvider string) ([]route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	routes := make([]route, 0, len(m.Routes))
	for i, e := range m.Routes {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("route-%d", i)
		}

		provider := e.Provider
		if provider == "" {
			provider = defaultProvider
		}
		kind, err := domain.ParseProviderKind(provider)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		raw := []byte(e.Points)
		if e.File != "" {
			file := e.File
			if !filepath.IsAbs(file) {
				file = filepath.Join(dir, file)
			}
			if raw, err = os.ReadFile(file); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("%s: neither points nor file given", name)
		}

		p, err := pathio.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		routes = append(routes, route{name: name, kind: kind, path: p})
	}
	return routes, nil
}

// ---------------------------------------------------------------------------
// Warming
// ---------------------------------------------------------------------------

// warmAll fetches every route through the service so results land in the
// cache. Failures are logged and do not stop the other routes.
func warmAll(ctx context.Context, svc *usecases.ElevationService, routes []route) {
	start := time.Now()
	var g errgroup.Group
	g.SetLimit(4)

	for _, r := range routes {
		g.Go(func() error {
			res, err := svc.FetchElevation(ctx, r.path, r.kind)
			if err != nil {
				slog.Warn("warm failed", "route", r.name, "provider", r.kind, "error", err)
				return nil
			}
			slog.Info("route warm", "route", r.name, "provider", r.kind, "source", res.Source, "points", len(res.Points))
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("warm pass complete", "routes", len(routes), "duration", time.Since(start).String())
}
