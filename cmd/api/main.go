package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/elevprofile/internal/adapters/http"
	natsadapter "github.com/samirrijal/elevprofile/internal/adapters/nats"
	"github.com/samirrijal/elevprofile/internal/bootstrap"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("elevprofile-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Coordinate conversion
	converter, err := bootstrap.NewConverter(cfg.Converter)
	if err != nil {
		log.Fatalf("converter: %v", err)
	}

	providers := bootstrap.NewProviders(cfg, converter)

	// Cache
	backend, closeCache, err := bootstrap.NewCacheBackend(cfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer closeCache()
	elevationCache := usecases.NewElevationCache(backend, cfg.Cache.TTLSeconds)

	opts := []usecases.Option{
		usecases.WithExistingCoverage(cfg.Elevation.PreferExistingCoverage),
		usecases.WithInstanceID(instanceID()),
	}

	// NATS
	var natsConn *natsadapter.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer natsConn.Close()
			opts = append(opts, usecases.WithEvents(natsConn))
		}
	}

	elevationSvc := usecases.NewElevationService(providers, elevationCache, opts...)

	// Each instance keeps its own memory cache, so clears made elsewhere are
	// replayed here. A shared valkey backend is already consistent.
	if natsConn != nil && cfg.Cache.Backend == config.BackendMemory {
		sub, err := natsadapter.NewSubscriber(natsConn.Conn())
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else if err := sub.SubscribeCacheCleared(ctx, elevationSvc.ApplyRemoteClear); err != nil {
			slog.Warn("subscribe cache events failed", "error", err)
		} else {
			defer sub.Close()
		}
	}

	defaultProvider, _ := domain.ParseProviderKind(cfg.Elevation.DefaultProvider)

	deps := &http.Dependencies{
		Elevation:       elevationSvc,
		Converter:       converter,
		DefaultProvider: defaultProvider,
		RequestTimeout:  config.Seconds(cfg.Server.RequestTimeout),
		Cache:           backend,
		Version:         version,
		RateLimit:       cfg.Server.RateLimit,
	}
	if natsConn != nil {
		deps.NATS = natsConn.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		BodyLimit:    8 * 1024 * 1024, // 8 MB, enough for ~50k points
		AppName:      "elevprofile API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting",
			"addr", addr,
			"version", version,
			"converter", cfg.Converter.Strategy,
			"cache", cfg.Cache.Backend,
			"providers", elevationSvc.Providers(),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Elevation requests can run up to the request timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.RequestTimeout)+5*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "elevprofile"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}
