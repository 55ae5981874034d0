package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/elevprofile/internal/pkg/logging"
)

// Locals keys handlers set to enrich the access log line.
const (
	localProvider = "elevation.provider"
	localSource   = "elevation.source"
	localPoints   = "elevation.points"
)

// RequestLogger installs a request-scoped *slog.Logger tagged with the Fiber
// request ID, which usecases reach through logging.FromContext, and writes
// one access line per request once the handler returns. Must run after
// requestid.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		log := slog.Default()
		if rid, _ := c.Locals("requestid").(string); rid != "" {
			log = log.With("request_id", rid)
		}
		ctx := logging.WithLogger(c.UserContext(), log)
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if p, ok := c.Locals(localProvider).(string); ok {
			attrs = append(attrs, slog.String("provider", p))
		}
		if s, ok := c.Locals(localSource).(string); ok {
			attrs = append(attrs, slog.String("source", s))
		}
		if n, ok := c.Locals(localPoints).(int); ok {
			attrs = append(attrs, slog.Int("points", n))
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "request", attrs...)

		return err
	}
}
