package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness along with the build version.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// readinessCheck probes one dependency. A nil probe means the dependency is
// not configured, which does not fail readiness.
type readinessCheck struct {
	name  string
	probe func(ctx context.Context) error
}

type checkResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	checks := []readinessCheck{{
		name: "providers",
		probe: func(context.Context) error {
			if deps.Elevation == nil || len(deps.Elevation.Providers()) == 0 {
				return errors.New("none configured")
			}
			return nil
		},
	}}

	cache := readinessCheck{name: "cache"}
	if deps.Cache != nil {
		cache.probe = deps.Cache.Ping
	}
	checks = append(checks, cache)

	nc := readinessCheck{name: "nats"}
	if deps.NATS != nil {
		nc.probe = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}
	return append(checks, nc)
}

// ReadyHandler answers 503 while any configured dependency is failing.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]checkResult, len(checks))
		ready := true
		for _, chk := range checks {
			if chk.probe == nil {
				results[chk.name] = checkResult{Status: "not configured"}
				continue
			}
			start := time.Now()
			err := chk.probe(ctx)
			res := checkResult{Status: "ok", Latency: time.Since(start).String()}
			if err != nil {
				res.Status = "error: " + err.Error()
				ready = false
			}
			results[chk.name] = res
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
			"checks": results,
		})
	}
}
