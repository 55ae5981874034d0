package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

const (
	maxRequestPoints = 50000
	maxResampleCount = 10000
)

// ElevationRequest is the body of POST /v1/elevation.
type ElevationRequest struct {
	Points         domain.Path `json:"points"`
	Provider       string      `json:"provider,omitempty"`
	PreferExisting bool        `json:"prefer_existing,omitempty"`
	// Distance is the caller's own measurement of the path in meters. When
	// set, the profile series is scaled to end at it.
	Distance float64 `json:"distance,omitempty"`
}

// ElevationResponse is the result of POST /v1/elevation.
type ElevationResponse struct {
	Provider  domain.ProviderKind    `json:"provider"`
	Source    domain.ResultSource    `json:"source"`
	Points    domain.Path            `json:"points"`
	Distances []float64              `json:"distances,omitempty"`
	Bounds    domain.Bounds          `json:"bounds"`
	Profile   []domain.ProfileSample `json:"profile"`
	Stats     domain.ProfileStats    `json:"stats"`
}

// ElevationHandler returns an elevation profile for a path.
func ElevationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ElevationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Points) > maxRequestPoints {
			return errBadRequest(c, fmt.Sprintf("too many points (max %d)", maxRequestPoints))
		}
		if req.Distance < 0 {
			return errBadRequest(c, "distance must not be negative")
		}

		kind := deps.defaultProvider()
		if req.Provider != "" {
			k, err := domain.ParseProviderKind(req.Provider)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			kind = k
		}
		c.Locals(localProvider, string(kind))
		c.Locals(localPoints, len(req.Points))

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.requestTimeout())
		defer cancel()

		res, err := deps.Elevation.ResolveElevation(ctx, req.Points, kind, req.PreferExisting)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return newError(c, fiber.StatusGatewayTimeout, "timeout", "elevation request timed out")
			}
			return errFromDomain(c, err)
		}

		c.Locals(localSource, string(res.Source))
		profile, stats := usecases.BuildProfile(res, req.Distance)
		return c.JSON(ElevationResponse{
			Provider:  res.Provider,
			Source:    res.Source,
			Points:    res.Points,
			Distances: res.Distances,
			Bounds:    res.Points.Bounds(),
			Profile:   profile,
			Stats:     stats,
		})
	}
}

// ClearCacheHandler drops every cached elevation result. Subscribers are
// told through the cache-cleared event.
func ClearCacheHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Elevation.ClearCache(c.UserContext()); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ProvidersHandler lists the configured providers and the default one.
func ProvidersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"providers": deps.Elevation.Providers(),
			"default":   deps.defaultProvider(),
		})
	}
}

// ConvertRequest is the body of POST /v1/convert.
type ConvertRequest struct {
	Points []domain.PlanarPoint `json:"points"`
	From   string               `json:"from"`
	To     string               `json:"to"`
}

// ConvertHandler converts planar points between WGS84 and LV95.
func ConvertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ConvertRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Points) > maxRequestPoints {
			return errBadRequest(c, fmt.Sprintf("too many points (max %d)", maxRequestPoints))
		}
		from, err := domain.ParseCRS(req.From)
		if err != nil {
			return errFromDomain(c, err)
		}
		to, err := domain.ParseCRS(req.To)
		if err != nil {
			return errFromDomain(c, err)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.requestTimeout())
		defer cancel()

		out, err := deps.Converter.Convert(ctx, req.Points, from, to)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"from": from, "to": to, "points": out})
	}
}

// ResampleRequest is the body of POST /v1/resample.
type ResampleRequest struct {
	Points domain.Path `json:"points"`
	Count  int         `json:"count"`
}

// ResampleHandler redistributes a path's points at equal arc-length spacing.
func ResampleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ResampleRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Count > maxResampleCount {
			return errBadRequest(c, fmt.Sprintf("count must be at most %d", maxResampleCount))
		}
		if err := req.Points.Validate(); err != nil {
			return errFromDomain(c, err)
		}
		out, err := req.Points.Resample(req.Count)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"points": out, "length": out.Length()})
	}
}
