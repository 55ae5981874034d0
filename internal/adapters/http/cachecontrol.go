package http

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"
)

// cachePolicy is the client caching contract of a route.
type cachePolicy struct {
	header string
	// etag enables conditional GETs. Only responses that change with
	// configuration, not with upstream data, get one.
	etag bool
}

var (
	policyNoCache   = cachePolicy{header: "no-cache"}
	policyNoStore   = cachePolicy{header: "no-store"}
	policyDocs      = cachePolicy{header: "public, max-age=3600", etag: true}
	policyProviders = cachePolicy{header: "public, max-age=60", etag: true}
)

// policyFor maps a request path onto its policy. Elevation and conversion
// results depend on upstream services and the server-side cache, so clients
// must not store them.
func policyFor(path string) (cachePolicy, bool) {
	switch {
	case path == "/v1/health" || path == "/v1/ready" || path == "/metrics":
		return policyNoCache, true
	case strings.HasPrefix(path, "/docs"):
		return policyDocs, true
	case path == "/v1/providers":
		return policyProviders, true
	case strings.HasPrefix(path, "/v1/") || path == "/graphql":
		return policyNoStore, true
	}
	return cachePolicy{}, false
}

// CacheHeadersMiddleware applies the route's Cache-Control header unless the
// handler set one, and answers 304 for unchanged ETag-enabled GETs.
func CacheHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		policy, ok := policyFor(c.Path())
		if !ok {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) == 0 {
			c.Set(fiber.HeaderCacheControl, policy.header)
		}

		if !policy.etag || err != nil || c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}
		etag := `W/"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
