package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.Get(fiber.HeaderCacheControl); existing != "" {
			return err
		}
		if c.Response().StatusCode() >= 400 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics", path == "/ws":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		// Anything that depends on the caller's position or identity.
		case strings.HasSuffix(path, "/nearest"),
			strings.HasSuffix(path, "/by-distance"),
			strings.HasSuffix(path, "/nearby"),
			path == "/v1/route-preview":
			ttl = "private, max-age=30"

		case strings.HasPrefix(path, "/v1/reports"):
			ttl = "private, no-store"

		case strings.HasPrefix(path, "/v1/alerts"), path == "/v1/weather":
			ttl = "public, max-age=60" // refreshed every 10 min by the alerter

		case path == "/v1/map.geojson", path == "/v1/map.kml":
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/zones"), strings.HasPrefix(path, "/v1/hydration-points"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=120"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
