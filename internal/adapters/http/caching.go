package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule gives the default Cache-Control for paths starting with prefix,
// or equal to it when exact is set. The first matching rule wins.
type cacheRule struct {
	prefix string
	exact  bool
	value  string
}

var cacheRules = []cacheRule{
	{prefix: "/metrics", exact: true, value: "no-cache"},
	{prefix: "/ws", exact: true, value: "no-cache"},
	{prefix: "/graphql", exact: true, value: "private, max-age=0"},
	{prefix: "/v1/health", exact: true, value: "public, max-age=10"},
	// The road graph changes only on re-import.
	{prefix: "/directions", exact: true, value: "public, max-age=600"},
	{prefix: "/v1/directions", exact: true, value: "public, max-age=600"},
	{prefix: "/v1/places", value: "public, max-age=300"},
	{prefix: "/v1/search/", value: "public, max-age=3600"},
	// Presets follow the wall clock.
	{prefix: "/v1/light", value: "no-cache"},
	{prefix: "/docs", value: "public, max-age=3600"},
	{prefix: "/v1/", value: "public, max-age=300"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if r.exact && path == r.prefix || !r.exact && strings.HasPrefix(path, r.prefix) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware sets a default Cache-Control on GET responses whose
// handler did not set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return err
	}
}
