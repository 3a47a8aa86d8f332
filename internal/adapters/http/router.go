package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/flyover/api"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
)

const apiVersion = "1.0.0"

// SetupRoutes registers the REST, GraphQL and map session routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	reqTimeout := time.Duration(deps.RequestTimeoutSeconds) * time.Second
	if reqTimeout <= 0 {
		reqTimeout = 15 * time.Second
	}
	rateLimit := deps.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	timed := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, reqTimeout)
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware(deps.logger()))
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		// One upgrade per page; the socket itself is long-lived.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/ws"
		},
	}))

	app.Use(securityHeaders)

	// Registered before caching so it sees the final Cache-Control.
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Map sessions fetch routes from the unversioned path.
	app.Get("/directions", timed(DirectionsHandler(deps)))

	v1 := app.Group("/v1")
	v1.Get("/directions", timed(DirectionsHandler(deps)))
	v1.Get("/places", timed(PlacesHandler(deps)))
	v1.Get("/search/tiers", SearchTiersHandler(deps))
	v1.Get("/light", LightHandler(deps))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, api.OpenAPI)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

func securityHeaders(c *fiber.Ctx) error {
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set("X-Frame-Options", "DENY")
	c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Set("X-API-Version", apiVersion)
	return c.Next()
}
