package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}

// chain returns a fresh handler slice so callers can share a prefix.
func chain(prefix []fiber.Handler, h ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(prefix)+len(h))
	out = append(out, prefix...)
	return append(out, h...)
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware(LegacyRoutes()))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// No timeout on fast internal checks
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	authed := []fiber.Handler{RequireAuth(deps.Auth)}
	admin := chain(authed, RequireRole(deps.Auth.AdminRole))

	v1 := app.Group("/v1")
	registerLocationRoutes(v1.Group("/zones"), deps, domain.KindCoolZone, admin)
	registerLocationRoutes(v1.Group("/hydration-points"), deps, domain.KindHydrationPoint, admin)

	v1.Get("/route-preview", withTimeout(RoutePreviewHandler(deps)))
	v1.Get("/map.geojson", withTimeout(MapGeoJSONHandler(deps)))
	v1.Get("/map.kml", withTimeout(MapKMLHandler(deps)))
	v1.Get("/weather", withTimeout(WeatherHandler(deps)))

	reports := v1.Group("/reports", authed...)
	reports.Post("/", withTimeout(SubmitReportHandler(deps)))
	reports.Get("/", withTimeout(ListReportsHandler(deps)))
	reports.Get("/:id", withTimeout(GetReportHandler(deps)))
	reports.Post("/:id/validate", RequireRole(deps.Auth.AdminRole), withTimeout(ValidateReportHandler(deps)))
	reports.Post("/:id/reject", RequireRole(deps.Auth.AdminRole), withTimeout(RejectReportHandler(deps)))
	reports.Delete("/:id", RequireRole(deps.Auth.AdminRole), withTimeout(DeleteReportHandler(deps)))

	v1.Get("/alerts", withTimeout(ListAlertsHandler(deps)))
	v1.Get("/alerts/current", withTimeout(CurrentAlertHandler(deps)))
	v1.Get("/alerts/:id", withTimeout(GetAlertHandler(deps)))
	v1.Post("/alerts", chain(admin, withTimeout(CreateAlertHandler(deps)))...)
	v1.Delete("/alerts/:id", chain(admin, withTimeout(DeleteAlertHandler(deps)))...)

	// Original unversioned read endpoints
	app.Get("/zonas_frescas", withTimeout(ListLocationsHandler(deps, domain.KindCoolZone)))
	app.Get("/zonas_frescas/:id", withTimeout(GetLocationHandler(deps, domain.KindCoolZone)))
	app.Get("/puntos_hidratacion", withTimeout(ListLocationsHandler(deps, domain.KindHydrationPoint)))
	app.Get("/puntos_hidratacion/:id", withTimeout(GetLocationHandler(deps, domain.KindHydrationPoint)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
