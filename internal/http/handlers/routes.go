package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"pricewatch/internal/config"
	applog "pricewatch/internal/log"
	"pricewatch/internal/metrics"
)

// NewApp builds the Fiber app with middleware and every route mounted.
func NewApp(db *sqlx.DB, cfg config.Config) *fiber.App {
	metrics.Init()
	d := NewDeps(db, cfg)

	app := fiber.New(fiber.Config{
		AppName:               "pricewatch",
		DisableStartupMessage: true,
		BodyLimit:             64 << 10,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Something went wrong. Please try again."
			if fe, ok := err.(*fiber.Error); ok && fe.Code < 500 {
				code, msg = fe.Code, fe.Message
			}
			c.Status(code)
			applog.Error(c, "server.error", err, nil)
			return c.JSON(fiber.Map{"success": false, "error": msg})
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New())
	app.Use(metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        positive(cfg.RateLimit, 60),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": "rate limit exceeded, retry soon"})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "health.fail", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", metrics.Handler())

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Get("/products/:id/prices", d.ProductHandler.Prices)

	writeLimiter := limiter.New(limiter.Config{
		Max:        positive(cfg.WriteRateLimit, 20),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return userID(c) + "|watch"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.watchlist.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": "Too many changes. Please try again later."})
		},
	})

	watch := api.Group("/watchlist", RequireUser(cfg.IdentityHeader, d.Users))
	watch.Get("/", d.WatchlistHandler.List)
	watch.Post("/", writeLimiter, d.WatchlistHandler.Add)
	watch.Post("/delete", writeLimiter, d.WatchlistHandler.Remove)
	watch.Delete("/", writeLimiter, d.WatchlistHandler.Remove)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Page not found"})
	})
	return app
}

func positive(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
