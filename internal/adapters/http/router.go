package http

import (
	"errors"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	BodyLimit          int
	RateLimitPerMinute int // 0 disables rate limiting
}

// NewApp wires the middleware and routes of the API.
func NewApp(cfg RouterConfig, h *Handler, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Object Detection API with Gemini",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	useMiddleware(app, log)

	limited := rateLimiter(cfg.RateLimitPerMinute)

	app.Get("/", h.Root)
	app.Get("/health", h.Health)
	app.Post("/detect", limited, h.Detect)
	app.Post("/assets/create", limited, h.CreateAsset)
	app.Get("/asset", h.GetAsset)
	app.Get("/history", h.History)

	return app
}

// useMiddleware installs the middleware shared by every route. The request
// logger wraps recover so that panics are logged with their 500 status.
func useMiddleware(app *fiber.App, log logrus.FieldLogger) {
	app.Use(requestLogger(log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		AllowHeaders: "*",
	}))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func rateLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(domain.NewTooManyRequests("Rate limit exceeded, try again later"))
		},
	})
}

// requestLogger logs one line per request after the error handler has set
// the final status.
func requestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.IP(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Info("request")
		}
		return nil
	}
}
