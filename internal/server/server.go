// Package server assembles the Fiber application.
package server

import (
	"context"
	"errors"
	"time"

	"farmersmarket/internal/handlers"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Reviews  *services.ReviewService
	// Checks are reported by /health by name.
	Checks map[string]HealthCheck
}

// NewApp returns the Fiber app with every route registered.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "farmers-market",
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.RequestLogger())
	app.Use(recover.New())
	app.Use(middleware.LoadAccount(deps.Auth))

	app.Get("/health", healthHandler(deps.Checks))

	requireAuth := middleware.AuthRequired(deps.Auth)
	handlers.NewAuthHandler(deps.Auth).RegisterRoutes(app, requireAuth)
	handlers.NewPageHandler(deps.Auth, deps.Products, deps.Carts, deps.Orders, deps.Reviews).RegisterRoutes(app, requireAuth)
	handlers.NewProductHandler(deps.Products).RegisterRoutes(app, requireAuth)
	handlers.NewCartHandler(deps.Carts, deps.Orders).RegisterRoutes(app, requireAuth)
	handlers.NewOrderHandler(deps.Orders).RegisterRoutes(app, requireAuth)
	handlers.NewReviewHandler(deps.Reviews, deps.Products).RegisterRoutes(app, requireAuth)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
	})
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := fiber.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = "unhealthy"
				code = fiber.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":     status,
			"time":       time.Now().Format(time.RFC3339),
			"components": components,
		})
	}
}
