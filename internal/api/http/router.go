package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salon-token-service/internal/api/http/handlers"
	"github.com/spec-kit/salon-token-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokensHandler
	Queues         *handlers.QueuesHandler
	Auth           *handlers.AuthHandler
	OTP            *handlers.OTPHandler
	Services       *handlers.ServicesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Serve operations require an admin
// session; submission and the read-side board endpoints are public.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	api.Post("/auth/login", cfg.Auth.Login)

	api.Post("/otp/send", cfg.OTP.Send)
	api.Post("/otp/verify", cfg.OTP.Verify)

	api.Get("/services", cfg.Services.List)

	api.Post("/tokens", cfg.Tokens.Submit)
	api.Get("/tokens/:id", cfg.Tokens.Get)
	api.Post("/tokens/:id/serve", cfg.AuthMiddleware.Handle, cfg.Tokens.Serve)

	api.Post("/queues/:queue/serve-next", cfg.AuthMiddleware.Handle, cfg.Queues.ServeNext)
	api.Get("/queues/:queue/waiting", cfg.Queues.Waiting)
	api.Get("/queues/:queue/serving", cfg.Queues.Serving)
	api.Get("/queues/:queue/recent", cfg.Queues.Recent)
}
