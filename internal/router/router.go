package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-complaints-api/internal/config"
	"github.com/noah-isme/campus-complaints-api/internal/handler"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler          *handler.SessionHandler
	StudentComplaintHandler *handler.StudentComplaintHandler
	AdminComplaintHandler   *handler.AdminComplaintHandler
	SeedHandler             *handler.SeedHandler
	HealthProbes            map[string]handler.HealthProbe
	JWTMiddleware           fiber.Handler
	OptionalJWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	optionalJWT := deps.OptionalJWTMiddleware
	if optionalJWT == nil {
		optionalJWT = middleware.JWT(middleware.JWTConfig{Secret: cfg.JWTSecret, Optional: true})
	}

	if deps.SessionHandler == nil {
		return
	}

	deps.SessionHandler.Register(api.Group("/session", optionalJWT))

	loadSession := deps.SessionHandler.LoadSession()

	if deps.StudentComplaintHandler != nil {
		student := api.Group("/student", jwtMiddleware, loadSession, middleware.RequireRole(models.RoleStudent))
		deps.StudentComplaintHandler.Register(student)
	}

	if deps.AdminComplaintHandler != nil {
		admin := api.Group("/admin/complaints", jwtMiddleware, loadSession, middleware.RequireRole(models.RoleAdmin))
		deps.AdminComplaintHandler.Register(admin)
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/dev/seed"))
	}
}
