package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exeval-api/internal/config"
	"github.com/noah-isme/exeval-api/internal/handler"
	"github.com/noah-isme/exeval-api/internal/middleware"
	"github.com/noah-isme/exeval-api/internal/observability"
	"github.com/noah-isme/exeval-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoringModelHandler *handler.ScoringModelHandler
	EvaluationHandler   *handler.EvaluationHandler
	SubmissionHandler   *handler.SubmissionHandler
	AverageHandler      *handler.AverageHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ScoringModelHandler != nil {
		scoringModels := api.Group("/scoring-models", jwtMiddleware)
		// Writes are role-gated inside the service too; the middleware
		// keeps obviously unauthorized traffic off it.
		scoringModels.Use(func(c *fiber.Ctx) error {
			if c.Method() == fiber.MethodGet {
				return c.Next()
			}
			return middleware.RequireRole(service.RoleAdmin, service.RoleContentDeveloper)(c)
		})
		deps.ScoringModelHandler.Register(scoringModels)
	}

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware)
		deps.EvaluationHandler.Register(evaluations)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		// Per-user cap on the mutating scoring endpoints.
		scoringLimiter := middleware.RateLimit("scoring", 120, time.Minute)

		options := api.Group("/options", jwtMiddleware, scoringLimiter)
		deps.SubmissionHandler.RegisterOptions(options)

		comments := api.Group("/comments", jwtMiddleware, scoringLimiter)
		deps.SubmissionHandler.RegisterComments(comments)
	}

	if deps.AverageHandler != nil {
		averages := api.Group("/averages", jwtMiddleware)
		deps.AverageHandler.Register(averages)
	}
}
