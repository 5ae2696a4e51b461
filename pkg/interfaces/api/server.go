// Package api exposes plan and weighing evaluation and submission over HTTP.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/services/orchestration"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/infrastructure/config"
)

// NewApp creates the fiber app with recovery, request logging and the JSON error handler
func NewApp(cfg config.ServerConfig, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "packplan",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	return app
}

// MetricsHandler serves the Prometheus exposition for g
func MetricsHandler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// SetupRoutes registers the health, API and optional metrics routes
func SetupRoutes(app *fiber.App, o *orchestration.SubmissionOrchestrator, metricsPath string, metrics fiber.Handler) {
	app.Get("/healthz", HealthCheckHandler)
	if metrics != nil {
		app.Get(metricsPath, metrics)
	}

	v1 := app.Group("/api/v1")
	plans := v1.Group("/plans")
	plans.Post("/evaluate", EvaluatePlanHandler(o))
	plans.Post("/submit", SubmitPlanHandler(o))

	weighings := v1.Group("/weighings")
	weighings.Post("/evaluate", EvaluateWeighingHandler(o))
	weighings.Post("/submit", SubmitWeighingHandler(o))
}

// statusFor maps engine errors onto HTTP status codes
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, orchestration.ErrInvalidRequest),
		errors.Is(err, entities.ErrInvalidOperation),
		errors.Is(err, entities.ErrInvalidQuantity),
		errors.Is(err, entities.ErrInvalidWindow),
		errors.Is(err, entities.ErrIndexOutOfRange),
		errors.Is(err, entities.ErrAboveCeiling):
		return fiber.StatusBadRequest
	case errors.Is(err, entities.ErrNotSubmittable),
		errors.Is(err, entities.ErrPendingReconciliation):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			message = "Internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    code,
				"message": message,
			},
		})
	}
}
