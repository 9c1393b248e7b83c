// Package main provides the opsnode API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/opsnode/opsnode/pkg/runner"
	"github.com/opsnode/opsnode/pkg/web"
)

type API struct {
	logger   *slog.Logger
	registry *registry.Registry
	runner   *runner.Runner
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, reg *registry.Registry, run *runner.Runner) *API {
	return &API{
		logger:   logger,
		registry: reg,
		runner:   run,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.registry, a.runner, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Opsnode API")
	})

	nodes := app.Group("/nodes")
	nodes.Get("/", handlers.GetNodes)
	nodes.Get("/:type/schema", handlers.GetNodeSchema)
	nodes.Post("/:type/execute", handlers.ExecuteNode)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
