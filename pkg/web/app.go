package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/vireohq/flowd/pkg/execution"
	"github.com/vireohq/flowd/pkg/persistence"
	"github.com/vireohq/flowd/pkg/registry"
)

// NewApp builds the fiber application with all API routes registered.
func NewApp(p persistence.Persistence, reg *registry.Registry, manager *execution.Manager) *fiber.App {
	handlers := NewAPIHandlers(p, reg, manager, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("flowd API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/validate", handlers.ValidateWorkflow)
	w.Post("/:id/executions", handlers.StartExecution)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/cancel", handlers.CancelExecution)

	app.Post("/validate", handlers.ValidateDefinition)
	app.Get("/handlers", handlers.GetHandlers)
	app.Get("/health", handlers.HealthCheck)

	return app
}
