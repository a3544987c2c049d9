package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/usherbot/usher/internal/controllers"
)

type HTTPServerDependencies struct {
	AgentController   *controllers.AgentController
	SessionController *controllers.SessionController
}

// NewHTTPServer wires the OpenAI-compatible surface and the session
// management endpoints onto a fiber app.
func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "usher",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", deps.SessionController.Health)
	router.Get("/status", deps.SessionController.Status)
	router.Get("/tools", deps.SessionController.Tools)

	v1 := router.Group("/v1")
	v1.Post("/completions", deps.AgentController.Completion)
	v1.Post("/chat/completions", deps.AgentController.ChatCompletion)

	sessions := router.Group("/sessions")
	sessions.Get("/", deps.SessionController.ListSessions)
	sessions.Get("/:id", deps.SessionController.GetSession)
	sessions.Delete("/:id", deps.SessionController.DeleteSession)

	return router
}
