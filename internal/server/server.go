package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/ragstack/ragstack/internal/auth"
	"github.com/ragstack/ragstack/internal/controllers"
	"github.com/ragstack/ragstack/internal/middlewares"
	"github.com/ragstack/ragstack/internal/version"
)

type HTTPServerDependencies struct {
	ChatController *controllers.ChatController
	// DocumentController is nil when document search is not configured
	DocumentController *controllers.DocumentController
	TokenVerifier      auth.TokenVerifier
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "ragstack-api",
	})

	app.Use(cors.New())
	app.Use(logger.New())

	// Health check endpoint (no authentication required)
	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "ragstack-api",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := app.Group("/v1", middlewares.RequireAuth(deps.TokenVerifier))

	v1.Post("/agents/:agentID/chat", deps.ChatController.Chat)

	if deps.DocumentController != nil {
		v1.Post("/agents/:agentID/documents", deps.DocumentController.IndexDocument)
	}

	return app
}
