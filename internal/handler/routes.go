package handler

import (
	"docquiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Generation *GenerationHandler
	Usage      *UsageHandler
	Health     *HealthHandler
}

// RegisterRoutes mounts the API. A non-empty jwtSecret protects the /api group.
func RegisterRoutes(app *fiber.App, h Handlers, jwtSecret string) {
	if h.Health != nil {
		app.Get("/health", h.Health.Health)
	}

	api := app.Group("/api")
	if jwtSecret != "" {
		api.Use(middleware.RequireToken(jwtSecret))
	}
	api.Post("/generate", h.Generation.Generate)
	api.Post("/usage", h.Usage.CheckUsage)
}
