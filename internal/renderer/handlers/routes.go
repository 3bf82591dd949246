package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Routes
// ============================================================

// Register вешает маршруты сервиса рендера на app.
func Register(app *fiber.App, h *RenderHandler, ready Pinger) {
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(ready))

	api := app.Group("/api")
	api.Post("/parse", h.Parse)
	api.Get("/svg/:id", h.SVG)
}
