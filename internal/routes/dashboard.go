package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/dashboard"
)

// RegisterDashboardRoutes wires the user statistics endpoint.
func RegisterDashboardRoutes(r fiber.Router, h *dashboard.Handler) {
	r.Get("/dashboard/stats", h.Stats)
}
