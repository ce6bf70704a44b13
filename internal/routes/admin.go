package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/admin"
)

// RegisterAdminRoutes wires the admin-only surface. The caller must have
// attached the admin authorization middleware to the group.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler) {
	r.Get("/stats", h.Stats)
	r.Get("/users", h.Users)
	r.Get("/users/:id", h.User)
	r.Put("/users/:id/toggle-status", h.ToggleUserStatus)
	r.Get("/shipments", h.Shipments)
	r.Get("/transactions", h.Transactions)
}
