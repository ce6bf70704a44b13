package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/shipment"
)

// RegisterShipmentRoutes wires rate quoting, booking, tracking and
// cancellation endpoints.
func RegisterShipmentRoutes(r fiber.Router, h *shipment.Handler) {
	grp := r.Group("/shipments")
	grp.Post("/get-rates", h.GetRates)
	grp.Post("/create", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Get("/:id/track", h.Track)
	grp.Put("/:id/cancel", h.Cancel)
}
