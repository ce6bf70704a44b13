package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/address"
)

// RegisterAddressRoutes wires the saved-address CRUD and location lookups.
// Static paths register before the :id routes so "countries" is never read as
// an address id.
func RegisterAddressRoutes(r fiber.Router, h *address.Handler) {
	grp := r.Group("/addresses")
	grp.Get("/countries", h.Countries)
	grp.Get("/states/:country", h.States)
	grp.Get("/cities/:country", h.Cities)

	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Put("/:id/set-default", h.SetDefault)
}
