package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/terminal"
)

// RegisterCarrierRoutes wires read-only carrier catalogue lookups, proxied
// straight from the aggregator.
func RegisterCarrierRoutes(r fiber.Router, carrier terminal.API) {
	grp := r.Group("/carriers")
	grp.Get("/", func(c *fiber.Ctx) error {
		carriers, err := carrier.Carriers(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "carriers": carriers})
	})
	grp.Get("/:id", func(c *fiber.Ctx) error {
		data, err := carrier.Carrier(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "carrier": data})
	})
}
