package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/shipment"
)

// Handler exposes the user dashboard endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a dashboard handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Stats returns the caller's shipping and spend summary.
func (h *Handler) Stats(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	stats, err := h.service.Stats(c.UserContext(), userID)
	if err != nil {
		return err
	}

	monthlyShipments := make([]fiber.Map, 0, len(stats.MonthlyShipments))
	for _, m := range stats.MonthlyShipments {
		monthlyShipments = append(monthlyShipments, fiber.Map{
			"year": m.Year, "month": m.Month, "count": m.Count, "totalCost": m.TotalCost,
		})
	}
	monthlySpend := make([]fiber.Map, 0, len(stats.MonthlySpend))
	for _, m := range stats.MonthlySpend {
		monthlySpend = append(monthlySpend, fiber.Map{
			"year": m.Year, "month": m.Month, "count": m.Count, "total": m.Total,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"wallet":           fiber.Map{"balance": stats.WalletBalance},
			"totalShipments":   stats.TotalShipments,
			"shipmentsByState": stats.ShipmentsByState,
			"totalSpent":       stats.TotalSpent,
			"recentShipments":  shipment.NewViews(stats.RecentShipments),
			"monthlyShipments": monthlyShipments,
			"monthlySpend":     monthlySpend,
		},
	})
}
