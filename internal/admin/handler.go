package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/identity"
	"github.com/parcelflow/parcelflow/internal/shipment"
	"github.com/parcelflow/parcelflow/internal/wallet"
)

// Handler exposes the admin endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an admin handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Stats returns platform-wide totals.
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"totalUsers":       stats.TotalUsers,
			"activeUsers":      stats.ActiveUsers,
			"totalShipments":   stats.TotalShipments,
			"shipmentsByState": stats.ShipmentsByState,
			"totalRevenue":     stats.TotalRevenue,
		},
	})
}

// Users lists customer accounts.
func (h *Handler) Users(c *fiber.Ctx) error {
	page, limit := pagination(c)
	users, total, err := h.service.Users(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	views := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"users":   views,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// User returns a single account.
func (h *Handler) User(c *fiber.Ctx) error {
	user, err := h.service.User(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "user": userView(user)})
}

// ToggleUserStatus flips an account between active and deactivated.
func (h *Handler) ToggleUserStatus(c *fiber.Ctx) error {
	user, err := h.service.ToggleUserStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	message := "user deactivated"
	if user.IsActive {
		message = "user activated"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "user": userView(user)})
}

// Shipments lists shipments across all users.
func (h *Handler) Shipments(c *fiber.Ctx) error {
	page, limit := pagination(c)
	shipments, total, err := h.service.Shipments(c.UserContext(), c.Query("status"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"shipments": shipment.NewViews(shipments),
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Transactions lists wallet transactions across all users.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	page, limit := pagination(c)
	entries, total, err := h.service.Transactions(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": wallet.EntryViews(entries),
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

func mapError(err error) error {
	if errors.Is(err, identity.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "user not found")
	}
	return err
}

func userView(u identity.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"phone":     u.Phone,
		"role":      u.Role,
		"isActive":  u.IsActive,
		"wallet":    fiber.Map{"balance": u.WalletBalance},
		"createdAt": u.CreatedAt.Format(time.RFC3339),
	}
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
