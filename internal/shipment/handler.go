package shipment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

var validate = validator.New()

// Handler exposes shipment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a shipment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetRates quotes shipping rates for a prospective shipment.
func (h *Handler) GetRates(c *fiber.Ctx) error {
	var req getRatesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	rates, err := h.service.GetRates(c.UserContext(),
		req.PickupAddress.toInput(), req.DeliveryAddress.toInput(), req.Parcel.toInput())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "rates": rates})
}

// Create books a shipment paid from the wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	userID, _ := c.Locals("user_id").(string)
	shp, balance, err := h.service.Book(c.UserContext(), BookInput{
		UserID:          userID,
		PickupAddress:   req.PickupAddress.toInput(),
		DeliveryAddress: req.DeliveryAddress.toInput(),
		Parcel:          req.Parcel.toInput(),
		Rate:            req.Rate.toInput(),
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"shipment": NewView(shp),
		"wallet":   fiber.Map{"balance": balance},
	})
}

// List returns the caller's shipments with optional status filter.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	page, limit := pagination(c)

	shipments, total, err := h.service.List(c.UserContext(), userID, c.Query("status"), page, limit)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"shipments": NewViews(shipments),
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Get returns one of the caller's shipments.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	shp, err := h.service.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "shipment": NewView(shp)})
}

// Track returns live carrier tracking for one of the caller's shipments.
func (h *Handler) Track(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	tracking, err := h.service.Track(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "tracking": tracking})
}

// Cancel cancels one of the caller's shipments and refunds the wallet.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	shp, balance, err := h.service.Cancel(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "shipment cancelled and wallet refunded",
		"shipment": NewView(shp),
		"wallet":   fiber.Map{"balance": balance},
	})
}

func mapServiceError(err error) error {
	var apiErr *terminal.APIError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "shipment not found")
	case errors.Is(err, ErrInvalidState):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient wallet balance")
	case errors.Is(err, ErrBookingFailed), errors.Is(err, ErrPickupFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	case errors.Is(err, ErrConsistency):
		return fiber.NewError(http.StatusInternalServerError, "shipment processing failed, support has been notified")
	case errors.As(err, &apiErr):
		return fiber.NewError(http.StatusBadGateway, apiErr.Message)
	default:
		return err
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
