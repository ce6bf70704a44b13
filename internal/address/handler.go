package address

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/terminal"
)

var validate = validator.New()

// Handler exposes address endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an address handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addressRequest struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required"`
	Line1         string `json:"line1" validate:"required"`
	Line2         string `json:"line2"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	Country       string `json:"country" validate:"required"`
	Zip           string `json:"zip"`
	IsResidential *bool  `json:"isResidential"`
	IsDefault     bool   `json:"isDefault"`
}

func (r addressRequest) toInput() Input {
	return Input{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		Line1:         r.Line1,
		Line2:         r.Line2,
		City:          r.City,
		State:         r.State,
		Country:       r.Country,
		Zip:           r.Zip,
		IsResidential: r.IsResidential,
		IsDefault:     r.IsDefault,
	}
}

// Create saves a new address for the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	userID, _ := c.Locals("user_id").(string)
	a, err := h.service.Create(c.UserContext(), userID, req.toInput())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "address": view(a)})
}

// List returns the caller's addresses.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	addresses, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	views := make([]fiber.Map, 0, len(addresses))
	for _, a := range addresses {
		views = append(views, view(a))
	}
	return c.JSON(fiber.Map{"success": true, "addresses": views})
}

// Get returns one of the caller's addresses.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	a, err := h.service.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "address": view(a)})
}

// Update edits one of the caller's addresses.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	userID, _ := c.Locals("user_id").(string)
	a, err := h.service.Update(c.UserContext(), userID, c.Params("id"), req.toInput())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "address": view(a)})
}

// Delete removes one of the caller's addresses.
func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.service.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}

// SetDefault makes an address the caller's default.
func (h *Handler) SetDefault(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	a, err := h.service.SetDefault(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "address": view(a)})
}

// Countries lists supported countries from the carrier aggregator.
func (h *Handler) Countries(c *fiber.Ctx) error {
	countries, err := h.service.Countries(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "countries": countries})
}

// States lists states for a country.
func (h *Handler) States(c *fiber.Ctx) error {
	states, err := h.service.States(c.UserContext(), c.Params("country"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "states": states})
}

// Cities lists cities for a country, optionally narrowed by ?state=.
func (h *Handler) Cities(c *fiber.Ctx) error {
	cities, err := h.service.Cities(c.UserContext(), c.Params("country"), c.Query("state"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "cities": cities})
}

func mapError(err error) error {
	var apiErr *terminal.APIError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "address not found")
	case errors.As(err, &apiErr):
		return fiber.NewError(http.StatusBadGateway, apiErr.Message)
	default:
		return err
	}
}

func view(a Address) fiber.Map {
	return fiber.Map{
		"id":            a.ID,
		"externalId":    a.ExternalID,
		"firstName":     a.FirstName,
		"lastName":      a.LastName,
		"email":         a.Email,
		"phone":         a.Phone,
		"line1":         a.Line1,
		"line2":         a.Line2,
		"city":          a.City,
		"state":         a.State,
		"country":       a.Country,
		"zip":           a.Zip,
		"isResidential": a.IsResidential,
		"isDefault":     a.IsDefault,
		"createdAt":     a.CreatedAt.Format(time.RFC3339),
		"updatedAt":     a.UpdatedAt.Format(time.RFC3339),
	}
}
