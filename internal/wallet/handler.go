package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/paystack"
)

var validate = validator.New()

// Handler exposes wallet funding and history endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initializeRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

// InitializePayment starts a gateway payment for wallet funding.
func (h *Handler) InitializePayment(c *fiber.Ctx) error {
	var req initializeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	userID, _ := c.Locals("user_id").(string)
	auth, err := h.service.InitializePayment(c.UserContext(), userID, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"authorizationUrl": auth.AuthorizationURL,
		"accessCode":       auth.AccessCode,
		"reference":        auth.Reference,
	})
}

// VerifyPayment settles a funding reference against the gateway.
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	result, err := h.service.VerifyPayment(c.UserContext(), userID, c.Params("reference"))
	if err != nil {
		return mapError(err)
	}

	message := "wallet funded"
	if result.AlreadySettled {
		message = "payment already verified"
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"reference": result.Reference,
		"amount":    result.Amount,
		"wallet":    fiber.Map{"balance": result.NewBalance},
	})
}

// Balance returns the caller's wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	balance, err := h.service.Balance(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"wallet":  fiber.Map{"balance": balance, "currency": ledger.DefaultCurrency},
	})
}

// Transactions returns the caller's wallet history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	entries, total, err := h.service.Transactions(c.UserContext(), userID, page, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": EntryViews(entries),
		"total":        total,
	})
}

// EntryView is the JSON projection of a ledger entry.
func EntryView(e ledger.Entry) fiber.Map {
	v := fiber.Map{
		"id":            e.ID,
		"userId":        e.UserID,
		"type":          e.Type,
		"amount":        e.Amount,
		"currency":      e.Currency,
		"reference":     e.Reference,
		"description":   e.Description,
		"status":        e.Status,
		"paymentMethod": e.PaymentMethod,
		"balanceBefore": e.BalanceBefore,
		"createdAt":     e.CreatedAt.Format(time.RFC3339),
	}
	if e.BalanceAfter != nil {
		v["balanceAfter"] = *e.BalanceAfter
	}
	if e.ShipmentID != "" {
		v["shipmentId"] = e.ShipmentID
	}
	return v
}

// EntryViews projects a slice of ledger entries.
func EntryViews(entries []ledger.Entry) []fiber.Map {
	views := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView(e))
	}
	return views
}

func mapError(err error) error {
	var gatewayErr *paystack.GatewayError
	switch {
	case errors.Is(err, ErrAmountTooSmall):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrVerificationFailed):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "transaction not found")
	case errors.As(err, &gatewayErr):
		return fiber.NewError(http.StatusBadGateway, gatewayErr.Message)
	default:
		return err
	}
}
