package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/identity"
)

var validate = validator.New()

// BalanceSource reports a user's current wallet balance. The ledger is the
// authority; the user record's stored balance is not consulted for responses.
type BalanceSource interface {
	Balance(ctx context.Context, userID string) (int64, error)
}

// Handler exposes registration and login endpoints.
type Handler struct {
	users    *identity.Service
	tokens   *Service
	balances BalanceSource
}

// NewHandler constructs an auth handler.
func NewHandler(users *identity.Service, tokens *Service, balances BalanceSource) *Handler {
	return &Handler{users: users, tokens: tokens, balances: balances}
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and returns an access token.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Register(c.UserContext(), identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return fiber.NewError(http.StatusBadRequest, "email already registered")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    profile(user, 0),
	})
}

// Login authenticates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrAccountDisabled) {
			return fiber.NewError(http.StatusForbidden, err.Error())
		}
		return fiber.NewError(http.StatusUnauthorized, "invalid email or password")
	}

	balance, err := h.balances.Balance(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    profile(user, balance),
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Get(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "user not found")
	}
	balance, err := h.balances.Balance(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    profile(user, balance),
	})
}

func profile(user identity.User, balance int64) fiber.Map {
	return fiber.Map{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
		"isActive":  user.IsActive,
		"wallet":    fiber.Map{"balance": balance},
		"createdAt": user.CreatedAt,
	}
}
