package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/auth"
)

// RegisterAuthRoutes wires public registration and login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	grp := r.Group("/auth")
	grp.Post("/register", h.Register)
	grp.Post("/login", rateLimiter, h.Login)
}
