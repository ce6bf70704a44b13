package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/auth"
	"github.com/parcelflow/parcelflow/internal/identity"
)

// JWTAuth validates bearer tokens and rejects deactivated accounts. The
// authenticated user id and role are stored in request locals.
func JWTAuth(tokens *auth.Service, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByID(c.UserContext(), claims.Subject)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		if !user.IsActive {
			return fiber.NewError(http.StatusForbidden, "account is deactivated")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}

// RequireAdmin restricts a route group to admin accounts. It must run after
// JWTAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role != identity.RoleAdmin {
			return fiber.NewError(http.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}
