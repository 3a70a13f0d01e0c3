package auth

import (
	"strings"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
	CtxUserRoleKey = "user_role"
)

func JWTMiddleware(issuer *Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Auth("Access token required")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Auth("Authorization header must be 'Bearer <token>'")
		}

		claims, err := issuer.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role missing from session")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Insufficient permissions")
	}
}

// CurrentUser reads the session identity set by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (id uint, username string, role models.UserRole) {
	id, _ = c.Locals(CtxUserIDKey).(uint)
	username, _ = c.Locals(CtxUsernameKey).(string)
	role, _ = c.Locals(CtxUserRoleKey).(models.UserRole)
	return id, username, role
}
