package auth

import (
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	Email     *string         `json:"email"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
	LastLogin *time.Time      `json:"last_login,omitempty"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		LastLogin: u.LastLogin,
	}
}

func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}

		login := body.Username
		if login == "" {
			login = body.Email
		}

		sess, err := svc.Authenticate(c.UserContext(), login, body.Password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt,
			"user":       toUserResponse(sess.User),
		})
	}
}

// VerifyHandler runs behind JWTMiddleware and echoes the token identity.
func VerifyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, username, role := CurrentUser(c)
		return c.JSON(fiber.Map{
			"valid": true,
			"user": fiber.Map{
				"id":       id,
				"username": username,
				"role":     role,
			},
		})
	}
}

func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, _ := CurrentUser(c)
		user, err := svc.User(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": toUserResponse(user)})
	}
}
