package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every handler error as {error, code, ...details}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
			"code":  fiberCode(fe.Code),
		})
	}

	var ae *Error
	if !errors.As(err, &ae) {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected server error",
			"code":  "internal_error",
		})
	}

	status := Status(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	}
	body := fiber.Map{}
	for k, v := range ae.Details {
		body[k] = v
	}
	body["error"] = ae.Message
	body["code"] = Code(err)
	return c.Status(status).JSON(body)
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "validation_error"
	case fiber.StatusUnauthorized:
		return "auth_error"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	if status >= fiber.StatusInternalServerError {
		return "internal_error"
	}
	return "request_error"
}
