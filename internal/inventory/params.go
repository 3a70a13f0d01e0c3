package inventory

import (
	"strconv"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/auth"
	"ems-inventory/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid %s", name)
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return uint(v), nil
}

// sessionActor names the logged in manager for catalog edits.
func sessionActor(c *fiber.Ctx) ledger.Actor {
	id, username, _ := auth.CurrentUser(c)
	return ledger.Actor{UserID: id, Name: username}
}
