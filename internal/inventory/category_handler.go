package inventory

import (
	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/query"

	"github.com/gofiber/fiber/v2"
)

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// GET /api/categories
func ListCategoriesHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.ListCategories(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/categories/:id
func GetCategoryHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		res, err := q.GetCategory(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/categories
func CreateCategoryHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		cat, err := e.CreateCategory(c.UserContext(), body.Name, sessionActor(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(query.CategoryView{
			ID:        cat.ID,
			Name:      cat.Name,
			CreatedAt: cat.CreatedAt,
		})
	}
}

// DELETE /api/categories/:id
// Rejected while supplies still reference the category.
func DeleteCategoryHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := e.DeleteCategory(c.UserContext(), id, sessionActor(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Category deleted successfully"})
	}
}
