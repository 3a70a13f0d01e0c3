package dashboard

import (
	"ems-inventory/internal/query"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stats
func StatsHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.DashboardSummary(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/dashboard/category-summary
func CategorySummaryHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.CategorySummary(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/dashboard/usage-trends?days=30
func UsageTrendsHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.UsageTrends(c.UserContext(), c.QueryInt("days", 30))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
