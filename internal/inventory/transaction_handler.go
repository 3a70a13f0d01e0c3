package inventory

import (
	"strings"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"
	"ems-inventory/internal/query"
	"ems-inventory/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type CreateTransactionRequest struct {
	SupplyID       uint   `json:"supply_id"`
	QuantityChange int    `json:"quantity_change"`
	Kind           string `json:"kind"`
	Type           string `json:"type"`
	Reason         string `json:"reason"`
	EmployeeName   string `json:"employee_name"`
	Notes          string `json:"notes"`
}

// delta maps the request onto a ledger delta. kind (or its alias type)
// wins, then a reason naming a kind, then the sign of the change.
func (r CreateTransactionRequest) delta(fallbackActor string) (ledger.Delta, error) {
	d := ledger.Delta{
		SupplyID: r.SupplyID,
		Change:   r.QuantityChange,
		Actor:    strings.TrimSpace(r.EmployeeName),
		Notes:    strings.TrimSpace(r.Notes),
	}
	if d.Actor == "" {
		d.Actor = fallbackActor
	}

	explicit := strings.ToLower(strings.TrimSpace(r.Kind))
	if explicit == "" {
		explicit = strings.ToLower(strings.TrimSpace(r.Type))
	}
	reason := strings.TrimSpace(r.Reason)

	switch {
	case explicit != "":
		d.Kind = models.TransactionKind(explicit)
		if !d.Kind.Valid() {
			return d, apperr.Validation("kind must be one of use, restock, adjustment")
		}
	case models.TransactionKind(strings.ToLower(reason)).Valid():
		d.Kind = models.TransactionKind(strings.ToLower(reason))
		reason = ""
	case r.QuantityChange < 0:
		d.Kind = models.KindUse
	default:
		d.Kind = models.KindRestock
	}

	if reason != "" {
		if d.Notes == "" {
			d.Notes = reason
		} else {
			d.Notes = reason + ": " + d.Notes
		}
	}
	return d, nil
}

// GET /api/transactions?limit=&offset=
func ListTransactionsHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := q.TransactionHistory(c.UserContext(), query.HistoryQuery{
			Limit:  c.QueryInt("limit", query.DefaultHistoryLimit),
			Offset: c.QueryInt("offset", 0),
		})
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// GET /api/transactions/supply/:id
func SupplyTransactionsHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		page, err := q.TransactionHistory(c.UserContext(), query.HistoryQuery{
			SupplyID: &id,
			Limit:    c.QueryInt("limit", query.DefaultHistoryLimit),
			Offset:   c.QueryInt("offset", 0),
		})
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// GET /api/transactions/stats?days=
func TransactionStatsHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.TransactionStats(c.UserContext(), c.QueryInt("days", 30))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/transactions
func CreateTransactionHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		d, err := body.delta(sessionActor(c).Name)
		if err != nil {
			return err
		}

		res, err := e.ApplyDelta(c.UserContext(), d)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":           "Transaction recorded successfully",
			"transaction_id":    res.TransactionID,
			"supply_name":       res.Supply.Name,
			"previous_quantity": res.PreviousQuantity,
			"new_quantity":      res.NewQuantity,
			"stock_status":      stock.Derive(res.NewQuantity, res.Supply.MinThreshold).Status,
		})
	}
}
