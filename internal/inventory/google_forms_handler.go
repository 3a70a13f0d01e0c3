package inventory

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"
	"ems-inventory/internal/query"
	"ems-inventory/internal/stock"

	"github.com/gofiber/fiber/v2"
)

// formQuantity accepts 3 and "3". Google Forms answers arrive as strings.
type formQuantity struct {
	value int
	set   bool
	ok    bool
}

func (q *formQuantity) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	q.set = true
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		v, err := strconv.Atoi(n.String())
		q.value, q.ok = v, err == nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		q.set = false
		return nil
	}
	v, err := strconv.Atoi(s)
	q.value, q.ok = v, err == nil
	return nil
}

type FormSubmission struct {
	SupplyName   string       `json:"supply_name"`
	Quantity     formQuantity `json:"quantity"`
	EmployeeName string       `json:"employee_name"`
	Notes        string       `json:"notes"`
}

// POST /api/google-forms/submit (public)
func GoogleFormsSubmitHandler(q *query.Service, e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FormSubmission
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return apperr.Validation("Invalid request body")
		}

		body.SupplyName = strings.TrimSpace(body.SupplyName)
		body.EmployeeName = strings.TrimSpace(body.EmployeeName)
		if body.SupplyName == "" || !body.Quantity.set || body.EmployeeName == "" {
			return apperr.Validation("Missing required fields: supply_name, quantity, and employee_name are required")
		}
		if !body.Quantity.ok || body.Quantity.value <= 0 {
			return apperr.Validation("Quantity must be a positive number")
		}
		n := body.Quantity.value

		sup, err := q.FindSupplyByName(c.UserContext(), body.SupplyName)
		if err != nil {
			return err
		}

		notes := strings.TrimSpace(body.Notes)
		if notes == "" {
			notes = "Google Forms submission"
		}
		res, err := e.ApplyDelta(c.UserContext(), ledger.Delta{
			SupplyID: sup.ID,
			Change:   -n,
			Kind:     models.KindUse,
			Actor:    body.EmployeeName,
			Notes:    notes,
		})
		if err != nil {
			return err
		}

		level := stock.Derive(res.NewQuantity, res.Supply.MinThreshold)
		category := "Unknown"
		if res.Supply.Category != nil {
			category = res.Supply.Category.Name
		}
		log.Printf("[INFO] form submission: %d %s of %s used by %s (%d left)",
			n, res.Supply.Unit, res.Supply.Name, body.EmployeeName, res.NewQuantity)

		return c.JSON(fiber.Map{
			"success":        true,
			"message":        fmt.Sprintf("Successfully recorded: %d %s of %s used by %s", n, res.Supply.Unit, res.Supply.Name, body.EmployeeName),
			"transaction_id": res.TransactionID,
			"supply": fiber.Map{
				"name":              res.Supply.Name,
				"category":          category,
				"previous_quantity": res.PreviousQuantity,
				"new_quantity":      res.NewQuantity,
				"unit":              res.Supply.Unit,
				"stock_status":      level.Status,
				"is_low_stock":      level.Status.AtOrBelowThreshold(),
			},
		})
	}
}

// GET /api/google-forms/test (public)
func GoogleFormsTestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "Google Forms endpoint is working",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
