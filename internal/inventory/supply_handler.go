package inventory

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/query"
	"ems-inventory/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type CreateSupplyRequest struct {
	Name            string `json:"name"`
	CategoryID      uint   `json:"category_id"`
	CurrentQuantity *int   `json:"current_quantity"`
	MinThreshold    *int   `json:"min_threshold"`
	Unit            string `json:"unit"`
	Location        string `json:"location"`
	Description     string `json:"description"`
}

type UpdateSupplyRequest struct {
	Name            *string `json:"name"`
	CategoryID      *uint   `json:"category_id"`
	CurrentQuantity *int    `json:"current_quantity"`
	MinThreshold    *int    `json:"min_threshold"`
	Unit            *string `json:"unit"`
	Location        *string `json:"location"`
	Description     *string `json:"description"`
}

// GET /api/supplies?category_id=&status=&q=
func ListSuppliesHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		catID, err := queryUint(c, "category_id")
		if err != nil {
			return err
		}
		status := stock.Status(c.Query("status"))
		if status != "" && !status.Valid() {
			return apperr.Validation("status must be one of out_of_stock, low, medium, good")
		}

		res, err := q.ListSupplies(c.UserContext(), query.Filter{
			CategoryID: catID,
			Status:     status,
			Search:     c.Query("q"),
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/supplies/low
func ListLowStockHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.ListLowStock(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/supplies/search/:query
func SearchSuppliesHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := q.ListSupplies(c.UserContext(), query.Filter{Search: c.Params("query")})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/supplies/:id
func GetSupplyHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		res, err := q.GetSupply(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/supplies
func CreateSupplyHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplyRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}

		s, err := e.CreateSupply(c.UserContext(), ledger.SupplyInput{
			Name:            body.Name,
			CategoryID:      body.CategoryID,
			CurrentQuantity: body.CurrentQuantity,
			MinThreshold:    body.MinThreshold,
			Unit:            body.Unit,
			Location:        body.Location,
			Description:     body.Description,
		}, sessionActor(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(query.NewSupplyView(*s))
	}
}

// PUT /api/supplies/:id
// A changed current_quantity is recorded as an adjustment by the session user.
func UpdateSupplyHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateSupplyRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}

		s, adj, err := e.UpdateSupply(c.UserContext(), id, ledger.SupplyUpdate{
			Name:            body.Name,
			CategoryID:      body.CategoryID,
			MinThreshold:    body.MinThreshold,
			Unit:            body.Unit,
			Location:        body.Location,
			Description:     body.Description,
			CurrentQuantity: body.CurrentQuantity,
		}, sessionActor(c))
		if err != nil {
			return err
		}

		res := fiber.Map{"supply": query.NewSupplyView(*s)}
		if adj != nil {
			res["adjustment"] = fiber.Map{
				"transaction_id":    adj.TransactionID,
				"previous_quantity": adj.PreviousQuantity,
				"new_quantity":      adj.NewQuantity,
			}
		}
		return c.JSON(res)
	}
}

// DELETE /api/supplies/:id
func DeleteSupplyHandler(e *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := e.DeleteSupply(c.UserContext(), id, sessionActor(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Supply deleted successfully"})
	}
}

// POST /api/supplies/import (multipart, field "file", .xlsx)
func ImportSuppliesHandler(im *Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("file upload is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation("Only .xlsx files can be imported")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return apperr.Validation("Could not open uploaded file")
		}
		defer file.Close()

		rows, bad, err := ReadSheet(file)
		if err != nil {
			return err
		}
		rep := im.Apply(c.UserContext(), rows, sessionActor(c))
		rep.Errors = append(bad, rep.Errors...)
		log.Printf("[INFO] stock sheet %s imported by %s: %d created, %d updated, %d errors",
			fileHeader.Filename, sessionActor(c).Name, rep.Created, rep.Updated, len(rep.Errors))
		return c.JSON(rep)
	}
}

// GET /api/supplies/export
func ExportSuppliesHandler(q *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplies, err := q.ListSupplies(c.UserContext(), query.Filter{})
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteSheet(&buf, supplies); err != nil {
			return err
		}
		c.Attachment(fmt.Sprintf("ems-supplies-%s.xlsx", time.Now().UTC().Format("20060102")))
		return c.Send(buf.Bytes())
	}
}
