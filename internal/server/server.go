// Package server assembles the HTTP API.
package server

import (
	"context"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/audit"
	"ems-inventory/internal/auth"
	"ems-inventory/internal/config"
	"ems-inventory/internal/dashboard"
	"ems-inventory/internal/inventory"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"
	"ems-inventory/internal/query"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Ledger *ledger.Engine
	Query  *query.Service
	Auth   *auth.Service

	// DisableRequestLog drops the access log, mostly for tests.
	DisableRequestLog bool
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ems-inventory",
		ErrorHandler: apperr.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if !d.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Config.Origins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", HealthHandler(d.DB))

	api := app.Group("/api")
	api.Get("/health", HealthHandler(d.DB))

	// Public
	api.Post("/auth/login", auth.LoginHandler(d.Auth))
	api.Post("/google-forms/submit", inventory.GoogleFormsSubmitHandler(d.Query, d.Ledger))
	api.Get("/google-forms/test", inventory.GoogleFormsTestHandler())
	api.Post("/transactions/submit", inventory.GoogleFormsSubmitHandler(d.Query, d.Ledger))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(d.Auth.Issuer()))
	protected.Get("/auth/verify", auth.VerifyHandler())
	protected.Get("/auth/me", auth.MeHandler(d.Auth))

	importer := &inventory.Importer{Ledger: d.Ledger, Query: d.Query}
	protected.Get("/supplies", inventory.ListSuppliesHandler(d.Query))
	protected.Get("/supplies/low", inventory.ListLowStockHandler(d.Query))
	protected.Get("/supplies/search/:query", inventory.SearchSuppliesHandler(d.Query))
	protected.Get("/supplies/export", inventory.ExportSuppliesHandler(d.Query))
	protected.Post("/supplies/import", inventory.ImportSuppliesHandler(importer))
	protected.Get("/supplies/:id", inventory.GetSupplyHandler(d.Query))
	protected.Post("/supplies", inventory.CreateSupplyHandler(d.Ledger))
	protected.Put("/supplies/:id", inventory.UpdateSupplyHandler(d.Ledger))
	protected.Delete("/supplies/:id", inventory.DeleteSupplyHandler(d.Ledger))

	protected.Get("/categories", inventory.ListCategoriesHandler(d.Query))
	protected.Get("/categories/:id", inventory.GetCategoryHandler(d.Query))
	protected.Post("/categories", inventory.CreateCategoryHandler(d.Ledger))
	protected.Delete("/categories/:id", inventory.DeleteCategoryHandler(d.Ledger))

	protected.Get("/transactions", inventory.ListTransactionsHandler(d.Query))
	protected.Get("/transactions/stats", inventory.TransactionStatsHandler(d.Query))
	protected.Get("/transactions/supply/:id", inventory.SupplyTransactionsHandler(d.Query))
	protected.Post("/transactions", inventory.CreateTransactionHandler(d.Ledger))

	protected.Get("/dashboard/stats", dashboard.StatsHandler(d.Query))
	protected.Get("/dashboard/category-summary", dashboard.CategorySummaryHandler(d.Query))
	protected.Get("/dashboard/usage-trends", dashboard.UsageTrendsHandler(d.Query))

	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler(d.DB))

	return app
}

// HealthHandler reports liveness plus database reachability.
func HealthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"database":  err == nil,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
