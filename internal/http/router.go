package http

import (
	"time"

	"github.com/akc-construction/crm/internal/config"
	"github.com/akc-construction/crm/internal/http/handlers"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Customer *handlers.CustomerHandler
	Project  *handlers.ProjectHandler
	Cost     *handlers.CostHandler
	Estimate *handlers.EstimateHandler
	Employee *handlers.EmployeeHandler
	Vendor   *handlers.VendorHandler
	Activity *handlers.ActivityHandler
	WSHub    *handlers.WSHub // nil disables /ws
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.MetricsMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/login",
		middleware.RateLimitMiddleware(rdb, "login", cfg.LoginRateLimit, time.Minute, log),
		h.Auth.Login,
	)

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/statuses", metaHandler.GetStatuses)
	api.Get("/meta/roles", metaHandler.GetRoles)

	// Protected endpoints
	protected := api.Group("",
		middleware.AuthMiddleware(cfg.JWTSecret, log),
		middleware.RateLimitMiddleware(rdb, "api", cfg.APIRateLimit, time.Minute, log),
	)
	view := middleware.RequirePermission(rbac.PermViewRecords)
	changeStatus := middleware.RequirePermission(rbac.PermChangeStatus)

	// User
	protected.Get("/me", h.Auth.GetMe)
	protected.Post("/users", middleware.RequirePermission(rbac.PermManageUsers), h.Auth.CreateUser)

	// Customers
	manageCustomers := middleware.RequirePermission(rbac.PermManageCustomers)
	protected.Get("/customers", view, h.Customer.ListCustomers)
	protected.Post("/customers", manageCustomers, h.Customer.CreateCustomer)
	protected.Get("/customers/:id", view, h.Customer.GetCustomer)
	protected.Put("/customers/:id", manageCustomers, h.Customer.UpdateCustomer)
	protected.Post("/customers/:id/status", changeStatus, h.Customer.ChangeStatus)

	// Projects
	manageProjects := middleware.RequirePermission(rbac.PermManageProjects)
	protected.Get("/projects", view, h.Project.ListProjects)
	protected.Post("/projects", manageProjects, h.Project.CreateProject)
	protected.Get("/projects/:id", view, h.Project.GetProject)
	protected.Put("/projects/:id", manageProjects, h.Project.UpdateProject)
	protected.Post("/projects/:id/status", changeStatus, h.Project.ChangeStatus)
	protected.Get("/projects/:id/transitions", view, h.Project.GetTransitions)
	protected.Get("/projects/:id/summary", view, h.Project.GetSummary)
	protected.Get("/projects/:id/report.xlsx", middleware.RequirePermission(rbac.PermExportReports), h.Project.ExportReport)
	protected.Get("/projects/:id/sub-invoices", view, h.Cost.ListSubInvoices)

	// Estimates
	manageEstimates := middleware.RequirePermission(rbac.PermManageEstimates)
	protected.Get("/projects/:id/estimates", view, h.Estimate.ListEstimates)
	protected.Post("/projects/:id/estimates", manageEstimates, h.Estimate.CreateEstimate)
	protected.Post("/estimates/:id/status", manageEstimates, h.Estimate.ChangeStatus)

	// Employees
	managePeople := middleware.RequirePermission(rbac.PermManagePeople)
	protected.Get("/employees", view, h.Employee.ListEmployees)
	protected.Post("/employees", managePeople, h.Employee.CreateEmployee)
	protected.Get("/employees/:id", view, h.Employee.GetEmployee)
	protected.Put("/employees/:id", managePeople, h.Employee.UpdateEmployee)
	protected.Post("/employees/:id/deactivate", managePeople, h.Employee.DeactivateEmployee)

	// Vendors and subcontractors
	protected.Get("/vendors", view, h.Vendor.ListVendors)
	protected.Post("/vendors", managePeople, h.Vendor.CreateVendor)
	protected.Get("/vendors/:id", view, h.Vendor.GetVendor)
	protected.Put("/vendors/:id", managePeople, h.Vendor.UpdateVendor)
	protected.Post("/vendors/:id/deactivate", managePeople, h.Vendor.DeactivateVendor)
	protected.Get("/vendors/:id/sub-invoices", view, h.Vendor.ListSubInvoices)

	// Time logs
	protected.Get("/time-logs", view, h.Cost.ListTimeLogs)
	protected.Post("/time-logs", middleware.RequirePermission(rbac.PermLogTime), h.Cost.CreateTimeLog)
	protected.Delete("/time-logs/:id", middleware.RequirePermission(rbac.PermDeleteTime), h.Cost.DeleteTimeLog)

	// Materials receipts
	recordMaterials := middleware.RequirePermission(rbac.PermRecordMaterials)
	protected.Get("/receipts", view, h.Cost.ListReceipts)
	protected.Post("/receipts", recordMaterials, h.Cost.CreateReceipt)
	protected.Get("/receipts/:id", view, h.Cost.GetReceipt)
	protected.Post("/receipts/:id/attachment", recordMaterials, h.Cost.UploadAttachment)
	protected.Get("/receipts/:id/attachment", view, h.Cost.GetAttachmentURL)

	// Subcontractor invoices
	protected.Post("/sub-invoices", middleware.RequirePermission(rbac.PermRecordSubInvoices), h.Cost.CreateSubInvoice)

	// Activity
	protected.Get("/activity", middleware.RequirePermission(rbac.PermViewActivity), h.Activity.ListActivity)

	// WebSocket
	if h.WSHub != nil {
		app.Use("/ws", handlers.WSUpgradeMiddleware())
		app.Get("/ws", websocket.New(h.WSHub.HandleWS))
	}
}
