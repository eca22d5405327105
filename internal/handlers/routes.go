package handlers

import (
	"invoicelink/internal/middleware"
	"invoicelink/internal/services"

	"github.com/labstack/echo/v4"
)

// Set groups every handler mounted by RegisterRoutes.
type Set struct {
	Auth      *AuthHandlers
	Admin     *AdminHandlers
	AuditLogs *AuditLogsHandlers
	Customers *CustomerHandlers
	Invoices  *InvoiceHandlers
	Dashboard *DashboardHandlers
	Health    *HealthHandlers
}

// RegisterRoutes mounts the health probes at the root and the API under /v1.
func RegisterRoutes(e *echo.Echo, h *Set, authSvc services.AuthService, build string) {
	e.GET("/health", h.Health.HealthCheck)
	e.GET("/health/ready", h.Health.ReadinessCheck)
	e.GET("/health/live", h.Health.LivenessCheck)

	v1 := middleware.NewVersionMiddleware(build).VersionRoute(e, "v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := v1.Group("")
	protected.Use(middleware.SessionAuth(authSvc))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/me", h.Auth.Me)
	protected.GET("/dashboard", h.Dashboard.GetDashboard)

	protected.GET("/customers", h.Customers.ListCustomers)
	protected.POST("/customers", h.Customers.CreateCustomer)
	protected.GET("/customers/:id", h.Customers.GetCustomer)

	protected.GET("/invoices", h.Invoices.ListInvoices)
	protected.POST("/invoices", h.Invoices.CreateInvoice)
	protected.GET("/invoices/draft", h.Invoices.NewDraft)
	protected.POST("/invoices/preview", h.Invoices.PreviewInvoice)
	protected.GET("/invoices/:id", h.Invoices.GetInvoice)
	protected.PUT("/invoices/:id/status", h.Invoices.UpdateInvoiceStatus)
	protected.GET("/invoices/:id/archive", h.Invoices.GetArchiveURL)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/accounts", h.Admin.ListAccounts)
	admin.GET("/accounts/stats", h.Admin.GetStats)
	admin.GET("/accounts/:id", h.Admin.GetAccount)
	admin.GET("/accounts/:id/history", h.AuditLogs.GetAccountHistory)
	admin.POST("/accounts/:id/approve", h.Admin.Approve)
	admin.POST("/accounts/:id/reject", h.Admin.Reject)
	admin.POST("/accounts/:id/activate", h.Admin.Activate)
	admin.POST("/accounts/:id/cancel", h.Admin.Cancel)
	admin.PUT("/accounts/:id/subscription", h.Admin.SetSubscriptionAmount)
}
