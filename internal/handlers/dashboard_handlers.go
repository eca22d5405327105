package handlers

import (
	"net/http"

	"invoicelink/internal/billing"
	"invoicelink/internal/common"
	"invoicelink/internal/directory"
	"invoicelink/internal/models"
	"invoicelink/internal/services"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const recentInvoices = 5

type DashboardHandlers struct {
	invoiceService  services.InvoiceService
	customerService services.CustomerService
	clock           clockwork.Clock
}

func NewDashboardHandlers(invoiceService services.InvoiceService, customerService services.CustomerService, clock clockwork.Clock) *DashboardHandlers {
	return &DashboardHandlers{
		invoiceService:  invoiceService,
		customerService: customerService,
		clock:           clock,
	}
}

type DashboardResponse struct {
	Account        *AccountView      `json:"account"`
	Invoices       *billing.Summary  `json:"invoices"`
	CustomerCount  int               `json:"customer_count"`
	RecentInvoices []*models.Invoice `json:"recent_invoices"`
}

// GetDashboard handles GET /dashboard
//
//	@Summary	Trial countdown and invoice totals for the signed-in account
//	@Tags		dashboard
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	DashboardResponse
//	@Router		/dashboard [get]
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	session, ok := common.GetSessionFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	accountID := session.Account.ID

	summary, err := h.invoiceService.GetSummary(ctx, accountID)
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	customers, err := h.customerService.ListCustomers(ctx, accountID)
	if err != nil {
		return common.SendDomainError(c, "customer", err)
	}
	invoices, err := h.invoiceService.ListInvoices(ctx, accountID, directory.InvoiceQuery{Status: directory.InvoicesAll})
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	if len(invoices) > recentInvoices {
		invoices = invoices[:recentInvoices]
	}

	return c.JSON(http.StatusOK, &DashboardResponse{
		Account:        newAccountView(session.Account, h.clock.Now()),
		Invoices:       summary,
		CustomerCount:  len(customers),
		RecentInvoices: invoices,
	})
}
