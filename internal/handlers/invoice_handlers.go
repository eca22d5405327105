package handlers

import (
	"net/http"
	"strings"
	"time"

	"invoicelink/internal/common"
	"invoicelink/internal/directory"
	"invoicelink/internal/models"
	"invoicelink/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
}

func NewInvoiceHandlers(invoiceService services.InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

// DraftRequest is an invoice draft as sent by clients. Dates are YYYY-MM-DD
// or RFC 3339; empty dates take their defaults on submission.
type DraftRequest struct {
	CustomerID string            `json:"customer_id"`
	IssueDate  string            `json:"issue_date" example:"2024-03-01"`
	DueDate    string            `json:"due_date" example:"2024-03-31"`
	Items      []models.LineItem `json:"items"`
	Notes      string            `json:"notes"`
}

type StatusRequest struct {
	Status models.InvoiceStatus `json:"status" enums:"sent,paid,overdue"`
}

func parseDate(value, field string, verr *models.ValidationError) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	verr.Add(field, "must be a date in YYYY-MM-DD format")
	return time.Time{}
}

func (r *DraftRequest) toDraft() (*models.InvoiceDraft, error) {
	verr := &models.ValidationError{}
	draft := &models.InvoiceDraft{
		CustomerID: r.CustomerID,
		IssueDate:  parseDate(r.IssueDate, "issue_date", verr),
		DueDate:    parseDate(r.DueDate, "due_date", verr),
		Items:      r.Items,
		Notes:      r.Notes,
	}
	if !verr.Empty() {
		return nil, verr
	}
	return draft, nil
}

// NewDraft handles GET /invoices/draft
//
//	@Summary	A blank invoice draft with default dates
//	@Tags		invoices
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.InvoiceDraft
//	@Router		/invoices/draft [get]
func (h *InvoiceHandlers) NewDraft(c echo.Context) error {
	return c.JSON(http.StatusOK, h.invoiceService.NewDraft(c.Request().Context()))
}

// PreviewInvoice handles POST /invoices/preview
//
//	@Summary	Compute totals for a draft without saving it
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		DraftRequest	true	"Draft"
//	@Success	200		{object}	services.DraftPreview
//	@Router		/invoices/preview [post]
func (h *InvoiceHandlers) PreviewInvoice(c echo.Context) error {
	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	draft, err := req.toDraft()
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, h.invoiceService.Preview(c.Request().Context(), draft))
}

// CreateInvoice handles POST /invoices
//
//	@Summary	Submit a draft as a new invoice
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		DraftRequest	true	"Draft"
//	@Success	201		{object}	models.Invoice
//	@Failure	422		{object}	common.ErrorResponse
//	@Router		/invoices [post]
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	draft, err := req.toDraft()
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}

	invoice, err := h.invoiceService.Submit(c.Request().Context(), accountID, draft)
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /invoices
//
//	@Summary	Search invoices
//	@Tags		invoices
//	@Produce	json
//	@Security	BearerAuth
//	@Param		q		query	string	false	"Matches number, customer or notes"
//	@Param		status	query	string	false	"all|draft|sent|paid|overdue"
//	@Success	200		{array}	models.Invoice
//	@Router		/invoices [get]
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	status, err := directory.ParseInvoiceStatus(c.QueryParam("status"))
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request().Context(), accountID, directory.InvoiceQuery{
		Text:   c.QueryParam("q"),
		Status: status,
	})
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /invoices/:id
//
//	@Summary	Get an invoice
//	@Tags		invoices
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Invoice ID"
//	@Success	200	{object}	models.Invoice
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/invoices/{id} [get]
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request().Context(), accountID, id)
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoiceStatus handles PUT /invoices/:id/status
//
//	@Summary	Move an invoice to its next status
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string			true	"Invoice ID"
//	@Param		body	body		StatusRequest	true	"New status"
//	@Success	200		{object}	models.Invoice
//	@Failure	409		{object}	common.ErrorResponse
//	@Router		/invoices/{id}/status [put]
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request().Context(), accountID, id, req.Status)
	if err != nil {
		return common.SendDomainError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// GetArchiveURL handles GET /invoices/:id/archive
//
//	@Summary	Temporary download link for the archived invoice
//	@Tags		invoices
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Invoice ID"
//	@Success	200	{object}	map[string]string
//	@Router		/invoices/{id}/archive [get]
func (h *InvoiceHandlers) GetArchiveURL(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.invoiceService.GetArchiveURL(c.Request().Context(), accountID, id)
	if err != nil {
		return common.SendDomainError(c, "archived invoice", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
