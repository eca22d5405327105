package directory

import (
	"fmt"
	"strings"

	"invoicelink/internal/models"
)

type InvoiceStatusFilter string

const InvoicesAll InvoiceStatusFilter = "all"

func ParseInvoiceStatus(s string) (InvoiceStatusFilter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == string(InvoicesAll) {
		return InvoicesAll, nil
	}
	if !models.InvoiceStatus(v).Valid() {
		return "", models.NewValidationError("status", fmt.Sprintf("unknown invoice status filter %q", s))
	}
	return InvoiceStatusFilter(v), nil
}

type InvoiceQuery struct {
	Text   string
	Status InvoiceStatusFilter
}

func FilterInvoices(invoices []*models.Invoice, q InvoiceQuery) []*models.Invoice {
	var keep func(*models.Invoice) bool
	if q.Status != "" && q.Status != InvoicesAll {
		want := models.InvoiceStatus(q.Status)
		keep = func(inv *models.Invoice) bool { return inv.Status == want }
	}
	return Filter(invoices, q.Text, keep)
}
