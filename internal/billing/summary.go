package billing

import (
	"fmt"
	"time"

	"invoicelink/internal/models"

	"github.com/shopspring/decimal"
)

var invoiceTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid},
	models.InvoiceStatusPaid:    {},
}

func CanTransitionInvoice(from, to models.InvoiceStatus) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionInvoice moves the invoice to a new status if the move is allowed.
func TransitionInvoice(inv *models.Invoice, to models.InvoiceStatus, now time.Time) error {
	if !to.Valid() {
		return models.NewValidationError("status", fmt.Sprintf("unknown invoice status %q", to))
	}
	if !CanTransitionInvoice(inv.Status, to) {
		return fmt.Errorf("%w: invoice %s cannot move from %s to %s",
			models.ErrInvalidStateTransition, inv.InvoiceNumber, inv.Status, to)
	}
	inv.Status = to
	inv.UpdatedAt = now
	return nil
}

// IsOverdue reports whether a sent invoice is past its due date.
func IsOverdue(inv *models.Invoice, now time.Time) bool {
	return inv.Status == models.InvoiceStatusSent && now.After(inv.DueDate)
}

// Summary aggregates invoice totals by status for the dashboard.
type Summary struct {
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
	Paid          decimal.Decimal `json:"paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Overdue       decimal.Decimal `json:"overdue"`
	Draft         decimal.Decimal `json:"draft"`
	InvoiceCount  int             `json:"invoice_count"`
	PaidCount     int             `json:"paid_count"`
	OverdueCount  int             `json:"overdue_count"`
}

func Summarize(invoices []*models.Invoice) Summary {
	s := Summary{
		TotalInvoiced: decimal.Zero,
		Paid:          decimal.Zero,
		Outstanding:   decimal.Zero,
		Overdue:       decimal.Zero,
		Draft:         decimal.Zero,
	}
	for _, inv := range invoices {
		// stored totals are a cache; the items are authoritative
		total := ComputeTotals(inv.Items).Total
		s.InvoiceCount++
		s.TotalInvoiced = s.TotalInvoiced.Add(total)
		switch inv.Status {
		case models.InvoiceStatusPaid:
			s.Paid = s.Paid.Add(total)
			s.PaidCount++
		case models.InvoiceStatusSent:
			s.Outstanding = s.Outstanding.Add(total)
		case models.InvoiceStatusOverdue:
			s.Overdue = s.Overdue.Add(total)
			s.OverdueCount++
		case models.InvoiceStatusDraft:
			s.Draft = s.Draft.Add(total)
		}
	}
	return s
}
