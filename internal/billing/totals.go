// Package billing holds the invoice arithmetic: line totals, VAT and the
// draft rules a submitted invoice must satisfy.
package billing

import (
	"fmt"

	"invoicelink/internal/models"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat VAT rate applied to every invoice.
var TaxRate = decimal.RequireFromString("0.20")

// Totals are derived amounts. They carry full precision; round only for display.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums quantity x unit price over every item. Items are not
// validated here: zero rows contribute zero and negative input is computed as is.
func ComputeTotals(items []models.LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

func LineTotal(item models.LineItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Rounded returns the totals rounded half-up to pence for presentation.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// FormatMoney renders an amount in pounds with two decimals.
func FormatMoney(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-£" + amount.Neg().StringFixed(2)
	}
	return "£" + amount.StringFixed(2)
}

// VerifyTotals recomputes an invoice's totals from its items and compares
// them with the cached values.
func VerifyTotals(inv *models.Invoice) error {
	t := ComputeTotals(inv.Items)
	if !t.Subtotal.Equal(inv.Subtotal) || !t.Tax.Equal(inv.TaxTotal) || !t.Total.Equal(inv.Total) {
		return fmt.Errorf("%w: invoice %s totals %s/%s/%s do not match items (%s/%s/%s)",
			models.ErrValidationFailed, inv.InvoiceNumber,
			inv.Subtotal, inv.TaxTotal, inv.Total,
			t.Subtotal, t.Tax, t.Total)
	}
	return nil
}
