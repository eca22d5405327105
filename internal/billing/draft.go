package billing

import (
	"fmt"
	"strings"
	"time"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentTermDays is the default gap between issue and due date.
const PaymentTermDays = 30

// NewDraft returns an empty draft with a single blank line item.
func NewDraft(now time.Time) *models.InvoiceDraft {
	return &models.InvoiceDraft{
		IssueDate: now,
		DueDate:   DefaultDueDate(now),
		Items:     []models.LineItem{NewLineItem()},
	}
}

func DefaultDueDate(issue time.Time) time.Time {
	return issue.AddDate(0, 0, PaymentTermDays)
}

func NewLineItem() models.LineItem {
	return models.LineItem{
		ID:        uuid.NewString(),
		Quantity:  1,
		UnitPrice: decimal.Zero,
	}
}

// AddItem appends a blank line item and returns it.
func AddItem(d *models.InvoiceDraft) models.LineItem {
	item := NewLineItem()
	d.Items = append(d.Items, item)
	return item
}

// UpdateItem replaces the item with the same ID.
func UpdateItem(d *models.InvoiceDraft, item models.LineItem) error {
	for i := range d.Items {
		if d.Items[i].ID == item.ID {
			d.Items[i] = item
			return nil
		}
	}
	return fmt.Errorf("line item %s: %w", item.ID, models.ErrNotFound)
}

// RemoveItem deletes a line item. The last remaining item cannot be removed.
func RemoveItem(d *models.InvoiceDraft, id string) error {
	idx := -1
	for i := range d.Items {
		if d.Items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("line item %s: %w", id, models.ErrNotFound)
	}
	if len(d.Items) == 1 {
		return models.NewValidationError("items", "an invoice must have at least one item")
	}
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	return nil
}

// ValidateDraft checks that the draft can be submitted: a customer is chosen
// and every item has a description, a quantity of at least one and a price
// above zero.
func ValidateDraft(d *models.InvoiceDraft) error {
	verr := &models.ValidationError{}

	customer := strings.TrimSpace(d.CustomerID)
	if customer == "" {
		verr.Add("customer_id", "please select a customer")
	} else if _, err := uuid.Parse(customer); err != nil {
		verr.Add("customer_id", "must be a valid identifier")
	}

	if len(d.Items) == 0 {
		verr.Add("items", "an invoice must have at least one item")
	}
	for i, item := range d.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Description) == "" {
			verr.Add(prefix+".description", "is required")
		}
		if item.Quantity < 1 {
			verr.Add(prefix+".quantity", "must be at least 1")
		}
		if !item.UnitPrice.IsPositive() {
			verr.Add(prefix+".unit_price", "must be greater than 0")
		}
	}

	if !d.DueDate.IsZero() && !d.IssueDate.IsZero() && d.DueDate.Before(d.IssueDate) {
		verr.Add("due_date", "must not be before the issue date")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// Submit validates the draft and freezes it into an invoice record with its
// totals cached.
func Submit(d *models.InvoiceDraft, accountID uuid.UUID, number string, now time.Time) (*models.Invoice, error) {
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}

	issue := d.IssueDate
	if issue.IsZero() {
		issue = now
	}
	due := d.DueDate
	if due.IsZero() {
		due = DefaultDueDate(issue)
	}

	items := make([]models.LineItem, len(d.Items))
	copy(items, d.Items)
	totals := ComputeTotals(items)

	return &models.Invoice{
		ID:            uuid.New(),
		AccountID:     accountID,
		CustomerID:    uuid.MustParse(strings.TrimSpace(d.CustomerID)),
		InvoiceNumber: number,
		IssueDate:     issue,
		DueDate:       due,
		Items:         items,
		Notes:         d.Notes,
		Subtotal:      totals.Subtotal,
		TaxTotal:      totals.Tax,
		Total:         totals.Total,
		Status:        models.InvoiceStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
