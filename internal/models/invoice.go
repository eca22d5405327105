package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// LineItem is one billable row. ID only keys the row inside its draft.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceDraft is an invoice being composed. Totals are never stored on it.
type InvoiceDraft struct {
	CustomerID string     `json:"customer_id"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	Items      []LineItem `json:"items"`
	Notes      string     `json:"notes"`
}

// Invoice is a submitted draft. Items and dates are fixed once created; the
// cached totals must always match a recomputation over Items.
type Invoice struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountID     uuid.UUID       `json:"account_id" db:"account_id"`
	CustomerID    uuid.UUID       `json:"customer_id" db:"customer_id"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date" db:"issue_date"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Items         []LineItem      `json:"items" db:"items"`
	Notes         string          `json:"notes" db:"notes"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total" db:"tax_total"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (i *Invoice) SearchFields() []string {
	return []string{i.InvoiceNumber, i.CustomerName, i.Notes}
}
