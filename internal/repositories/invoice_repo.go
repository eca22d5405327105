package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	// Create stores a new invoice. A clash on the per-account invoice number
	// yields models.ErrConcurrentUpdate so the caller can allocate again.
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, accountID, id uuid.UUID) (*models.Invoice, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Invoice, error)
	ListByStatus(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error)
	UpdateStatus(ctx context.Context, inv *models.Invoice, from models.InvoiceStatus) error
	NextInvoiceNumber(ctx context.Context, accountID uuid.UUID) (string, error)
}

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, account_id, customer_id, customer_name, invoice_number, issue_date, due_date,
		items, notes, subtotal, tax_total, total, status, created_at, updated_at`

// FormatInvoiceNumber renders the n-th invoice number of an account.
func FormatInvoiceNumber(n int) string {
	return fmt.Sprintf("INV-%03d", n)
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var items []byte
	err := row.Scan(
		&inv.ID, &inv.AccountID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&items, &inv.Notes, &inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of invoice %s: %w", inv.ID, err)
		}
	}
	return inv, nil
}

func (r *invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.Exec(ctx, query,
		inv.ID, inv.AccountID, inv.CustomerID, inv.CustomerName, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		items, inv.Notes, inv.Subtotal, inv.TaxTotal, inv.Total, inv.Status, inv.CreatedAt, inv.UpdatedAt,
	)
	if isUniqueViolation(err, "invoices_account_number_key") {
		return models.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, accountID, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE account_id = $1 AND id = $2`
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, accountID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r *invoiceRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE account_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, accountID)
}

func (r *invoiceRepo) ListByStatus(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 ORDER BY due_date ASC`
	return r.list(ctx, query, status)
}

func (r *invoiceRepo) list(ctx context.Context, query string, args ...any) ([]*models.Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, inv *models.Invoice, from models.InvoiceStatus) error {
	query := `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, inv.Status, inv.UpdatedAt, inv.ID, from)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConcurrentUpdate
	}
	return nil
}

func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, accountID uuid.UUID) (string, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		return "", fmt.Errorf("failed to count invoices: %w", err)
	}
	return FormatInvoiceNumber(count + 1), nil
}
