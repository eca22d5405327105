package repositories

import (
	"context"
	"fmt"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, accountID, id uuid.UUID) (*models.Customer, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Customer, error)
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, account_id, name, email, phone, address, city, postcode, notes, created_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	if err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.Postcode, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.AccountID, c.Name, c.Email, c.Phone, c.Address, c.City, c.Postcode, c.Notes, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, accountID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE account_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, accountID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *customerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE account_id = $1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
