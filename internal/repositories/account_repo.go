package repositories

import (
	"context"
	"fmt"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AccountRepository interface {
	Create(ctx context.Context, acc *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByBusiness returns any existing account whose normalised business
	// name, address and postcode equal key.
	FindByBusiness(ctx context.Context, key models.BusinessKey) (*models.Account, error)
	// Update writes acc if its Version still matches the stored row and bumps
	// it. A stale version yields models.ErrConcurrentUpdate.
	Update(ctx context.Context, acc *models.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Account, error)
}

type accountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, email, password_hash, full_name, business_name, address, city, postcode, phone,
		is_approved, trial_ends_at, subscription_amount, subscription_status, version, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	acc := &models.Account{}
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.FullName, &acc.BusinessName, &acc.Address, &acc.City, &acc.Postcode, &acc.Phone,
		&acc.IsApproved, &acc.TrialEndsAt, &acc.SubscriptionAmount, &acc.SubscriptionStatus, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *accountRepo) Create(ctx context.Context, acc *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		acc.ID, models.NormalizeEmail(acc.Email), acc.PasswordHash, acc.FullName, acc.BusinessName, acc.Address, acc.City, acc.Postcode, acc.Phone,
		acc.IsApproved, acc.TrialEndsAt, acc.SubscriptionAmount, acc.SubscriptionStatus, acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
	if isUniqueViolation(err, "accounts_email_key") {
		return models.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return acc, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		return nil, notFound(err)
	}
	return acc, nil
}

func (r *accountRepo) FindByBusiness(ctx context.Context, key models.BusinessKey) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE lower(btrim(business_name)) = $1
		  AND lower(btrim(address)) = $2
		  AND lower(btrim(postcode)) = $3
		LIMIT 1
	`
	acc, err := scanAccount(r.db.QueryRow(ctx, query, key.Name, key.Address, key.Postcode))
	if err != nil {
		return nil, notFound(err)
	}
	return acc, nil
}

func (r *accountRepo) Update(ctx context.Context, acc *models.Account) error {
	query := `
		UPDATE accounts
		SET full_name = $1, business_name = $2, address = $3, city = $4, postcode = $5, phone = $6,
		    is_approved = $7, trial_ends_at = $8, subscription_amount = $9, subscription_status = $10,
		    version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
	`
	tag, err := r.db.Exec(ctx, query,
		acc.FullName, acc.BusinessName, acc.Address, acc.City, acc.Postcode, acc.Phone,
		acc.IsApproved, acc.TrialEndsAt, acc.SubscriptionAmount, acc.SubscriptionStatus,
		acc.UpdatedAt, acc.ID, acc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConcurrentUpdate
	}
	acc.Version++
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *accountRepo) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
