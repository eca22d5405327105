package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"invoicelink/internal/models"
	"invoicelink/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when no database is configured.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE audit_logs, invoices, customers, accounts`); err != nil {
		pool.Close()
		t.Fatalf("Failed to reset test database: %v", err)
	}

	return &TestDB{Pool: pool, Cleanup: pool.Close}
}

// NewAccount builds an unsaved account in the given status.
func NewAccount(email, business string, status models.SubscriptionStatus) *models.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	acc := &models.Account{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       "not-a-real-hash",
		FullName:           "Test User",
		BusinessName:       business,
		Address:            "1 Test Street",
		City:               "Testville",
		Postcode:           "TE5 7ST",
		Phone:              "0123456789",
		IsApproved:         status != models.StatusPending,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: status,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if status == models.StatusTrial {
		ends := now.AddDate(0, 0, 5)
		acc.TrialEndsAt = &ends
	}
	return acc
}

// NewCustomer builds an unsaved customer owned by accountID.
func NewCustomer(accountID uuid.UUID, name string) *models.Customer {
	return &models.Customer{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Email:     "billing@example.com",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}
