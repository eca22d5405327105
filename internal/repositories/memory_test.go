package repositories

import (
	"context"
	"testing"
	"time"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memAccount(email, business string) *models.Account {
	return &models.Account{
		ID:                 uuid.New(),
		Email:              email,
		BusinessName:       business,
		Address:            "1 High Street",
		Postcode:           "LS1 1AA",
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusPending,
	}
}

func TestMemoryAccountRepo_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepo()
	acc := memAccount("Owner@Bakery.test", "Corner Bakery")

	require.NoError(t, repo.Create(ctx, acc))
	assert.ErrorIs(t, repo.Create(ctx, memAccount("owner@bakery.TEST", "Other")), models.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "OWNER@bakery.test")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, "owner@bakery.test", got.Email)

	found, err := repo.FindByBusiness(ctx, models.NewBusinessKey("corner bakery ", "1 HIGH STREET", "ls1 1aa"))
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)

	_, err = repo.FindByBusiness(ctx, models.NewBusinessKey("corner bakery", "2 High Street", "LS1 1AA"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryAccountRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	acc := memAccount("a@b.test", "Shop")
	repo := NewMemoryAccountRepo(acc)

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	got.SubscriptionStatus = models.StatusCanceled

	again, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.SubscriptionStatus)
}

func TestMemoryAccountRepo_OptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	acc := memAccount("a@b.test", "Shop")
	repo := NewMemoryAccountRepo(acc)

	first, _ := repo.GetByID(ctx, acc.ID)
	second, _ := repo.GetByID(ctx, acc.ID)

	first.SubscriptionAmount = decimal.NewFromInt(15)
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 1, first.Version)

	second.SubscriptionAmount = decimal.NewFromInt(30)
	assert.ErrorIs(t, repo.Update(ctx, second), models.ErrConcurrentUpdate)

	stored, _ := repo.GetByID(ctx, acc.ID)
	assert.True(t, decimal.NewFromInt(15).Equal(stored.SubscriptionAmount))
}

func TestMemoryAccountRepo_DeleteKeepsOrder(t *testing.T) {
	ctx := context.Background()
	a, b, c := memAccount("a@x.test", "A"), memAccount("b@x.test", "B"), memAccount("c@x.test", "C")
	repo := NewMemoryAccountRepo(a, b, c)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), models.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestMemoryInvoiceRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInvoiceRepo()
	accountID := uuid.New()

	number, err := repo.NextInvoiceNumber(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", number)

	inv := &models.Invoice{ID: uuid.New(), AccountID: accountID, InvoiceNumber: number, Status: models.InvoiceStatusSent}
	require.NoError(t, repo.Create(ctx, inv))
	assert.ErrorIs(t, repo.Create(ctx, &models.Invoice{ID: uuid.New(), AccountID: accountID, InvoiceNumber: number}), models.ErrConcurrentUpdate)

	number, _ = repo.NextInvoiceNumber(ctx, accountID)
	assert.Equal(t, "INV-002", number)

	inv.Status = models.InvoiceStatusPaid
	inv.UpdatedAt = time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, inv, models.InvoiceStatusSent))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, inv, models.InvoiceStatusSent), models.ErrConcurrentUpdate)

	paid, err := repo.ListByStatus(ctx, models.InvoiceStatusPaid)
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	_, err = repo.GetByID(ctx, uuid.New(), inv.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryCustomerRepo_ScopedAndSorted(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	repo := NewMemoryCustomerRepo(
		&models.Customer{ID: uuid.New(), AccountID: accountID, Name: "Zeta"},
		&models.Customer{ID: uuid.New(), AccountID: uuid.New(), Name: "Other"},
		&models.Customer{ID: uuid.New(), AccountID: accountID, Name: "Alpha"},
	)

	list, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Zeta", list[1].Name)
}
