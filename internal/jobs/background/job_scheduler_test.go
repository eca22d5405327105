package background

import (
	"context"
	"testing"
	"time"

	"invoicelink/internal/metrics"
	"invoicelink/internal/models"
	"invoicelink/internal/repositories"
	"invoicelink/internal/services"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T, clock clockwork.Clock, seed ...*models.Account) (services.AccountService, repositories.AccountRepository, services.InvoiceService) {
	t.Helper()
	accountRepo := repositories.NewMemoryAccountRepo(seed...)
	audit := services.NewAuditLogsService(repositories.NewMemoryAuditLogsRepo(), clock)
	accounts := services.NewAccountService(accountRepo, audit, clock, metrics.Nop(), zerolog.Nop(), "")
	invoices := services.NewInvoiceService(repositories.NewMemoryInvoiceRepo(), repositories.NewMemoryCustomerRepo(), services.NewNoopArchive(), clock, metrics.Nop(), zerolog.Nop())
	return accounts, accountRepo, invoices
}

func TestJobScheduler_RegistersJobs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	accounts, _, invoices := newServices(t, clock)

	js, err := NewJobScheduler(accounts, invoices, clock, Options{OverdueInterval: time.Hour}, zerolog.Nop())
	require.NoError(t, err)
	defer js.Stop()
	assert.Equal(t, []string{InvoiceOverdueJob}, js.JobNames())

	js2, err := NewJobScheduler(accounts, invoices, clock, Options{
		TrialSweepEnabled:  true,
		TrialSweepInterval: time.Hour,
		OverdueInterval:    time.Hour,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer js2.Stop()
	assert.Equal(t, []string{InvoiceOverdueJob, TrialExpirySweepJob}, js2.JobNames())

	assert.Error(t, js.RunNow(TrialExpirySweepJob))
}

func TestJobScheduler_TrialSweepRunNow(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	ended := now.AddDate(0, 0, -1)
	expired := &models.Account{
		ID:                 uuid.New(),
		Email:              "alice@example.com",
		BusinessName:       "Smith & Co",
		IsApproved:         true,
		TrialEndsAt:        &ended,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusTrial,
	}
	accounts, repo, invoices := newServices(t, clock, expired)

	js, err := NewJobScheduler(accounts, invoices, clock, Options{
		TrialSweepEnabled:  true,
		TrialSweepApply:    true,
		TrialSweepInterval: time.Hour,
		OverdueInterval:    time.Hour,
	}, zerolog.Nop())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	require.NoError(t, js.RunNow(TrialExpirySweepJob))

	assert.Eventually(t, func() bool {
		acc, err := repo.GetByID(context.Background(), expired.ID)
		return err == nil && acc.SubscriptionStatus == models.StatusCanceled
	}, 2*time.Second, 10*time.Millisecond)
}
